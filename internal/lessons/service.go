package lessons

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/abodnar/clio/internal/llm"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/tutor"
)

// Service authors lessons and their quizzes via the LLM provider and
// persists them.
type Service struct {
	provider llm.Provider
	lessons  store.LessonRepo
	quizzes  store.QuizRepo
	cfg      Config
}

// NewService creates a lesson generation service.
func NewService(provider llm.Provider, lessons store.LessonRepo, quizzes store.QuizRepo, cfg Config) *Service {
	return &Service{provider: provider, lessons: lessons, quizzes: quizzes, cfg: cfg}
}

type sectionsOutput struct {
	Intro      string   `json:"intro"`
	Points     []string `json:"points"`
	Conclusion string   `json:"conclusion"`
}

type quizOutput struct {
	Questions []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Difficulty    string   `json:"difficulty"`
	} `json:"questions"`
}

// Generate authors a complete lesson for the topic (sections plus quiz)
// and stores it. Returns the stored lesson with associations populated.
func (s *Service) Generate(ctx context.Context, topic string, difficulty string) (*store.Lesson, error) {
	sections, err := s.generateSections(ctx, topic)
	if err != nil {
		return nil, err
	}

	lesson := &store.Lesson{
		ID:         uuid.NewString(),
		Title:      topic,
		Difficulty: difficulty,
		CreatedAt:  time.Now(),
		Sections:   sections,
	}
	for i := range lesson.Sections {
		lesson.Sections[i].LessonID = lesson.ID
	}

	questions, err := s.generateQuiz(ctx, lesson)
	if err != nil {
		return nil, err
	}
	lesson.Questions = questions

	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("store lesson: %w", err)
	}
	return lesson, nil
}

// generateSections produces the five ordered sections: intro, three key
// points, conclusion.
func (s *Service) generateSections(ctx context.Context, topic string) ([]store.LessonSection, error) {
	ctx = llm.WithPurpose(ctx, "lesson-sections")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      sectionsSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildSectionsUserMessage(topic)}},
		Schema:      SectionsSchema,
		MaxTokens:   s.cfg.SectionMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate sections: %w", err)
	}

	var out sectionsOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse sections response: %w", err)
	}

	sections := []store.LessonSection{
		{Title: "Introduction", SectionType: store.SectionIntro, Content: out.Intro, OrderIndex: 0},
	}
	for i, p := range out.Points {
		sections = append(sections, store.LessonSection{
			Title:       fmt.Sprintf("Key Point %d", i+1),
			SectionType: store.SectionPoint,
			Content:     p,
			OrderIndex:  i + 1,
		})
	}
	sections = append(sections, store.LessonSection{
		Title:       "Conclusion",
		SectionType: store.SectionConclusion,
		Content:     out.Conclusion,
		OrderIndex:  len(sections),
	})

	for i := range sections {
		if strings.TrimSpace(sections[i].Content) == "" {
			return nil, fmt.Errorf("incomplete lesson content: empty %s section", sections[i].Title)
		}
		sections[i].ID = uuid.NewString()
	}

	return sections, nil
}

// generateQuiz authors the ordered question set from the lesson content.
func (s *Service) generateQuiz(ctx context.Context, lesson *store.Lesson) ([]store.QuizQuestion, error) {
	ctx = llm.WithPurpose(ctx, "quiz-questions")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: quizSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildQuizUserMessage(lesson.Title, tutor.JoinSections(lesson.Sections), s.cfg.QuizQuestions),
		}},
		Schema:      QuizSchema,
		MaxTokens:   s.cfg.QuizMaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var out quizOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse quiz response: %w", err)
	}

	questions := make([]store.QuizQuestion, 0, len(out.Questions))
	for i, q := range out.Questions {
		if !containsOption(q.Options, q.CorrectAnswer) {
			return nil, fmt.Errorf("quiz question %d: correct answer %q not among options", i+1, q.CorrectAnswer)
		}
		questions = append(questions, store.QuizQuestion{
			ID:            uuid.NewString(),
			LessonID:      lesson.ID,
			Question:      q.Question,
			Options:       datatypes.JSONSlice[string](q.Options),
			CorrectAnswer: q.CorrectAnswer,
			Difficulty:    q.Difficulty,
			OrderIndex:    i,
		})
	}

	return questions, nil
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}
