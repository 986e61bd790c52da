package lessons

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/abodnar/clio/internal/llm"
	"github.com/abodnar/clio/internal/store"
)

type memLessonRepo struct {
	store.LessonRepo
	created []*store.Lesson
}

func (m *memLessonRepo) Create(_ context.Context, lesson *store.Lesson) error {
	m.created = append(m.created, lesson)
	return nil
}

type memQuizRepo struct {
	store.QuizRepo
}

const goodSections = `{
	"intro": "Rome's fall reshaped Europe.",
	"points": ["The empire split in two.", "Barbarian pressure grew.", "The last emperor was deposed in 476 CE."],
	"conclusion": "Its legacy endured in law and language."
}`

const goodQuiz = `{
	"questions": [
		{"question": "When did Rome fall?", "options": ["476 CE", "1066 CE", "44 BCE", "800 CE"], "correct_answer": "476 CE", "difficulty": "easy"},
		{"question": "What split the empire?", "options": ["Diocletian's reforms", "The plague", "A vote", "The senate"], "correct_answer": "Diocletian's reforms", "difficulty": "medium"}
	]
}`

func newTestService(provider llm.Provider) (*Service, *memLessonRepo) {
	repo := &memLessonRepo{}
	return NewService(provider, repo, &memQuizRepo{}, DefaultConfig()), repo
}

func TestGenerate(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(goodSections)},
		llm.MockResponse{Content: json.RawMessage(goodQuiz)},
	)
	svc, repo := newTestService(provider)

	lesson, err := svc.Generate(context.Background(), "The Fall of Rome", store.DifficultyMedium)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(lesson.Sections) != 5 {
		t.Fatalf("sections = %d, want 5", len(lesson.Sections))
	}
	wantTitles := []string{"Introduction", "Key Point 1", "Key Point 2", "Key Point 3", "Conclusion"}
	for i, sec := range lesson.Sections {
		if sec.Title != wantTitles[i] {
			t.Errorf("section %d title = %q, want %q", i, sec.Title, wantTitles[i])
		}
		if sec.OrderIndex != i {
			t.Errorf("section %d order = %d", i, sec.OrderIndex)
		}
		if strings.TrimSpace(sec.Content) == "" {
			t.Errorf("section %d has empty content", i)
		}
		if sec.LessonID != lesson.ID {
			t.Errorf("section %d not linked to lesson", i)
		}
	}

	if len(lesson.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(lesson.Questions))
	}
	for i, q := range lesson.Questions {
		if q.OrderIndex != i || q.LessonID != lesson.ID {
			t.Errorf("question %d: order=%d lesson=%q", i, q.OrderIndex, q.LessonID)
		}
	}

	if len(repo.created) != 1 {
		t.Fatalf("stored %d lessons", len(repo.created))
	}
	if provider.CallCount() != 2 {
		t.Errorf("provider calls = %d, want 2", provider.CallCount())
	}
}

func TestGenerateEmptySection(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"intro": "x", "points": ["a", "", "c"], "conclusion": "y"}`)},
	)
	svc, repo := newTestService(provider)

	_, err := svc.Generate(context.Background(), "Topic", store.DifficultyEasy)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty-section error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestGenerateCorrectAnswerNotAmongOptions(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(goodSections)},
		llm.MockResponse{Content: json.RawMessage(`{
			"questions": [{"question": "q", "options": ["a", "b", "c", "d"], "correct_answer": "z", "difficulty": "easy"}]
		}`)},
	)
	svc, repo := newTestService(provider)

	_, err := svc.Generate(context.Background(), "Topic", store.DifficultyEasy)
	if err == nil || !strings.Contains(err.Error(), "not among options") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	svc, _ := newTestService(llm.NewMockProvider()) // empty queue -> unavailable

	if _, err := svc.Generate(context.Background(), "Topic", store.DifficultyEasy); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateRequestShape(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(goodSections)},
		llm.MockResponse{Content: json.RawMessage(goodQuiz)},
	)
	svc, _ := newTestService(provider)

	if _, err := svc.Generate(context.Background(), "The Silk Road", store.DifficultyHard); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	sectionsReq := provider.Calls[0]
	if sectionsReq.Schema.Name != SectionsSchema.Name {
		t.Errorf("sections schema = %q", sectionsReq.Schema.Name)
	}
	if !strings.Contains(sectionsReq.Messages[0].Content, "The Silk Road") {
		t.Error("topic missing from sections request")
	}

	quizReq := provider.Calls[1]
	if quizReq.Schema.Name != QuizSchema.Name {
		t.Errorf("quiz schema = %q", quizReq.Schema.Name)
	}
	// The quiz is authored from the generated content, not just the topic.
	if !strings.Contains(quizReq.Messages[0].Content, "Rome's fall reshaped Europe.") {
		t.Error("lesson content missing from quiz request")
	}
}
