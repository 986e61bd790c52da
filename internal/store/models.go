package store

import (
	"time"

	"gorm.io/datatypes"
)

// Section types, in narration order.
const (
	SectionIntro      = "intro"
	SectionPoint      = "point"
	SectionConclusion = "conclusion"
)

// Quiz difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Session event kinds.
const (
	SessionEventStarted  = "started"
	SessionEventSlide    = "slide"
	SessionEventQuiz     = "quiz"
	SessionEventComplete = "complete"
	SessionEventEnded    = "ended"
	SessionEventError    = "error"
)

// Lesson is a stored lesson with its ordered sections and quiz questions.
type Lesson struct {
	ID         string `gorm:"primaryKey"`
	Title      string `gorm:"uniqueIndex"`
	Difficulty string
	CreatedAt  time.Time

	Sections  []LessonSection `gorm:"foreignKey:LessonID"`
	Questions []QuizQuestion  `gorm:"foreignKey:LessonID"`
}

// LessonSection is one ordered chunk of lesson content. Immutable once
// authored, except for its derived generated content.
type LessonSection struct {
	ID          string `gorm:"primaryKey"`
	LessonID    string `gorm:"index"`
	Title       string
	Content     string
	SectionType string // intro, point, conclusion
	OrderIndex  int

	// Generated is the latest AI-generated slide content for this section,
	// nil until the slide pipeline produces one.
	Generated *GeneratedContent `gorm:"foreignKey:SectionID"`
}

// GeneratedContent is the single active generated slide record per section.
// The slide pipeline upserts it; later generations replace earlier ones.
type GeneratedContent struct {
	SectionID         string `gorm:"primaryKey"`
	GeneratedText     string
	GeneratedImageURL string
	UpdatedAt         time.Time
}

// QuizQuestion is one ordered multiple-choice question for a lesson.
// CorrectAnswer always equals exactly one element of Options.
type QuizQuestion struct {
	ID            string `gorm:"primaryKey"`
	LessonID      string `gorm:"index"`
	Question      string
	Options       datatypes.JSONSlice[string]
	CorrectAnswer string
	Difficulty    string // easy, medium, hard
	OrderIndex    int
}

// LLMRequestEvent is the durable record of one LLM API call.
type LLMRequestEvent struct {
	ID           uint `gorm:"primaryKey"`
	At           time.Time
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// SessionEvent records a lesson-session milestone or failure. This is the
// app's log: the TUI owns the terminal, so diagnostics go to the store.
type SessionEvent struct {
	ID        uint `gorm:"primaryKey"`
	At        time.Time
	SessionID string `gorm:"index"`
	Kind      string // started, slide, quiz, complete, ended, error
	Message   string
}
