package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abodnar/clio/internal/llm"
)

// LessonRepo provides access to lessons, their sections, and generated
// slide content.
type LessonRepo interface {
	// Create stores a lesson together with its sections and questions.
	Create(ctx context.Context, lesson *Lesson) error

	// ByID returns the lesson with ordered sections (including their latest
	// generated content) and ordered questions. ErrNotFound if absent.
	ByID(ctx context.Context, id string) (*Lesson, error)

	// ByTitle is ByID keyed on the unique title.
	ByTitle(ctx context.Context, title string) (*Lesson, error)

	// List returns all lessons, newest first, without associations.
	List(ctx context.Context) ([]Lesson, error)

	// UpsertGeneratedContent replaces the generated slide record for a
	// section. Last write wins.
	UpsertGeneratedContent(ctx context.Context, sectionID, text, imageURL string) error
}

// QuizRepo provides access to quiz question sets.
type QuizRepo interface {
	// Questions returns the lesson's questions ordered by OrderIndex.
	Questions(ctx context.Context, lessonID string) ([]QuizQuestion, error)

	// Replace swaps the lesson's question set wholesale.
	Replace(ctx context.Context, lessonID string, questions []QuizQuestion) error
}

// EventRepo appends to the activity log. It satisfies llm.Recorder.
type EventRepo interface {
	RecordLLMRequest(ctx context.Context, rec llm.RequestRecord) error
	RecordSession(ctx context.Context, sessionID, kind, message string) error
}

type lessonRepo struct {
	db *gorm.DB
}

func (r *lessonRepo) Create(ctx context.Context, lesson *Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepo) ByID(ctx context.Context, id string) (*Lesson, error) {
	return r.fetch(ctx, "id = ?", id)
}

func (r *lessonRepo) ByTitle(ctx context.Context, title string) (*Lesson, error) {
	return r.fetch(ctx, "title = ?", title)
}

func (r *lessonRepo) fetch(ctx context.Context, query string, arg any) (*Lesson, error) {
	var lesson Lesson
	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index")
		}).
		Preload("Sections.Generated").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index")
		}).
		First(&lesson, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) List(ctx context.Context) ([]Lesson, error) {
	var lessons []Lesson
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) UpsertGeneratedContent(ctx context.Context, sectionID, text, imageURL string) error {
	rec := GeneratedContent{
		SectionID:         sectionID,
		GeneratedText:     text,
		GeneratedImageURL: imageURL,
		UpdatedAt:         time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"generated_text", "generated_image_url", "updated_at"}),
		}).
		Create(&rec).Error
}

type quizRepo struct {
	db *gorm.DB
}

func (r *quizRepo) Questions(ctx context.Context, lessonID string) ([]QuizQuestion, error) {
	var questions []QuizQuestion
	err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("order_index").
		Find(&questions).Error
	return questions, err
}

func (r *quizRepo) Replace(ctx context.Context, lessonID string, questions []QuizQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lessonID).Delete(&QuizQuestion{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.Create(&questions).Error
	})
}

type eventRepo struct {
	db *gorm.DB
}

func (r *eventRepo) RecordLLMRequest(ctx context.Context, rec llm.RequestRecord) error {
	return r.db.WithContext(ctx).Create(&LLMRequestEvent{
		At:           time.Now(),
		Model:        rec.Model,
		Purpose:      rec.Purpose,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		LatencyMs:    rec.LatencyMs,
		Success:      rec.Success,
		ErrorMessage: rec.ErrorMessage,
	}).Error
}

func (r *eventRepo) RecordSession(ctx context.Context, sessionID, kind, message string) error {
	return r.db.WithContext(ctx).Create(&SessionEvent{
		At:        time.Now(),
		SessionID: sessionID,
		Kind:      kind,
		Message:   message,
	}).Error
}
