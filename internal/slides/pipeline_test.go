package slides

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abodnar/clio/internal/store"
)

// fakeLessonStore records generated-content upserts. The embedded
// interface panics on the methods the pipeline never touches.
type fakeLessonStore struct {
	store.LessonRepo
	mu       sync.Mutex
	err      error
	upserted map[string][2]string // sectionID -> {text, url}
}

func newFakeLessonStore() *fakeLessonStore {
	return &fakeLessonStore{upserted: make(map[string][2]string)}
}

func (f *fakeLessonStore) UpsertGeneratedContent(_ context.Context, sectionID, text, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted[sectionID] = [2]string{text, imageURL}
	return nil
}

func TestPipelineGenerate(t *testing.T) {
	images := NewMockImageProvider("https://images.example/forum.png")
	repo := newFakeLessonStore()
	p := NewPipeline(images, repo)

	slide, err := p.Generate(context.Background(), "Rome fell in 476 CE.", "a crumbling forum", "sec-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if slide.Text != "Rome fell in 476 CE." || slide.ImageURL != "https://images.example/forum.png" {
		t.Errorf("slide = %+v", slide)
	}
	if got := repo.upserted["sec-1"]; got[1] != "https://images.example/forum.png" {
		t.Errorf("upserted = %v", got)
	}
}

func TestPipelineImageFailure(t *testing.T) {
	images := NewMockImageProvider()
	images.Fail(errors.New("service down"))
	repo := newFakeLessonStore()
	p := NewPipeline(images, repo)

	_, err := p.Generate(context.Background(), "text", "desc", "sec-1")
	var genErr *ErrGeneration
	if !errors.As(err, &genErr) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing should be persisted on failure")
	}
}

func TestPipelineEmptyDescription(t *testing.T) {
	p := NewPipeline(NewMockImageProvider(), newFakeLessonStore())

	for _, desc := range []string{"", "   ", "\n\t "} {
		if _, err := p.Generate(context.Background(), "text", desc, ""); err == nil {
			t.Errorf("description %q should fail", desc)
		}
	}
}

func TestPipelinePersistFailureIsSoft(t *testing.T) {
	images := NewMockImageProvider()
	repo := newFakeLessonStore()
	repo.err = errors.New("disk full")
	p := NewPipeline(images, repo)

	slide, err := p.Generate(context.Background(), "text", "desc", "sec-1")
	if err != nil {
		t.Fatalf("persistence failure must not fail the slide: %v", err)
	}
	if slide.ImageURL == "" {
		t.Error("slide must still carry the image")
	}
}

func TestPipelineSkipsPersistWithoutSection(t *testing.T) {
	images := NewMockImageProvider()
	repo := newFakeLessonStore()
	p := NewPipeline(images, repo)

	if _, err := p.Generate(context.Background(), "text", "desc", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Error("no section id, nothing to persist")
	}
}

func TestSanitizePrompt(t *testing.T) {
	images := NewMockImageProvider()
	p := NewPipeline(images, nil)

	long := strings.Repeat("legion ", 400)
	if _, err := p.Generate(context.Background(), "t", "  "+long+"  ", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	got := images.Prompts[0]
	if len([]rune(got)) > maxPromptLen {
		t.Errorf("prompt length %d exceeds cap", len([]rune(got)))
	}
	if strings.Contains(got, "  ") || strings.HasPrefix(got, " ") {
		t.Errorf("whitespace not normalized: %q", got)
	}
}
