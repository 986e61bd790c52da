package slides

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/abodnar/clio/internal/store"
)

// maxPromptLen is the longest description forwarded to the image service.
const maxPromptLen = 1000

// Slide is the ephemeral display projection: narration text plus the
// generated image reference. It has no persistent identity.
type Slide struct {
	Text     string
	ImageURL string
}

// Pipeline handles the generate_slide tool invocation end to end: image
// generation, persistence against the section, and the display record.
//
// Concurrent Generate calls are not serialized; when two tool invocations
// race, the last write wins for both the display projection and the stored
// record. The tutor is instructed to request one slide at a time.
type Pipeline struct {
	images  ImageProvider
	lessons store.LessonRepo
}

// NewPipeline creates a slide pipeline.
func NewPipeline(images ImageProvider, lessons store.LessonRepo) *Pipeline {
	return &Pipeline{images: images, lessons: lessons}
}

// Generate produces a slide for the narration/description pair and upserts
// it against sectionID. Image service failure returns *ErrGeneration and no
// slide. A persistence failure does not fail the slide: the visual is
// already on screen, so the write is logged and dropped.
func (p *Pipeline) Generate(ctx context.Context, text, imageDescription, sectionID string) (Slide, error) {
	prompt := sanitizePrompt(imageDescription)
	if prompt == "" {
		return Slide{}, &ErrGeneration{Err: fmt.Errorf("empty image description")}
	}

	url, err := p.images.GenerateImage(ctx, prompt)
	if err != nil {
		return Slide{}, err
	}

	if sectionID != "" && p.lessons != nil {
		if err := p.lessons.UpsertGeneratedContent(ctx, sectionID, text, url); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save slide content: %v\n", err)
		}
	}

	return Slide{Text: text, ImageURL: url}, nil
}

// sanitizePrompt normalizes whitespace and truncates the description to
// the image service's accepted length.
func sanitizePrompt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxPromptLen {
		return string(runes[:maxPromptLen])
	}
	return s
}
