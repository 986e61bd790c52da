package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RequestRecord captures one LLM call for the activity log.
type RequestRecord struct {
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// Recorder persists request records. The store package implements it; a nil
// Recorder disables recording.
type Recorder interface {
	RecordLLMRequest(ctx context.Context, rec RequestRecord) error
}

// recordingProvider is a decorator that logs every call as a durable record.
type recordingProvider struct {
	inner    Provider
	recorder Recorder
}

// WithRecording wraps a Provider with request recording. A nil recorder
// returns the provider unchanged.
func WithRecording(p Provider, rec Recorder) Provider {
	if rec == nil {
		return p
	}
	return &recordingProvider{inner: p, recorder: rec}
}

func (r *recordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := r.inner.Generate(ctx, req)

	rec := RequestRecord{
		Model:     r.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		rec.Model = resp.Model
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}

	// Recording failures must not fail the request itself.
	if logErr := r.recorder.RecordLLMRequest(ctx, rec); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record LLM request: %v\n", logErr)
	}

	return resp, err
}

func (r *recordingProvider) ModelID() string {
	return r.inner.ModelID()
}

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose labels the context so records show what the call was for
// ("lesson-sections", "quiz-questions").
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label, defaulting to "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
