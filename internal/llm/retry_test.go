package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	mu       sync.Mutex
	failures []error
	calls    int
}

func (f *flakyProvider) Generate(context.Context, Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	return &Response{Content: json.RawMessage(`{}`), Model: "flaky"}, nil
}

func (f *flakyProvider) ModelID() string { return "flaky" }

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &flakyProvider{failures: []error{
		&ErrUnavailable{Err: errors.New("503")},
		&ErrRateLimited{Err: errors.New("429")},
	}}
	p := WithRetry(inner, fastRetry(5))

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp == nil || inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyProvider{failures: []error{
		&ErrUnavailable{}, &ErrUnavailable{}, &ErrUnavailable{}, &ErrUnavailable{},
	}}
	p := WithRetry(inner, fastRetry(3))

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryBadResponseOnlyOnce(t *testing.T) {
	inner := &flakyProvider{failures: []error{
		&ErrBadResponse{Err: errors.New("schema mismatch")},
		&ErrBadResponse{Err: errors.New("schema mismatch again")},
	}}
	p := WithRetry(inner, fastRetry(5))

	_, err := p.Generate(context.Background(), Request{})
	var bad *ErrBadResponse
	if !errors.As(err, &bad) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry for a bad response)", inner.calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakyProvider{failures: []error{context.Canceled}}
	p := WithRetry(inner, fastRetry(5))

	if _, err := p.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	inner := &flakyProvider{failures: []error{
		&ErrRateLimited{RetryAfter: 10 * time.Millisecond},
	}}
	p := WithRetry(inner, fastRetry(3))

	start := time.Now()
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("retried after %v, want at least the server hint", elapsed)
	}
}
