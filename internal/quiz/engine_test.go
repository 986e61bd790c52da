package quiz

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/abodnar/clio/internal/store"
)

func questions(n int) []store.QuizQuestion {
	qs := make([]store.QuizQuestion, n)
	for i := range qs {
		qs[i] = store.QuizQuestion{
			ID:            "q" + string(rune('1'+i)),
			Question:      "Who built it?",
			Options:       []string{"Romans", "Greeks", "Egyptians", "Persians"},
			CorrectAnswer: "Romans",
			OrderIndex:    i,
		}
	}
	return qs
}

func TestEmptyQuizCompletesImmediately(t *testing.T) {
	var completions atomic.Int32
	e := NewEngine(nil, Options{OnComplete: func() { completions.Add(1) }})

	if !e.Completed() {
		t.Fatal("expected empty quiz to be complete")
	}
	if completions.Load() != 1 {
		t.Fatalf("expected 1 completion notification, got %d", completions.Load())
	}
	if _, err := e.Submit("Romans"); err != ErrComplete {
		t.Errorf("expected ErrComplete, got %v", err)
	}
}

func TestSubmitGrading(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		correct  bool
		feedback string
	}{
		{"exact match", "Romans", true, FeedbackCorrect},
		{"wrong option", "Greeks", false, FeedbackWrong},
		{"case mismatch is wrong", "romans", false, FeedbackWrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(questions(1), Options{FeedbackDelay: time.Hour})
			defer e.Close()

			correct, err := e.Submit(tt.answer)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if correct != tt.correct {
				t.Errorf("correct = %v, want %v", correct, tt.correct)
			}
			if got := e.Snapshot().Feedback; got != tt.feedback {
				t.Errorf("feedback = %q, want %q", got, tt.feedback)
			}
		})
	}
}

func TestSubmitGatedDuringFeedback(t *testing.T) {
	e := NewEngine(questions(2), Options{FeedbackDelay: time.Hour})
	defer e.Close()

	if _, err := e.Submit("Romans"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := e.Submit("Greeks"); err != ErrFeedbackActive {
		t.Fatalf("expected ErrFeedbackActive, got %v", err)
	}

	// The gated submit must not have advanced or re-graded anything.
	snap := e.Snapshot()
	if snap.Index != 0 || snap.Answered != 1 {
		t.Errorf("index=%d answered=%d after gated submit", snap.Index, snap.Answered)
	}
}

func TestAdvancesAfterFeedbackWindow(t *testing.T) {
	changed := make(chan struct{}, 8)
	e := NewEngine(questions(2), Options{
		FeedbackDelay: 5 * time.Millisecond,
		OnChange:      func() { changed <- struct{}{} },
	})
	defer e.Close()

	if _, err := e.Submit("Romans"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		snap := e.Snapshot()
		if snap.Index == 1 && snap.Feedback == "" {
			break
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("never advanced: %+v", snap)
		}
	}

	if _, err := e.Submit("Greeks"); err != nil {
		t.Fatalf("Submit after advance: %v", err)
	}
}

func TestCompletesOnceAfterLastQuestion(t *testing.T) {
	var completions atomic.Int32
	done := make(chan struct{})
	e := NewEngine(questions(1), Options{
		FeedbackDelay: 5 * time.Millisecond,
		OnComplete: func() {
			if completions.Add(1) == 1 {
				close(done)
			}
		},
	})
	defer e.Close()

	if _, err := e.Submit("Romans"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion never fired")
	}

	snap := e.Snapshot()
	if !snap.Completed || snap.Current != nil {
		t.Errorf("snapshot after completion: %+v", snap)
	}
	if snap.Correct != 1 {
		t.Errorf("correct = %d, want 1", snap.Correct)
	}
	if completions.Load() != 1 {
		t.Errorf("completions = %d, want 1", completions.Load())
	}
	if _, err := e.Submit("Romans"); err != ErrComplete {
		t.Errorf("expected ErrComplete, got %v", err)
	}
}

func TestCloseCancelsFeedbackTimer(t *testing.T) {
	e := NewEngine(questions(2), Options{FeedbackDelay: 5 * time.Millisecond})

	if _, err := e.Submit("Romans"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	e.Close()

	time.Sleep(30 * time.Millisecond)

	// The pending advance must have been dropped.
	if snap := e.Snapshot(); snap.Index != 0 {
		t.Errorf("index advanced after Close: %d", snap.Index)
	}
	if _, err := e.Submit("Romans"); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Closing again is harmless.
	e.Close()
}
