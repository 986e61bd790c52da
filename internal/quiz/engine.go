// Package quiz runs the post-lesson knowledge check: one pass through an
// ordered question list with timed feedback between answers.
package quiz

import (
	"errors"
	"sync"
	"time"

	"github.com/abodnar/clio/internal/store"
)

// DefaultFeedbackDelay is how long an answer's feedback stays on screen
// before the next question appears.
const DefaultFeedbackDelay = 3 * time.Second

// Feedback strings shown after an answer.
const (
	FeedbackCorrect = "Correct!"
	FeedbackWrong   = "Not quite. Let's try the next one."
)

var (
	// ErrComplete is returned by Submit after the last question.
	ErrComplete = errors.New("quiz already complete")
	// ErrFeedbackActive is returned by Submit while feedback for the
	// previous answer is still showing.
	ErrFeedbackActive = errors.New("feedback in progress")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("quiz closed")
)

// Snapshot is a point-in-time view of quiz progress.
type Snapshot struct {
	Total     int
	Index     int
	Current   *store.QuizQuestion // nil once complete
	Feedback  string              // empty outside the feedback window
	Answered  int
	Correct   int
	Completed bool
}

// Options configures an Engine.
type Options struct {
	// FeedbackDelay overrides DefaultFeedbackDelay; zero keeps the default.
	FeedbackDelay time.Duration
	// OnChange fires after every visible state change (feedback shown,
	// question advanced). Called without the engine lock held.
	OnChange func()
	// OnComplete fires exactly once when the last question is passed,
	// or immediately from NewEngine when the question list is empty.
	OnComplete func()
}

// Engine drives a single pass over the questions. Answers are matched
// exactly against the stored correct option, feedback is shown for a
// fixed window during which further submissions are rejected, then the
// engine advances. There is no retry and no second pass.
type Engine struct {
	mu        sync.Mutex
	questions []store.QuizQuestion
	idx       int
	feedback  string
	answered  int
	correct   int
	awaiting  bool
	completed bool
	closed    bool
	timer     *time.Timer

	delay      time.Duration
	onChange   func()
	onComplete func()
}

// NewEngine creates an engine over questions in their stored order. An
// empty list completes immediately and fires OnComplete before returning.
func NewEngine(questions []store.QuizQuestion, opts Options) *Engine {
	delay := opts.FeedbackDelay
	if delay <= 0 {
		delay = DefaultFeedbackDelay
	}
	e := &Engine{
		questions:  questions,
		delay:      delay,
		onChange:   opts.OnChange,
		onComplete: opts.OnComplete,
	}
	if len(questions) == 0 {
		e.completed = true
		if e.onComplete != nil {
			e.onComplete()
		}
	}
	return e
}

// Snapshot returns the current progress view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Total:     len(e.questions),
		Index:     e.idx,
		Feedback:  e.feedback,
		Answered:  e.answered,
		Correct:   e.correct,
		Completed: e.completed,
	}
	if !e.completed {
		q := e.questions[e.idx]
		snap.Current = &q
	}
	return snap
}

// Completed reports whether the pass is finished.
func (e *Engine) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed
}

// Submit grades an answer against the current question. While feedback is
// showing it returns ErrFeedbackActive; advancing happens on the feedback
// timer, never from Submit itself.
func (e *Engine) Submit(answer string) (bool, error) {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return false, ErrClosed
	case e.completed:
		e.mu.Unlock()
		return false, ErrComplete
	case e.awaiting:
		e.mu.Unlock()
		return false, ErrFeedbackActive
	}

	correct := answer == e.questions[e.idx].CorrectAnswer
	e.answered++
	if correct {
		e.correct++
		e.feedback = FeedbackCorrect
	} else {
		e.feedback = FeedbackWrong
	}
	e.awaiting = true
	e.timer = time.AfterFunc(e.delay, e.advance)
	onChange := e.onChange
	e.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return correct, nil
}

// advance moves past the feedback window. Fires after Close are dropped.
func (e *Engine) advance() {
	e.mu.Lock()
	if e.closed || !e.awaiting {
		e.mu.Unlock()
		return
	}
	e.awaiting = false
	e.feedback = ""
	e.idx++
	justCompleted := e.idx >= len(e.questions)
	if justCompleted {
		e.completed = true
	}
	onChange := e.onChange
	onComplete := e.onComplete
	e.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	if justCompleted && onComplete != nil {
		onComplete()
	}
}

// Close cancels the pending feedback timer and rejects further submits.
// It is safe to call multiple times and from any goroutine.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
