// Package session owns lesson-session state: one controller per lesson
// run, holding the conversation lifecycle, the current slide, audio
// volume, and the quiz pass. All mutation goes through the controller;
// screens only read snapshots.
package session

import (
	"github.com/abodnar/clio/internal/quiz"
	"github.com/abodnar/clio/internal/slides"
)

// Mode is the lesson phase. It only ever moves forward.
type Mode int

const (
	ModeSlide Mode = iota
	ModeQuiz
	ModeComplete
)

func (m Mode) String() string {
	switch m {
	case ModeSlide:
		return "slide"
	case ModeQuiz:
		return "quiz"
	case ModeComplete:
		return "complete"
	}
	return "unknown"
}

// State is an immutable snapshot of the session for rendering. Volume is
// zero exactly when Muted is set.
type State struct {
	Started  bool
	Mode     Mode
	Slide    *slides.Slide
	Speaking bool
	Muted    bool
	Volume   float64
	Quiz     quiz.Snapshot
	Err      string
}
