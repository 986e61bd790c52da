// Package screens holds the dependency bundle every screen constructor
// receives. Screens never reach into globals; everything they touch comes
// through Deps.
package screens

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abodnar/clio/internal/lessons"
	"github.com/abodnar/clio/internal/session"
	"github.com/abodnar/clio/internal/slides"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/voice"
)

// Deps is the app-level wiring passed down the screen stack. Lessons,
// Slides, and URLs are nil when their API keys are not configured;
// screens degrade to the features that remain.
type Deps struct {
	Store   *store.Store
	Lessons *lessons.Service
	Slides  *slides.Pipeline
	Voice   *voice.Session
	URLs    session.SignedURLGetter
	Mic     session.MicProber

	// Send delivers messages into the running program from controller
	// callbacks on other goroutines. Set by app.Run before the program
	// starts.
	Send func(tea.Msg)
}

// Post delivers msg via Send, dropping it when the program is not
// running (tests construct Deps without Send).
func (d *Deps) Post(msg tea.Msg) {
	if d.Send != nil {
		d.Send(msg)
	}
}
