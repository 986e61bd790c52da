// Package app hosts the root Bubble Tea model: the screen router, the
// shared frame (header, footer, minimum-size guard), and program startup.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/lessons"
	"github.com/abodnar/clio/internal/router"
	"github.com/abodnar/clio/internal/screen"
	"github.com/abodnar/clio/internal/screens"
	"github.com/abodnar/clio/internal/screens/home"
	"github.com/abodnar/clio/internal/session"
	"github.com/abodnar/clio/internal/slides"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/ui/layout"
	"github.com/abodnar/clio/internal/voice"
)

// Options is the dependency wiring for one program run. Store and Voice
// are required; the rest may be nil when their API keys are missing, and
// the affected screens degrade gracefully.
type Options struct {
	Store   *store.Store
	Lessons *lessons.Service
	Slides  *slides.Pipeline
	Voice   *voice.Session
	URLs    session.SignedURLGetter
	Mic     session.MicProber
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(deps *screens.Deps) AppModel {
	return AppModel{
		router: router.New(home.New(deps)),
	}
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			// Screens mid-interaction keep the escape key; otherwise it
			// navigates back.
			if c, ok := m.router.Active().(screen.EscConsumer); ok && c.WantsEsc() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, "", m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	deps := &screens.Deps{
		Store:   opts.Store,
		Lessons: opts.Lessons,
		Slides:  opts.Slides,
		Voice:   opts.Voice,
		URLs:    opts.URLs,
		Mic:     opts.Mic,
	}

	p := tea.NewProgram(newAppModel(deps))
	deps.Send = p.Send

	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
