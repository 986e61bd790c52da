// Package personality lets the learner pick which tutor persona will
// teach the lesson.
package personality

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/router"
	"github.com/abodnar/clio/internal/screen"
	"github.com/abodnar/clio/internal/screens"
	"github.com/abodnar/clio/internal/screens/topics"
	"github.com/abodnar/clio/internal/tutor"
	"github.com/abodnar/clio/internal/ui/components"
	"github.com/abodnar/clio/internal/ui/layout"
	"github.com/abodnar/clio/internal/ui/theme"
)

// PersonalityScreen is the tutor persona picker.
type PersonalityScreen struct {
	deps   *screens.Deps
	agents []tutor.Agent
	menu   components.Menu
}

var _ screen.Screen = (*PersonalityScreen)(nil)

// New creates the persona picker over all configured agents.
func New(deps *screens.Deps) *PersonalityScreen {
	agents := tutor.All()

	items := make([]components.MenuItem, 0, len(agents))
	for _, a := range agents {
		agent := a
		items = append(items, components.MenuItem{
			Label: agent.Name,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: topics.New(deps, agent)}
				}
			},
		})
	}

	return &PersonalityScreen{
		deps:   deps,
		agents: agents,
		menu:   components.NewMenu(items),
	}
}

func (s *PersonalityScreen) Init() tea.Cmd {
	return nil
}

func (s *PersonalityScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *PersonalityScreen) View(width, height int) string {
	heading := theme.Title.Render("Choose your tutor")

	// Describe the highlighted persona beside the menu.
	var desc string
	if s.menu.Selected >= 0 && s.menu.Selected < len(s.agents) {
		a := s.agents[s.menu.Selected]
		desc = theme.Card.Width(44).Render(
			theme.Body.Bold(true).Render(a.Name) + "\n" +
				theme.Hint.Render(a.Description),
		)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, s.menu.View(), "   ", desc)

	content := lipgloss.JoinVertical(lipgloss.Center, heading, "", body)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (s *PersonalityScreen) Title() string {
	return "Choose Tutor"
}

// KeyHints provides the footer hints for this screen.
func (s *PersonalityScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Back"},
	}
}
