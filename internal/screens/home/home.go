// Package home is the landing screen: the banner and the main menu.
package home

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/router"
	"github.com/abodnar/clio/internal/screen"
	"github.com/abodnar/clio/internal/screens"
	"github.com/abodnar/clio/internal/screens/personality"
	"github.com/abodnar/clio/internal/ui/components"
	"github.com/abodnar/clio/internal/ui/theme"
)

const banner = `
   ▄████▄   ██▓     ██▓ ▒█████
  ▒██▀ ▀█  ▓██▒    ▓██▒▒██▒  ██▒
  ▒▓█    ▄ ▒██░    ▒██▒▒██░  ██▒
  ▒▓▓▄ ▄██▒▒██░    ░██░▒██   ██░
  ▒ ▓███▀ ░░██████▒░██░░ ████▓▒░
  ░ ░▒ ▒  ░░ ▒░▓  ░░▓  ░ ▒░▒░▒░
`

// HomeScreen is the landing screen of the application.
type HomeScreen struct {
	deps        *screens.Deps
	menu        components.Menu
	lessonCount int
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen and counts stored lessons for the subtitle.
func New(deps *screens.Deps) *HomeScreen {
	var count int
	if deps.Store != nil {
		if all, err := deps.Store.Lessons().List(context.Background()); err == nil {
			count = len(all)
		}
	}

	items := []components.MenuItem{
		{Label: "START LESSON", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: personality.New(deps)}
			}
		}},
		{Label: "EXIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		deps:        deps,
		menu:        components.NewMenu(items),
		lessonCount: count,
	}
}

func (s *HomeScreen) Init() tea.Cmd {
	return nil
}

func (s *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *HomeScreen) View(width, height int) string {
	title := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(banner)
	subtitle := theme.Subtitle.Render("Your AI history tutor")

	shelf := ""
	if s.lessonCount > 0 {
		shelf = theme.Hint.Render(pluralLessons(s.lessonCount) + " on your shelf")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		subtitle,
		"",
		shelf,
		"",
		s.menu.View(),
	)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (s *HomeScreen) Title() string {
	return "Home"
}

func pluralLessons(n int) string {
	if n == 1 {
		return "1 lesson"
	}
	return fmt.Sprintf("%d lessons", n)
}
