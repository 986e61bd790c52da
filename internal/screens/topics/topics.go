// Package topics is the lesson subject picker: starter suggestions, the
// learner's own stored lessons, and a free-form topic input. Picking a
// topic that has no stored lesson generates one before the session opens.
package topics

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/lessons"
	"github.com/abodnar/clio/internal/router"
	"github.com/abodnar/clio/internal/screen"
	"github.com/abodnar/clio/internal/screens"
	"github.com/abodnar/clio/internal/screens/lesson"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/tutor"
	"github.com/abodnar/clio/internal/ui/components"
	"github.com/abodnar/clio/internal/ui/layout"
	"github.com/abodnar/clio/internal/ui/theme"
)

const maxTopicLen = 80

// lessonReadyMsg carries a lesson that is stored and ready to teach.
type lessonReadyMsg struct {
	lesson *store.Lesson
}

type generateFailedMsg struct {
	err error
}

type tickMsg time.Time

// TopicsScreen picks or generates the lesson to teach.
type TopicsScreen struct {
	deps  *screens.Deps
	agent tutor.Agent

	menu       components.Menu
	input      components.TextInput
	entering   bool
	generating bool
	topic      string
	errText    string
	dots       int
}

var _ screen.Screen = (*TopicsScreen)(nil)

// New creates the topic picker for the chosen tutor persona.
func New(deps *screens.Deps, agent tutor.Agent) *TopicsScreen {
	s := &TopicsScreen{
		deps:  deps,
		agent: agent,
		input: components.NewTextInput("e.g. The Silk Road", maxTopicLen),
	}

	items := make([]components.MenuItem, 0, len(lessons.StarterTopics)+1)
	for _, t := range lessons.StarterTopics {
		topic := t
		items = append(items, components.MenuItem{
			Label: topic.Title + "  " + theme.Hint.Render("("+topic.Difficulty+")"),
			Action: func() tea.Cmd {
				return s.choose(topic.Title)
			},
		})
	}
	items = append(items, components.MenuItem{
		Label: "Something else...",
		Action: func() tea.Cmd {
			s.entering = true
			return s.input.Init()
		},
	})
	s.menu = components.NewMenu(items)
	return s
}

func (s *TopicsScreen) Init() tea.Cmd {
	return nil
}

// choose resolves a topic title to a lesson: reuse the stored one if it
// exists, otherwise generate and store a fresh one.
func (s *TopicsScreen) choose(title string) tea.Cmd {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	s.generating = true
	s.topic = title
	s.errText = ""

	deps := s.deps
	fetch := func() tea.Msg {
		ctx := context.Background()

		existing, err := deps.Store.Lessons().ByTitle(ctx, title)
		if err == nil {
			return lessonReadyMsg{lesson: existing}
		}
		if !errors.Is(err, store.ErrNotFound) {
			return generateFailedMsg{err: err}
		}

		if deps.Lessons == nil {
			return generateFailedMsg{err: errors.New("no LLM provider configured; set an API key to generate lessons")}
		}
		created, err := deps.Lessons.Generate(ctx, title, store.DifficultyMedium)
		if err != nil {
			return generateFailedMsg{err: err}
		}
		return lessonReadyMsg{lesson: created}
	}

	return tea.Batch(fetch, s.tick())
}

func (s *TopicsScreen) tick() tea.Cmd {
	return tea.Tick(400*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case lessonReadyMsg:
		s.generating = false
		deps, agent := s.deps, s.agent
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: lesson.New(deps, agent, msg.lesson)}
		}

	case generateFailedMsg:
		s.generating = false
		s.errText = msg.err.Error()
		return s, nil

	case tickMsg:
		if !s.generating {
			return s, nil
		}
		s.dots = (s.dots + 1) % 4
		return s, s.tick()

	case tea.KeyMsg:
		if s.generating {
			return s, nil
		}
		if s.entering {
			switch msg.String() {
			case "enter":
				s.entering = false
				return s, s.choose(s.input.Value())
			case "esc":
				s.entering = false
				return s, nil
			}
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		}
	}

	if s.generating || s.entering {
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *TopicsScreen) View(width, height int) string {
	heading := theme.Title.Render("What shall we explore?")
	sub := theme.Subtitle.Render("with " + s.agent.Name)

	var body string
	switch {
	case s.generating:
		body = theme.Card.Width(52).Render(
			theme.Body.Render("Preparing your lesson on "+s.topic) + "\n\n" +
				theme.Hint.Render("Consulting the archives"+strings.Repeat(".", s.dots)),
		)
	case s.entering:
		body = theme.Card.Width(52).Render(
			theme.Body.Render("Name any moment in history:") + "\n\n" + s.input.View(),
		)
	default:
		body = s.menu.View()
	}

	parts := []string{heading, sub, "", body}
	if s.errText != "" {
		parts = append(parts, "", theme.Incorrect.Render(s.errText))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (s *TopicsScreen) Title() string {
	return "Pick a Topic"
}

// WantsEsc keeps the escape key in-screen while entering a custom topic
// or while generation is in flight.
func (s *TopicsScreen) WantsEsc() bool {
	return s.entering || s.generating
}

// KeyHints provides the footer hints for this screen.
func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	if s.entering {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Generate"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Back"},
	}
}
