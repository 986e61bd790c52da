// Package lesson is the live teaching screen. It owns the session
// controller for one lesson run and renders all three phases: the voice
// conversation with its slides, the quiz, and the completion summary.
package lesson

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/router"
	"github.com/abodnar/clio/internal/screen"
	"github.com/abodnar/clio/internal/screens"
	"github.com/abodnar/clio/internal/session"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/tutor"
	"github.com/abodnar/clio/internal/ui/components"
	"github.com/abodnar/clio/internal/ui/layout"
	"github.com/abodnar/clio/internal/ui/theme"
)

const volumeStep = 0.1

// stateMsg delivers a controller snapshot from a callback goroutine.
type stateMsg struct {
	state session.State
}

// startedMsg reports the outcome of the async session start.
type startedMsg struct {
	err error
}

// LessonScreen runs one lesson session end to end.
type LessonScreen struct {
	deps   *screens.Deps
	agent  tutor.Agent
	lesson *store.Lesson

	ctrl  *session.Controller
	state session.State

	starting bool
	errText  string

	choice      components.MultiChoice
	choiceIndex int // quiz index the component was built for
}

var _ screen.Screen = (*LessonScreen)(nil)

// New creates the lesson screen and its controller. The conversation is
// not opened until the learner presses start.
func New(deps *screens.Deps, agent tutor.Agent, lsn *store.Lesson) *LessonScreen {
	s := &LessonScreen{
		deps:        deps,
		agent:       agent,
		lesson:      lsn,
		choiceIndex: -1,
	}

	s.ctrl = session.NewController(session.Deps{
		Voice:   deps.Voice,
		URLs:    deps.URLs,
		Slides:  deps.Slides,
		Quizzes: deps.Store.Quizzes(),
		Events:  deps.Store.Events(),
		Mic:     deps.Mic,
		Agent:   agent,
		Lesson:  lsn,
		OnChange: func(st session.State) {
			deps.Post(stateMsg{state: st})
		},
	})
	s.state = s.ctrl.Snapshot()
	return s
}

func (s *LessonScreen) Init() tea.Cmd {
	return nil
}

// Cleanup tears the session down when the screen leaves the stack.
func (s *LessonScreen) Cleanup() {
	s.ctrl.Close()
}

func (s *LessonScreen) startSession() tea.Cmd {
	if s.starting || s.state.Started {
		return nil
	}
	s.starting = true
	s.errText = ""
	ctrl := s.ctrl
	return func() tea.Msg {
		return startedMsg{err: ctrl.StartSession(context.Background())}
	}
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		s.state = msg.state
		s.syncChoice()
		return s, nil

	case startedMsg:
		s.starting = false
		if msg.err != nil {
			s.errText = startErrorText(msg.err)
		}
		s.state = s.ctrl.Snapshot()
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *LessonScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "m":
		if s.state.Mode == session.ModeSlide {
			s.ctrl.ToggleMute()
			s.state = s.ctrl.Snapshot()
			return s, nil
		}
	case "+", "=":
		if s.state.Mode == session.ModeSlide {
			s.ctrl.SetVolume(s.state.Volume + volumeStep)
			s.state = s.ctrl.Snapshot()
			return s, nil
		}
	case "-":
		if s.state.Mode == session.ModeSlide {
			s.ctrl.SetVolume(s.state.Volume - volumeStep)
			s.state = s.ctrl.Snapshot()
			return s, nil
		}
	case "r":
		// After a failed quiz load the questions can be retried without
		// reopening the conversation.
		if s.quizRetryable() {
			s.ctrl.StartQuiz(context.Background())
			s.state = s.ctrl.Snapshot()
			s.syncChoice()
			return s, nil
		}
	case "esc":
		if s.state.Started {
			// First escape ends the conversation and moves to the quiz;
			// the screen itself stays.
			s.ctrl.EndSession(context.Background())
			s.state = s.ctrl.Snapshot()
			s.syncChoice()
			return s, nil
		}
		return s, nil
	}

	switch s.state.Mode {
	case session.ModeSlide:
		if msg.String() == "enter" && !s.state.Started {
			return s, s.startSession()
		}
	case session.ModeQuiz:
		return s.updateQuiz(msg)
	case session.ModeComplete:
		if msg.String() == "enter" {
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *LessonScreen) updateQuiz(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.state.Quiz.Current == nil || s.choice.Submitted {
		return s, nil
	}

	var cmd tea.Cmd
	s.choice, cmd = s.choice.Update(msg)
	if s.choice.Submitted {
		if err := s.ctrl.SubmitQuizAnswer(s.choice.Chosen()); err != nil {
			// Rejected (feedback window or phase change): undo the local
			// submit so the component matches the engine.
			s.choice.Submitted = false
			s.choice.ChosenIndex = -1
		}
		s.state = s.ctrl.Snapshot()
	}
	return s, cmd
}

// syncChoice rebuilds the answer component when the quiz advances.
func (s *LessonScreen) syncChoice() {
	q := s.state.Quiz.Current
	if q == nil {
		return
	}
	if s.state.Quiz.Index == s.choiceIndex {
		return
	}
	correct := 0
	for i, opt := range q.Options {
		if opt == q.CorrectAnswer {
			correct = i
			break
		}
	}
	s.choice = components.NewMultiChoice(q.Question, []string(q.Options), correct)
	s.choiceIndex = s.state.Quiz.Index
}

func (s *LessonScreen) View(width, height int) string {
	var body string
	switch s.state.Mode {
	case session.ModeSlide:
		body = s.viewSlide(width)
	case session.ModeQuiz:
		body = s.viewQuiz(width)
	case session.ModeComplete:
		body = s.viewComplete()
	}

	parts := []string{body}
	if s.errText != "" {
		parts = append(parts, "", theme.Incorrect.Render(s.errText))
	}
	if s.state.Err != "" {
		parts = append(parts, "", theme.Incorrect.Render(s.state.Err))
		if s.quizRetryable() {
			parts = append(parts, theme.Hint.Render("Press R to retry the quiz."))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (s *LessonScreen) viewSlide(width int) string {
	cardWidth := width - 10
	if cardWidth > 72 {
		cardWidth = 72
	}

	if !s.state.Started {
		label := "Start Conversation"
		if s.starting {
			label = "Connecting..."
		}
		btn := components.NewButton(label, !s.starting, nil)
		return lipgloss.JoinVertical(lipgloss.Center,
			theme.Title.Render(s.lesson.Title),
			theme.Subtitle.Render("with "+s.agent.Name),
			"",
			theme.Hint.Render(fmt.Sprintf("%d sections, then a short quiz", len(s.lesson.Sections))),
			"",
			btn.View(),
		)
	}

	var slideBody string
	if s.state.Slide != nil {
		slideBody = theme.Body.Render(s.state.Slide.Text) + "\n\n" +
			theme.Hint.Render("Illustration: "+s.state.Slide.ImageURL)
	} else {
		slideBody = theme.Hint.Render("Your tutor is getting ready. Slides appear here as the lesson unfolds.")
	}

	indicator := theme.Hint.Render("listening")
	if s.state.Speaking {
		indicator = theme.Speaking.Render("● " + s.agent.Name + " is speaking")
	}
	audio := fmt.Sprintf("volume %d%%", int(s.state.Volume*100+0.5))
	if s.state.Muted {
		audio = "muted"
		indicator = theme.Muted.Render(indicator)
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		theme.Title.Render(s.lesson.Title),
		"",
		theme.Card.Width(cardWidth).Render(slideBody),
		"",
		indicator,
		theme.Hint.Render(audio),
	)
}

func (s *LessonScreen) viewQuiz(width int) string {
	snap := s.state.Quiz

	barWidth := width / 2
	if barWidth > 48 {
		barWidth = 48
	}
	var percent float64
	if snap.Total > 0 {
		percent = float64(snap.Index) / float64(snap.Total)
	}
	bar := components.NewProgressBar(
		fmt.Sprintf("Question %d of %d", snap.Index+1, snap.Total),
		percent, false, barWidth,
	)

	parts := []string{
		theme.Title.Render("Quiz Time"),
		"",
		bar.View(),
		"",
	}

	if snap.Current != nil {
		parts = append(parts, s.choice.View())
	}
	if snap.Feedback != "" {
		style := theme.Incorrect
		if s.choice.IsCorrect() {
			style = theme.Correct
		}
		parts = append(parts, "", style.Render(snap.Feedback))
	}

	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (s *LessonScreen) viewComplete() string {
	snap := s.state.Quiz
	score := theme.Hint.Render("No quiz questions this time.")
	if snap.Total > 0 {
		score = theme.Body.Render(fmt.Sprintf("You answered %d of %d correctly.", snap.Correct, snap.Total))
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		theme.Title.Render("Lesson Complete!"),
		theme.Subtitle.Render(s.lesson.Title),
		"",
		score,
		"",
		components.NewButton("Back to Home", true, nil).View(),
	)
}

func (s *LessonScreen) Title() string {
	return s.lesson.Title
}

// WantsEsc holds the escape key while the conversation is live so the
// first press ends the lesson instead of leaving the screen.
func (s *LessonScreen) WantsEsc() bool {
	return s.state.Started
}

// quizRetryable reports whether a failed quiz load can be retried here.
func (s *LessonScreen) quizRetryable() bool {
	return s.state.Mode == session.ModeSlide && !s.state.Started && s.state.Err != ""
}

// KeyHints provides the footer hints for the current phase.
func (s *LessonScreen) KeyHints() []layout.KeyHint {
	switch s.state.Mode {
	case session.ModeQuiz:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Answer"},
		}
	case session.ModeComplete:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Home"},
		}
	}
	if s.state.Started {
		return []layout.KeyHint{
			{Key: "M", Description: "Mute"},
			{Key: "+/-", Description: "Volume"},
			{Key: "Esc", Description: "End lesson"},
		}
	}
	if s.quizRetryable() {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry quiz"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func startErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrMicrophoneDenied):
		return "Microphone unavailable. Enable audio capture and try again."
	case errors.Is(err, session.ErrAlreadyStarted):
		return "The conversation is already running."
	case err == nil:
		return ""
	}
	return "Could not start the conversation: " + err.Error()
}
