package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abodnar/clio/internal/quiz"
	"github.com/abodnar/clio/internal/slides"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/tutor"
	"github.com/abodnar/clio/internal/voice"
)

// Tool names the live agent may invoke.
const (
	ToolGenerateSlide = "generate_slide"
	ToolEndLesson     = "end_lesson"
)

const unmuteFallbackVolume = 0.5

var (
	// ErrAlreadyStarted is returned by StartSession while a conversation
	// for this controller is live.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrMicrophoneDenied is returned when audio capture is unavailable.
	ErrMicrophoneDenied = errors.New("microphone unavailable")
	// ErrNotInQuiz is returned by SubmitQuizAnswer outside quiz mode.
	ErrNotInQuiz = errors.New("session not in quiz mode")
)

// Conversation is the slice of voice.Session the controller drives.
type Conversation interface {
	Start(ctx context.Context, opts voice.StartOptions) error
	Stop()
	SetVolume(v float64)
	Active() bool
}

// SignedURLGetter fetches the connection URL for an agent.
type SignedURLGetter interface {
	Get(ctx context.Context, agentID string) (string, error)
}

// SlideGenerator produces a slide from the tool parameters.
type SlideGenerator interface {
	Generate(ctx context.Context, text, imageDescription, sectionID string) (slides.Slide, error)
}

// MicProber reports whether audio capture is available.
type MicProber func(ctx context.Context) bool

// Deps wires a controller. Events may be nil; everything else is required
// except Mic, which defaults to voice.RequestMicrophonePermission.
type Deps struct {
	Voice    Conversation
	URLs     SignedURLGetter
	Slides   SlideGenerator
	Quizzes  store.QuizRepo
	Events   store.EventRepo
	Mic      MicProber
	Agent    tutor.Agent
	Lesson   *store.Lesson
	OnChange func(State)

	// QuizFeedbackDelay overrides the quiz feedback window; zero keeps
	// the quiz package default.
	QuizFeedbackDelay time.Duration
}

// Controller is the sole owner of a lesson session's mutable state. One
// controller serves one lesson run; create a fresh one per run.
//
// Mode moves strictly forward: slide, then quiz, then complete. Ending
// the conversation (agent tool call, disconnect, or user stop) enters
// quiz mode; finishing the quiz enters complete.
type Controller struct {
	deps Deps

	mu        sync.Mutex
	state     State
	engine    *quiz.Engine
	lastAudio float64 // volume to restore on unmute
	gen       uint64  // bumped on start and teardown to fence async results
	sessionID string
	starting  bool // a StartSession bootstrap is in flight
	closed    bool
}

// NewController creates an idle controller with volume at full.
func NewController(deps Deps) *Controller {
	if deps.Mic == nil {
		deps.Mic = voice.RequestMicrophonePermission
	}
	return &Controller{
		deps:      deps,
		state:     State{Mode: ModeSlide, Volume: 1.0},
		lastAudio: 1.0,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartSession checks the microphone, fetches a signed URL, and opens the
// voice conversation with the lesson prompt and tool handlers. A second
// call while the conversation is live, or while another start is still
// bootstrapping, returns ErrAlreadyStarted without touching any state.
func (c *Controller) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("session controller closed")
	}
	// Only one bootstrap may be in flight; otherwise a losing start would
	// consume a generation and fence out the live conversation's handlers.
	if c.state.Started || c.starting {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.starting = true
	c.gen++
	gen := c.gen
	c.sessionID = uuid.NewString()
	sessionID := c.sessionID
	agent := c.deps.Agent
	lesson := c.deps.Lesson
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	if !c.deps.Mic(ctx) {
		return ErrMicrophoneDenied
	}
	if c.deps.URLs == nil {
		return errors.New("voice service not configured; set CLIO_VOICE_API_KEY")
	}

	signedURL, err := c.deps.URLs.Get(ctx, agent.ID)
	if err != nil {
		c.recordEvent(sessionID, store.SessionEventError, err.Error())
		return err
	}

	opts := voice.StartOptions{
		SignedURL:    signedURL,
		SystemPrompt: tutor.BuildSystemPrompt(agent, lesson.Sections),
		FirstMessage: agent.FirstMessage,
		Tools: voice.ToolHandlerMap{
			ToolGenerateSlide: c.handleGenerateSlide(gen),
			ToolEndLesson:     c.handleEndLesson(gen),
		},
		Callbacks: voice.Callbacks{
			OnSpeaking:   func(speaking bool) { c.setSpeaking(gen, speaking) },
			OnDisconnect: func() { c.conversationEnded(gen) },
			OnError:      func(err error) { c.noteError(gen, err) },
		},
	}
	if err := c.deps.Voice.Start(ctx, opts); err != nil {
		if errors.Is(err, voice.ErrSessionActive) {
			return ErrAlreadyStarted
		}
		c.recordEvent(sessionID, store.SessionEventError, err.Error())
		return err
	}

	c.mu.Lock()
	if c.closed {
		// Closed while the bootstrap was in flight.
		c.mu.Unlock()
		c.deps.Voice.Stop()
		return errors.New("session controller closed")
	}
	c.state.Started = true
	c.state.Err = ""
	volume := c.state.Volume
	c.mu.Unlock()

	c.deps.Voice.SetVolume(volume)
	c.recordEvent(sessionID, store.SessionEventStarted, lesson.Title)
	c.notify()
	return nil
}

// EndSession stops the conversation and moves to the quiz. Calling it
// when nothing is running, or calling it twice, is a no-op.
func (c *Controller) EndSession(ctx context.Context) {
	c.mu.Lock()
	started := c.state.Started
	sessionID := c.sessionID
	c.mu.Unlock()

	if !started {
		return
	}
	c.deps.Voice.Stop()
	c.recordEvent(sessionID, store.SessionEventEnded, "user stop")

	c.mu.Lock()
	c.state.Started = false
	c.state.Speaking = false
	c.mu.Unlock()

	c.enterQuiz(ctx)
	c.notify()
}

// SetVolume applies a playback volume in [0, 1]. Zero means muted; any
// positive value clears the mute and becomes the restore point.
func (c *Controller) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	c.mu.Lock()
	c.state.Volume = v
	c.state.Muted = v == 0
	if v > 0 {
		c.lastAudio = v
	}
	c.mu.Unlock()

	c.deps.Voice.SetVolume(v)
	c.notify()
}

// ToggleMute flips between silence and the last audible volume. If no
// audible volume was ever set it restores to a sensible default.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	var v float64
	if c.state.Muted {
		v = c.lastAudio
		if v == 0 {
			v = unmuteFallbackVolume
		}
	}
	c.state.Volume = v
	c.state.Muted = v == 0
	c.mu.Unlock()

	c.deps.Voice.SetVolume(v)
	c.notify()
}

// StartQuiz retries the slide-to-quiz transition after a failed question
// load. It is a no-op while the conversation is live or once the quiz has
// already begun.
func (c *Controller) StartQuiz(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.state.Started || c.state.Mode != ModeSlide {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.enterQuiz(ctx)
	c.notify()
}

// SubmitQuizAnswer grades an answer for the current question. Submissions
// outside quiz mode or during the feedback window are rejected.
func (c *Controller) SubmitQuizAnswer(answer string) error {
	c.mu.Lock()
	engine := c.engine
	inQuiz := c.state.Mode == ModeQuiz
	c.mu.Unlock()

	if !inQuiz || engine == nil {
		return ErrNotInQuiz
	}
	_, err := engine.Submit(answer)
	return err
}

// Close tears the session down for good: the conversation stops, the
// quiz timer is cancelled, and results from still-running tool calls are
// dropped. The controller cannot be restarted afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.state.Started = false
	c.state.Speaking = false
	engine := c.engine
	c.mu.Unlock()

	c.deps.Voice.Stop()
	if engine != nil {
		engine.Close()
	}
}

// handleGenerateSlide returns the tool handler for one conversation
// generation. Results arriving after that conversation is gone are
// discarded without touching state.
func (c *Controller) handleGenerateSlide(gen uint64) voice.ToolHandler {
	return func(ctx context.Context, params map[string]any) (string, error) {
		text, _ := params["text"].(string)
		imageDescription, _ := params["image_description"].(string)

		if c.deps.Slides == nil {
			return "Failed to generate slide", errors.New("no image provider configured")
		}
		slide, err := c.deps.Slides.Generate(ctx, text, imageDescription, c.sectionIDFor(text))
		if err != nil {
			c.noteError(gen, err)
			return "Failed to generate slide", err
		}

		c.mu.Lock()
		stale := c.gen != gen || c.state.Mode != ModeSlide
		if !stale {
			c.state.Slide = &slide
		}
		sessionID := c.sessionID
		c.mu.Unlock()

		if stale {
			return "Failed to generate slide", errors.New("session no longer showing slides")
		}
		c.recordEvent(sessionID, store.SessionEventSlide, slide.ImageURL)
		c.notify()
		return fmt.Sprintf("Generated slide with text: %q and image: %s", text, slide.ImageURL), nil
	}
}

// handleEndLesson returns the tool handler that lets the agent close the
// teaching phase itself.
func (c *Controller) handleEndLesson(gen uint64) voice.ToolHandler {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		go func() {
			c.deps.Voice.Stop()
			c.conversationEnded(gen)
		}()
		return "Lesson ended", nil
	}
}

// conversationEnded handles both agent-initiated and transport-initiated
// disconnects for the given conversation generation.
func (c *Controller) conversationEnded(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || !c.state.Started {
		c.mu.Unlock()
		return
	}
	c.state.Started = false
	c.state.Speaking = false
	sessionID := c.sessionID
	c.mu.Unlock()

	c.recordEvent(sessionID, store.SessionEventEnded, "conversation ended")
	c.enterQuiz(context.Background())
	c.notify()
}

// enterQuiz moves slide mode into the quiz. The transition is monotonic;
// a failed question load leaves the mode untouched so the caller can
// surface the error and retry.
func (c *Controller) enterQuiz(ctx context.Context) {
	c.mu.Lock()
	if c.state.Mode != ModeSlide {
		c.mu.Unlock()
		return
	}
	lessonID := c.deps.Lesson.ID
	sessionID := c.sessionID
	c.mu.Unlock()

	questions, err := c.deps.Quizzes.Questions(ctx, lessonID)
	if err != nil {
		c.recordEvent(sessionID, store.SessionEventError, fmt.Sprintf("load quiz: %v", err))
		c.mu.Lock()
		c.state.Err = "Could not load the quiz."
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.state.Mode = ModeQuiz
	c.state.Err = ""
	c.mu.Unlock()
	c.recordEvent(sessionID, store.SessionEventQuiz, fmt.Sprintf("%d questions", len(questions)))

	engine := quiz.NewEngine(questions, quiz.Options{
		FeedbackDelay: c.deps.QuizFeedbackDelay,
		OnChange:      c.syncQuiz,
		OnComplete:    c.quizCompleted,
	})

	c.mu.Lock()
	c.engine = engine
	c.state.Quiz = engine.Snapshot()
	c.mu.Unlock()
}

// syncQuiz refreshes the quiz snapshot after an engine state change.
func (c *Controller) syncQuiz() {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return
	}
	snap := engine.Snapshot()

	c.mu.Lock()
	c.state.Quiz = snap
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) quizCompleted() {
	c.mu.Lock()
	if c.state.Mode == ModeComplete {
		c.mu.Unlock()
		return
	}
	c.state.Mode = ModeComplete
	if c.engine != nil {
		c.state.Quiz = c.engine.Snapshot()
	} else {
		c.state.Quiz.Completed = true
	}
	sessionID := c.sessionID
	score := fmt.Sprintf("%d/%d correct", c.state.Quiz.Correct, c.state.Quiz.Total)
	c.mu.Unlock()

	c.recordEvent(sessionID, store.SessionEventComplete, score)
	c.notify()
}

func (c *Controller) setSpeaking(gen uint64, speaking bool) {
	c.mu.Lock()
	if c.gen != gen || !c.state.Started {
		c.mu.Unlock()
		return
	}
	changed := c.state.Speaking != speaking
	c.state.Speaking = speaking
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

func (c *Controller) noteError(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.state.Err = err.Error()
	sessionID := c.sessionID
	c.mu.Unlock()

	c.recordEvent(sessionID, store.SessionEventError, err.Error())
	c.notify()
}

// sectionIDFor locates the lesson section whose content the agent is
// narrating so the generated slide can be stored against it. Unmatched
// text still produces a slide, just not a persisted one.
func (c *Controller) sectionIDFor(text string) string {
	for _, sec := range c.deps.Lesson.Sections {
		if sec.Content == text || sec.Title == text {
			return sec.ID
		}
	}
	return ""
}

func (c *Controller) recordEvent(sessionID, kind, message string) {
	if c.deps.Events == nil {
		return
	}
	_ = c.deps.Events.RecordSession(context.Background(), sessionID, kind, message)
}

func (c *Controller) notify() {
	if c.deps.OnChange == nil {
		return
	}
	c.mu.Lock()
	snap := c.state
	c.mu.Unlock()
	c.deps.OnChange(snap)
}
