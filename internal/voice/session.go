package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrSessionActive is returned by Start while a conversation is already
// running. Sessions hold at most one live connection.
var ErrSessionActive = fmt.Errorf("voice session already active")

// ErrConnection wraps websocket dial and transport failures.
type ErrConnection struct {
	Err error
}

func (e *ErrConnection) Error() string { return fmt.Sprintf("voice connection: %v", e.Err) }
func (e *ErrConnection) Unwrap() error { return e.Err }

// ToolHandler executes a client tool call and returns the acknowledgement
// text relayed back to the agent. A non-nil error marks the result frame
// as failed but never tears down the conversation.
type ToolHandler func(ctx context.Context, params map[string]any) (string, error)

// ToolHandlerMap maps tool names to handlers.
type ToolHandlerMap map[string]ToolHandler

// Callbacks receive session lifecycle and transcript events. All fields
// are optional. Callbacks are invoked from the session's read goroutine,
// so they must not block.
type Callbacks struct {
	OnConnect    func(conversationID string)
	OnDisconnect func()
	OnAgentText  func(text string)
	OnUserText   func(text string)
	OnSpeaking   func(speaking bool)
	OnError      func(err error)
}

// AudioSink plays decoded agent audio. Playback gain is controlled per
// sink; the terminal build ships a discard sink and a real device sink
// can be swapped in without touching the session.
type AudioSink interface {
	Play(pcm []byte)
	SetGain(gain float64)
}

type nullSink struct{}

func (nullSink) Play([]byte)     {}
func (nullSink) SetGain(float64) {}

// StartOptions configures one conversation.
type StartOptions struct {
	// SignedURL is the single-use websocket URL from SignedURLClient.
	SignedURL string
	// SystemPrompt and FirstMessage override the agent's server-side
	// defaults for this conversation.
	SystemPrompt string
	FirstMessage string
	Tools        ToolHandlerMap
	Callbacks    Callbacks
	// Sink receives agent audio. Nil discards it.
	Sink AudioSink
}

type sessionState int32

const (
	stateIdle sessionState = iota
	stateConnecting
	stateConnected
)

// Session is a restartable voice conversation. Start dials and runs the
// read loop until Stop, a server close, or a transport error; afterwards
// the same Session may be started again.
type Session struct {
	dialer *websocket.Dialer

	state atomic.Int32

	mu        sync.Mutex
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce *sync.Once
	done      chan struct{}

	cb    Callbacks
	tools ToolHandlerMap
	sink  AudioSink

	// volume is remembered across connections; it only reaches the sink
	// while a conversation is live.
	volumeMu sync.Mutex
	volume   float64
}

// NewSession creates an idle session.
func NewSession() *Session {
	return &Session{dialer: websocket.DefaultDialer, volume: 1.0}
}

// Active reports whether a conversation is live or being established.
func (s *Session) Active() bool {
	return sessionState(s.state.Load()) != stateIdle
}

// Start dials the signed URL, sends the conversation overrides, and runs
// the read loop in the background. It returns ErrSessionActive if a
// conversation is already running.
func (s *Session) Start(ctx context.Context, opts StartOptions) error {
	if !s.state.CompareAndSwap(int32(stateIdle), int32(stateConnecting)) {
		return ErrSessionActive
	}

	conn, _, err := s.dialer.DialContext(ctx, toWebsocketURL(opts.SignedURL), nil)
	if err != nil {
		s.state.Store(int32(stateIdle))
		return &ErrConnection{Err: err}
	}

	once := new(sync.Once)
	done := make(chan struct{})

	s.mu.Lock()
	s.conn = conn
	s.closeOnce = once
	s.done = done
	s.cb = opts.Callbacks
	s.tools = opts.Tools
	s.sink = opts.Sink
	if s.sink == nil {
		s.sink = nullSink{}
	}
	s.mu.Unlock()

	init := clientInit{Type: "conversation_initiation_client_data"}
	if opts.SystemPrompt != "" || opts.FirstMessage != "" {
		init.Override = &initOverride{Agent: agentOverride{
			Prompt:       promptOverride{Prompt: opts.SystemPrompt},
			FirstMessage: opts.FirstMessage,
		}}
	}
	if err := s.writeJSON(init); err != nil {
		// No read loop was spawned, so nothing else will ever close the
		// done channel or clear the connection slot.
		s.closeConn(conn, once)
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		close(done)
		return &ErrConnection{Err: err}
	}

	s.volumeMu.Lock()
	s.sink.SetGain(s.volume)
	s.volumeMu.Unlock()

	s.state.Store(int32(stateConnected))
	go s.readLoop(ctx, conn, opts.Callbacks, once, done)
	return nil
}

// SetVolume updates playback gain. It is remembered when idle and takes
// effect when the next conversation starts.
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.volumeMu.Lock()
	s.volume = v
	s.volumeMu.Unlock()

	if sessionState(s.state.Load()) == stateConnected {
		s.mu.Lock()
		sink := s.sink
		s.mu.Unlock()
		if sink != nil {
			sink.SetGain(v)
		}
	}
}

// Stop closes the live conversation and waits for the read loop to drain.
// Stopping an idle session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	s.teardown()
	if done != nil {
		<-done
	}
}

// teardown closes the current connection exactly once and resets to idle.
func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	once := s.closeOnce
	s.mu.Unlock()

	if conn == nil || once == nil {
		return
	}
	s.closeConn(conn, once)
}

func (s *Session) closeConn(conn *websocket.Conn, once *sync.Once) {
	once.Do(func() {
		s.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
		s.writeMu.Unlock()
		_ = conn.Close()
		s.state.Store(int32(stateIdle))
	})
}

// readLoop owns the connection it was spawned with. The close-once and
// done channel are captured at spawn so a quickly restarted session
// cannot have its new state torn down by the previous loop's exit.
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn, cb Callbacks, once *sync.Once, done chan struct{}) {
	defer func() {
		s.closeConn(conn, once)
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()

		if cb.OnSpeaking != nil {
			cb.OnSpeaking(false)
		}
		if cb.OnDisconnect != nil {
			cb.OnDisconnect()
		}
		close(done)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if sessionState(s.state.Load()) != stateIdle {
				s.emitError(&ErrConnection{Err: err})
			}
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.emitError(fmt.Errorf("decode voice frame: %w", err))
			continue
		}
		s.dispatch(ctx, conn, frame)
	}
}

func (s *Session) dispatch(ctx context.Context, conn *websocket.Conn, frame serverFrame) {
	s.mu.Lock()
	cb := s.cb
	sink := s.sink
	s.mu.Unlock()

	switch frame.Type {
	case "conversation_initiation_metadata":
		if frame.InitMetadata != nil && cb.OnConnect != nil {
			cb.OnConnect(frame.InitMetadata.ConversationID)
		}

	case "ping":
		if frame.PingEvent != nil {
			_ = s.writeJSON(clientPong{Type: "pong", EventID: frame.PingEvent.EventID})
		}

	case "audio":
		if frame.AudioEvent != nil {
			if cb.OnSpeaking != nil {
				cb.OnSpeaking(true)
			}
			if pcm, err := base64.StdEncoding.DecodeString(frame.AudioEvent.AudioBase64); err == nil {
				sink.Play(pcm)
			}
		}

	case "agent_response":
		if frame.AgentResponse != nil && cb.OnAgentText != nil {
			cb.OnAgentText(frame.AgentResponse.AgentResponse)
		}

	case "user_transcript":
		if frame.UserTranscript != nil {
			if cb.OnSpeaking != nil {
				cb.OnSpeaking(false)
			}
			if cb.OnUserText != nil {
				cb.OnUserText(frame.UserTranscript.UserTranscript)
			}
		}

	case "interruption":
		if cb.OnSpeaking != nil {
			cb.OnSpeaking(false)
		}

	case "client_tool_call":
		if frame.ToolCall != nil {
			go s.runTool(ctx, conn, frame.ToolCall.ToolName, frame.ToolCall.ToolCallID, frame.ToolCall.Parameters)
		}

	case "error":
		if frame.Error != nil {
			s.emitError(fmt.Errorf("voice service error: %s", frame.Error.Message))
		}
	}
}

// runTool executes a tool handler off the read loop so slow tools (image
// generation) do not stall transcript delivery, and sends the result frame.
// The result goes to the connection that carried the call; if that
// connection is gone by then, even to a restarted one, it is dropped.
func (s *Session) runTool(ctx context.Context, conn *websocket.Conn, name, callID string, raw json.RawMessage) {
	s.mu.Lock()
	handler := s.tools[name]
	s.mu.Unlock()

	result := clientToolResult{Type: "client_tool_result", ToolCallID: callID}

	switch {
	case handler == nil:
		result.Result = fmt.Sprintf("Unknown tool: %s", name)
		result.IsError = true
	default:
		var params map[string]any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				result.Result = "Invalid tool parameters"
				result.IsError = true
				break
			}
		}
		ack, err := handler(ctx, params)
		result.Result = ack
		if err != nil {
			result.IsError = true
			if ack == "" {
				result.Result = err.Error()
			}
		}
	}

	s.mu.Lock()
	live := s.conn == conn
	s.mu.Unlock()
	if !live || sessionState(s.state.Load()) != stateConnected {
		// The conversation ended while the tool ran; drop the result.
		return
	}

	s.writeMu.Lock()
	err := conn.WriteJSON(result)
	s.writeMu.Unlock()
	if err != nil {
		s.emitError(fmt.Errorf("send tool result: %w", err))
	}
}

func (s *Session) writeJSON(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (s *Session) emitError(err error) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

func closeDeadline() time.Time { return time.Now().Add(2 * time.Second) }

// toWebsocketURL rewrites an http(s) signed URL to the ws scheme. Signed
// URLs from the service already use wss, so this is usually a no-op.
func toWebsocketURL(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
