package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// voiceServer is a scripted conversation endpoint for session tests.
type voiceServer struct {
	t       *testing.T
	srv     *httptest.Server
	mu      sync.Mutex
	inbound []map[string]any
	conns   chan *websocket.Conn
}

func newVoiceServer(t *testing.T) *voiceServer {
	vs := &voiceServer{t: t, conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}

	vs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		vs.conns <- conn
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			vs.mu.Lock()
			vs.inbound = append(vs.inbound, msg)
			vs.mu.Unlock()
		}
	}))
	t.Cleanup(vs.srv.Close)
	return vs
}

func (vs *voiceServer) url() string {
	return "ws" + strings.TrimPrefix(vs.srv.URL, "http")
}

func (vs *voiceServer) conn() *websocket.Conn {
	select {
	case c := <-vs.conns:
		return c
	case <-time.After(2 * time.Second):
		vs.t.Fatal("client never connected")
		return nil
	}
}

func (vs *voiceServer) send(conn *websocket.Conn, frame string) {
	require.NoError(vs.t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// received waits until a client frame of the given type arrives.
func (vs *voiceServer) received(typ string) map[string]any {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		vs.mu.Lock()
		for _, msg := range vs.inbound {
			if msg["type"] == typ {
				vs.mu.Unlock()
				return msg
			}
		}
		vs.mu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	vs.t.Fatalf("no %q frame received", typ)
	return nil
}

func TestSessionStartSendsOverrides(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	err := s.Start(context.Background(), StartOptions{
		SignedURL:    vs.url(),
		SystemPrompt: "You are a history tutor.",
		FirstMessage: "Shall we begin?",
	})
	require.NoError(t, err)
	vs.conn()

	init := vs.received("conversation_initiation_client_data")
	override := init["conversation_config_override"].(map[string]any)
	agent := override["agent"].(map[string]any)
	require.Equal(t, "Shall we begin?", agent["first_message"])
	require.Equal(t, "You are a history tutor.",
		agent["prompt"].(map[string]any)["prompt"])
}

func TestSessionRejectsSecondStart(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	err := s.Start(context.Background(), StartOptions{SignedURL: vs.url()})
	require.ErrorIs(t, err, ErrSessionActive)
}

func TestSessionDialFailure(t *testing.T) {
	s := NewSession()
	err := s.Start(context.Background(), StartOptions{SignedURL: "ws://127.0.0.1:1/nope"})

	var connErr *ErrConnection
	require.ErrorAs(t, err, &connErr)
	require.False(t, s.Active())

	// A failed dial leaves the session restartable.
	vs := newVoiceServer(t)
	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	s.Stop()
}

func TestStopReturnsAfterFailedInitWrite(t *testing.T) {
	// The server accepts the upgrade and immediately drops the TCP
	// connection, so the conversation-init write fails before any read
	// loop exists to release the session.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.NetConn().Close()
	}))
	t.Cleanup(srv.Close)

	s := NewSession()
	_ = s.Start(context.Background(), StartOptions{
		SignedURL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		SystemPrompt: strings.Repeat("x", 1<<20),
	})

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after the failed start")
	}

	// And the session is restartable.
	vs := newVoiceServer(t)
	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	s.Stop()
}

func TestSessionPingPong(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	conn := vs.conn()

	vs.send(conn, `{"type":"ping","ping_event":{"event_id":42,"ping_ms":10}}`)

	pong := vs.received("pong")
	require.EqualValues(t, 42, pong["event_id"])
}

func TestSessionCallbacks(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	var mu sync.Mutex
	var agentText, userText, convID string
	speaking := []bool{}
	disconnected := make(chan struct{})

	err := s.Start(context.Background(), StartOptions{
		SignedURL: vs.url(),
		Callbacks: Callbacks{
			OnConnect:    func(id string) { mu.Lock(); convID = id; mu.Unlock() },
			OnAgentText:  func(text string) { mu.Lock(); agentText = text; mu.Unlock() },
			OnUserText:   func(text string) { mu.Lock(); userText = text; mu.Unlock() },
			OnSpeaking:   func(v bool) { mu.Lock(); speaking = append(speaking, v); mu.Unlock() },
			OnDisconnect: func() { close(disconnected) },
		},
	})
	require.NoError(t, err)
	conn := vs.conn()

	vs.send(conn, `{"type":"conversation_initiation_metadata","conversation_initiation_metadata_event":{"conversation_id":"conv-9"}}`)
	vs.send(conn, `{"type":"audio","audio_event":{"audio_base_64":"AAAA","event_id":1}}`)
	vs.send(conn, `{"type":"agent_response","agent_response_event":{"agent_response":"Rome fell in 476."}}`)
	vs.send(conn, `{"type":"user_transcript","user_transcription_event":{"user_transcript":"Why did it fall?"}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return convID == "conv-9" &&
			agentText == "Rome fell in 476." &&
			userText == "Why did it fall?" &&
			len(speaking) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	require.True(t, speaking[0], "audio must mark the agent speaking")
	require.False(t, speaking[len(speaking)-1], "user transcript must clear it")
	mu.Unlock()

	require.NoError(t, conn.Close())
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect never fired")
	}
	require.False(t, s.Active())
}

func TestSessionToolDispatch(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	err := s.Start(context.Background(), StartOptions{
		SignedURL: vs.url(),
		Tools: ToolHandlerMap{
			"generate_slide": func(_ context.Context, params map[string]any) (string, error) {
				return "Generated slide with text: " + params["text"].(string), nil
			},
		},
	})
	require.NoError(t, err)
	conn := vs.conn()

	call := map[string]any{
		"type": "client_tool_call",
		"client_tool_call": map[string]any{
			"tool_name":    "generate_slide",
			"tool_call_id": "call-1",
			"parameters":   map[string]any{"text": "hello"},
		},
	}
	raw, err := json.Marshal(call)
	require.NoError(t, err)
	vs.send(conn, string(raw))

	result := vs.received("client_tool_result")
	require.Equal(t, "call-1", result["tool_call_id"])
	require.Equal(t, "Generated slide with text: hello", result["result"])
	require.Equal(t, false, result["is_error"])
}

func TestSessionUnknownTool(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	conn := vs.conn()

	vs.send(conn, `{"type":"client_tool_call","client_tool_call":{"tool_name":"mystery","tool_call_id":"call-2","parameters":{}}}`)

	result := vs.received("client_tool_result")
	require.Equal(t, true, result["is_error"])
	require.Contains(t, result["result"], "Unknown tool")
}

func TestStaleToolResultNotSentToRestartedConversation(t *testing.T) {
	vs1 := newVoiceServer(t)
	vs2 := newVoiceServer(t)
	s := NewSession()
	defer s.Stop()

	invoked := make(chan struct{})
	release := make(chan struct{})
	err := s.Start(context.Background(), StartOptions{
		SignedURL: vs1.url(),
		Tools: ToolHandlerMap{
			"generate_slide": func(context.Context, map[string]any) (string, error) {
				close(invoked)
				<-release
				return "late slide", nil
			},
		},
	})
	require.NoError(t, err)
	conn := vs1.conn()

	vs1.send(conn, `{"type":"client_tool_call","client_tool_call":{"tool_name":"generate_slide","tool_call_id":"call-9","parameters":{}}}`)
	select {
	case <-invoked:
	case <-time.After(2 * time.Second):
		t.Fatal("tool never invoked")
	}

	// Restart against a fresh endpoint while the tool is still running,
	// then let it finish. Its result belongs to the dead conversation.
	s.Stop()
	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs2.url()}))
	vs2.conn()
	close(release)

	time.Sleep(50 * time.Millisecond)
	vs2.mu.Lock()
	defer vs2.mu.Unlock()
	for _, msg := range vs2.inbound {
		require.NotEqual(t, "client_tool_result", msg["type"],
			"stale tool result leaked into the new conversation")
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	vs := newVoiceServer(t)
	s := NewSession()

	// Stopping an idle session is a no-op.
	s.Stop()

	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	vs.conn()

	s.Stop()
	s.Stop()
	require.False(t, s.Active())

	// And the session is restartable afterwards.
	require.NoError(t, s.Start(context.Background(), StartOptions{SignedURL: vs.url()}))
	s.Stop()
}

func TestSetVolumeClampsAndRemembers(t *testing.T) {
	s := NewSession()
	s.SetVolume(2.5)
	require.Equal(t, 1.0, s.volume)
	s.SetVolume(-1)
	require.Equal(t, 0.0, s.volume)
	s.SetVolume(0.4)
	require.Equal(t, 0.4, s.volume)
}

func TestToWebsocketURL(t *testing.T) {
	require.Equal(t, "wss://x/y", toWebsocketURL("https://x/y"))
	require.Equal(t, "ws://x/y", toWebsocketURL("http://x/y"))
	require.Equal(t, "wss://x/y", toWebsocketURL("wss://x/y"))
}
