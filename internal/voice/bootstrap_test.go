package voice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignedURLClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/convai/conversation/get_signed_url", r.URL.Path)
		require.Equal(t, "agent-123", r.URL.Query().Get("agent_id"))
		require.Equal(t, "secret-key", r.Header.Get("xi-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signed_url":"wss://live.example/session?token=abc"}`))
	}))
	defer srv.Close()

	c := NewSignedURLClient("secret-key", srv.URL)
	got, err := c.Get(context.Background(), "agent-123")
	require.NoError(t, err)
	require.Equal(t, "wss://live.example/session?token=abc", got)
}

func TestSignedURLClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", http.StatusUnauthorized)
			},
		},
		{
			name: "missing signed_url field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"detail":"ok but wrong shape"}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewSignedURLClient("k", srv.URL)
			_, err := c.Get(context.Background(), "agent-123")
			require.Error(t, err)

			var sigErr *ErrSignedURL
			require.True(t, errors.As(err, &sigErr))
			require.Equal(t, "agent-123", sigErr.AgentID)
		})
	}
}

func TestRequestMicrophonePermission(t *testing.T) {
	t.Setenv("CLIO_MIC", "")
	require.True(t, RequestMicrophonePermission(context.Background()))

	for _, v := range []string{"off", "deny", "0", "false", "OFF"} {
		t.Setenv("CLIO_MIC", v)
		require.False(t, RequestMicrophonePermission(context.Background()), v)
	}
}
