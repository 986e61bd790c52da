// Package voice owns the real-time tutor conversation: microphone
// bootstrap, the signed connection URL, and the single live websocket
// session with its callback and tool dispatch.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// RequestMicrophonePermission reports whether audio capture is available.
// It never fails; denial is communicated via the boolean. Terminal builds
// have no OS permission prompt, so CLIO_MIC=off/deny/0/false simulates a
// denied microphone.
func RequestMicrophonePermission(_ context.Context) bool {
	switch strings.ToLower(os.Getenv("CLIO_MIC")) {
	case "off", "deny", "0", "false":
		return false
	}
	return true
}

// ErrSignedURL indicates the signed-URL fetch failed or the response was
// missing the token field.
type ErrSignedURL struct {
	AgentID string
	Err     error
}

func (e *ErrSignedURL) Error() string {
	return fmt.Sprintf("get signed URL for agent %s: %v", e.AgentID, e.Err)
}

func (e *ErrSignedURL) Unwrap() error { return e.Err }

// SignedURLClient fetches short-lived, single-use connection URLs from the
// voice service, keeping the long-lived API key out of the session layer.
type SignedURLClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSignedURLClient creates a client for the voice service REST API.
// baseURL is optional and defaults to the hosted service.
func NewSignedURLClient(apiKey, baseURL string) *SignedURLClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &SignedURLClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Get requests a signed websocket URL for the given agent identity.
func (c *SignedURLClient) Get(ctx context.Context, agentID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/convai/conversation/get_signed_url?agent_id=%s",
		c.baseURL, url.QueryEscape(agentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &ErrSignedURL{AgentID: agentID, Err: err}
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ErrSignedURL{AgentID: agentID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &ErrSignedURL{AgentID: agentID, Err: fmt.Errorf("voice service returned %s: %s", resp.Status, body)}
	}

	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ErrSignedURL{AgentID: agentID, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.SignedURL == "" {
		return "", &ErrSignedURL{AgentID: agentID, Err: fmt.Errorf("response missing signed_url")}
	}

	return out.SignedURL, nil
}
