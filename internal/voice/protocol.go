package voice

import "encoding/json"

// Wire frames for the conversational voice protocol. Client frames carry a
// type tag plus one payload; server frames are decoded by type tag.

type clientInit struct {
	Type     string        `json:"type"`
	Override *initOverride `json:"conversation_config_override,omitempty"`
}

type initOverride struct {
	Agent agentOverride `json:"agent"`
}

type agentOverride struct {
	Prompt       promptOverride `json:"prompt"`
	FirstMessage string         `json:"first_message,omitempty"`
}

type promptOverride struct {
	Prompt string `json:"prompt"`
}

type clientPong struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
}

type clientToolResult struct {
	Type       string `json:"type"`
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
}

// serverFrame is the envelope every inbound frame shares.
type serverFrame struct {
	Type string `json:"type"`

	InitMetadata *struct {
		ConversationID string `json:"conversation_id"`
		AudioFormat    string `json:"agent_output_audio_format"`
	} `json:"conversation_initiation_metadata_event,omitempty"`

	AudioEvent *struct {
		AudioBase64 string `json:"audio_base_64"`
		EventID     int64  `json:"event_id"`
	} `json:"audio_event,omitempty"`

	AgentResponse *struct {
		AgentResponse string `json:"agent_response"`
	} `json:"agent_response_event,omitempty"`

	UserTranscript *struct {
		UserTranscript string `json:"user_transcript"`
	} `json:"user_transcription_event,omitempty"`

	ToolCall *struct {
		ToolName   string          `json:"tool_name"`
		ToolCallID string          `json:"tool_call_id"`
		Parameters json.RawMessage `json:"parameters"`
	} `json:"client_tool_call,omitempty"`

	PingEvent *struct {
		EventID int64 `json:"event_id"`
		PingMs  int64 `json:"ping_ms"`
	} `json:"ping_event,omitempty"`

	Error *struct {
		Message string `json:"message"`
	} `json:"error_event,omitempty"`
}
