// Package tutor defines the three tutor personas and assembles the system
// prompt handed to the voice conversation service.
package tutor

import "os"

// Personality keys.
const (
	Friendly = "friendly"
	Strict   = "strict"
	Funny    = "funny"
)

// Agent is a tutor persona: a voice identity plus its prompt and opening
// line. Selected once per session and immutable for its duration.
type Agent struct {
	// ID is the voice service agent identifier used for the signed URL.
	ID string

	// Personality is the persona key (friendly, strict, funny).
	Personality string

	Name         string
	Description  string
	Prompt       string
	FirstMessage string
}

var agents = map[string]Agent{
	Friendly: {
		ID:          envOr("CLIO_AGENT_FRIENDLY", "agent_friendly_default"),
		Personality: Friendly,
		Name:        "Professor Hart",
		Description: "Warm and encouraging, perfect for a supportive learning experience",
		Prompt: "You are Professor Hart, a warm and endlessly encouraging history tutor. " +
			"You celebrate every bit of progress, relate historical events to everyday life, " +
			"and never make the student feel bad for not knowing something.",
		FirstMessage: "Hello there! I'm Professor Hart, and I'm so excited to explore history with you today. Shall we begin?",
	},
	Strict: {
		ID:          envOr("CLIO_AGENT_STRICT", "agent_strict_default"),
		Personality: Strict,
		Name:        "Dr. Stern",
		Description: "Focused and disciplined, ideal for structured learning",
		Prompt: "You are Dr. Stern, a rigorous and disciplined history tutor. " +
			"You value precision, expect attention, and correct mistakes directly but fairly. " +
			"You keep the lesson moving and insist on exact dates and names.",
		FirstMessage: "Good day. I am Dr. Stern. We have a great deal of history to cover, so let us not waste time.",
	},
	Funny: {
		ID:          envOr("CLIO_AGENT_FUNNY", "agent_funny_default"),
		Personality: Funny,
		Name:        "Max Chuckleworth",
		Description: "Light-hearted and engaging, making learning fun and memorable",
		Prompt: "You are Max Chuckleworth, a history tutor who believes laughter is the best mnemonic. " +
			"You pepper the lesson with jokes and absurd comparisons while keeping the facts accurate.",
		FirstMessage: "Hey hey! Max Chuckleworth here. Ready to find out why history is way funnier than they told you in school?",
	},
}

// Get returns the agent for a personality key. Unknown keys fall back to
// the friendly persona.
func Get(personality string) Agent {
	if a, ok := agents[personality]; ok {
		return a
	}
	return agents[Friendly]
}

// All returns the three personas in presentation order.
func All() []Agent {
	return []Agent{agents[Friendly], agents[Strict], agents[Funny]}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
