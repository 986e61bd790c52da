package cmd

import (
	"fmt"
	"os"

	"github.com/abodnar/clio/internal/app"
	"github.com/abodnar/clio/internal/lessons"
	"github.com/abodnar/clio/internal/llm"
	"github.com/abodnar/clio/internal/slides"
	"github.com/abodnar/clio/internal/store"
	"github.com/abodnar/clio/internal/voice"
	"github.com/spf13/cobra"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts := app.Options{
		Store: st,
		Voice: voice.NewSession(),
		Mic:   voice.RequestMicrophonePermission,
	}

	// Lesson generation needs an LLM provider; without one the app can
	// still teach lessons that are already stored.
	provider, err := llm.NewProviderFromEnv(ctx, st.Events())
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Lesson generation will be unavailable.")
	} else {
		opts.Lessons = lessons.NewService(provider, st.Lessons(), st.Quizzes(), lessons.DefaultConfig())
	}

	if images, err := slides.NewImageProvider(ctx, slides.ConfigFromEnv()); err != nil {
		fmt.Fprintln(os.Stderr, "Image provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Lessons will run without slide illustrations.")
	} else {
		opts.Slides = slides.NewPipeline(images, st.Lessons())
	}

	if key := voiceAPIKey(); key != "" {
		opts.URLs = voice.NewSignedURLClient(key, os.Getenv("CLIO_VOICE_API_URL"))
	} else {
		fmt.Fprintln(os.Stderr, "Voice service not configured: set CLIO_VOICE_API_KEY.")
		fmt.Fprintln(os.Stderr, "Live conversations will be unavailable.")
	}

	return app.Run(opts)
}

func voiceAPIKey() string {
	for _, env := range []string{"CLIO_VOICE_API_KEY", "ELEVENLABS_API_KEY"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}
