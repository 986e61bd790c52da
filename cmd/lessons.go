package cmd

import (
	"fmt"

	"github.com/abodnar/clio/internal/lessons"
	"github.com/abodnar/clio/internal/llm"
	"github.com/abodnar/clio/internal/store"
	"github.com/spf13/cobra"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Manage stored lessons",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		all, err := st.Lessons().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list lessons: %w", err)
		}
		if len(all) == 0 {
			fmt.Println("No lessons yet. Run `clio lessons generate <topic>` or start one in the app.")
			return nil
		}
		for _, l := range all {
			fmt.Printf("%s  %-40s %s\n", l.CreatedAt.Format("2006-01-02"), l.Title, l.Difficulty)
		}
		return nil
	},
}

var lessonsGenerateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a lesson without opening the app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		difficulty, _ := cmd.Flags().GetString("difficulty")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		provider, err := llm.NewProviderFromEnv(cmd.Context(), st.Events())
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}

		svc := lessons.NewService(provider, st.Lessons(), st.Quizzes(), lessons.DefaultConfig())
		lesson, err := svc.Generate(cmd.Context(), topic, difficulty)
		if err != nil {
			return fmt.Errorf("generate lesson: %w", err)
		}

		fmt.Printf("Generated %q: %d sections, %d quiz questions.\n",
			lesson.Title, len(lesson.Sections), len(lesson.Questions))
		return nil
	},
}

func init() {
	lessonsGenerateCmd.Flags().String("difficulty", store.DifficultyMedium, "Lesson difficulty (easy, medium, hard)")
	lessonsCmd.AddCommand(lessonsListCmd)
	lessonsCmd.AddCommand(lessonsGenerateCmd)
}
