package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abodnar/clio/internal/llm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "clio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleLesson() *Lesson {
	return &Lesson{
		ID:         "lesson-1",
		Title:      "The Fall of Rome",
		Difficulty: DifficultyMedium,
		CreatedAt:  time.Now(),
		Sections: []LessonSection{
			{ID: "sec-2", LessonID: "lesson-1", Title: "Conclusion", Content: "c", SectionType: SectionConclusion, OrderIndex: 2},
			{ID: "sec-0", LessonID: "lesson-1", Title: "Introduction", Content: "a", SectionType: SectionIntro, OrderIndex: 0},
			{ID: "sec-1", LessonID: "lesson-1", Title: "Key Point 1", Content: "b", SectionType: SectionPoint, OrderIndex: 1},
		},
		Questions: []QuizQuestion{
			{ID: "q-1", LessonID: "lesson-1", Question: "Second?", Options: []string{"a", "b"}, CorrectAnswer: "a", Difficulty: DifficultyEasy, OrderIndex: 1},
			{ID: "q-0", LessonID: "lesson-1", Question: "First?", Options: []string{"a", "b"}, CorrectAnswer: "b", Difficulty: DifficultyEasy, OrderIndex: 0},
		},
	}
}

func TestLessonRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Lessons().Create(ctx, sampleLesson()))

	got, err := st.Lessons().ByID(ctx, "lesson-1")
	require.NoError(t, err)
	require.Equal(t, "The Fall of Rome", got.Title)

	// Associations come back in their stored order regardless of insert order.
	require.Len(t, got.Sections, 3)
	for i, sec := range got.Sections {
		require.Equal(t, i, sec.OrderIndex)
	}
	require.Len(t, got.Questions, 2)
	require.Equal(t, "First?", got.Questions[0].Question)
	require.Equal(t, []string{"a", "b"}, []string(got.Questions[0].Options))

	byTitle, err := st.Lessons().ByTitle(ctx, "The Fall of Rome")
	require.NoError(t, err)
	require.Equal(t, got.ID, byTitle.ID)
}

func TestLessonNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Lessons().ByID(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = st.Lessons().ByTitle(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertGeneratedContentLastWriteWins(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Lessons().Create(ctx, sampleLesson()))

	require.NoError(t, st.Lessons().UpsertGeneratedContent(ctx, "sec-0", "first text", "https://img/1.png"))
	require.NoError(t, st.Lessons().UpsertGeneratedContent(ctx, "sec-0", "second text", "https://img/2.png"))

	got, err := st.Lessons().ByID(ctx, "lesson-1")
	require.NoError(t, err)

	gen := got.Sections[0].Generated
	require.NotNil(t, gen)
	require.Equal(t, "second text", gen.GeneratedText)
	require.Equal(t, "https://img/2.png", gen.GeneratedImageURL)
}

func TestQuizReplace(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Lessons().Create(ctx, sampleLesson()))

	fresh := []QuizQuestion{
		{ID: "q-9", LessonID: "lesson-1", Question: "New?", Options: []string{"x", "y"}, CorrectAnswer: "x", Difficulty: DifficultyHard, OrderIndex: 0},
	}
	require.NoError(t, st.Quizzes().Replace(ctx, "lesson-1", fresh))

	got, err := st.Quizzes().Questions(ctx, "lesson-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "New?", got[0].Question)
}

func TestEventRecords(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Events().RecordSession(ctx, "sess-1", SessionEventStarted, "The Fall of Rome"))
	require.NoError(t, st.Events().RecordLLMRequest(ctx, llm.RequestRecord{
		Model:        "mock",
		Purpose:      "lesson-sections",
		InputTokens:  10,
		OutputTokens: 20,
		LatencyMs:    150,
		Success:      true,
	}))

	var sessions []SessionEvent
	require.NoError(t, st.DB().Find(&sessions).Error)
	require.Len(t, sessions, 1)
	require.Equal(t, SessionEventStarted, sessions[0].Kind)

	var llmEvents []LLMRequestEvent
	require.NoError(t, st.DB().Find(&llmEvents).Error)
	require.Len(t, llmEvents, 1)
	require.True(t, llmEvents[0].Success)
}
