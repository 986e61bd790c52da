// Package lessons generates history lesson content: the ordered section
// plan a tutor narrates, and the quiz that follows it.
package lessons

// Topic is a suggested lesson subject shown on the topic picker.
type Topic struct {
	Title      string
	Difficulty string
}

// StarterTopics are the built-in suggestions offered before the user has
// generated anything of their own.
var StarterTopics = []Topic{
	{Title: "The Fall of Rome", Difficulty: "Beginner"},
	{Title: "Ancient Egyptian Pyramids", Difficulty: "Intermediate"},
	{Title: "Renaissance Art", Difficulty: "Advanced"},
	{Title: "Industrial Revolution", Difficulty: "Intermediate"},
}

// Config tunes lesson generation.
type Config struct {
	// SectionMaxTokens caps the section-generation response.
	SectionMaxTokens int

	// QuizMaxTokens caps the quiz-generation response.
	QuizMaxTokens int

	// QuizQuestions is how many questions to author per lesson.
	QuizQuestions int

	// Temperature for both calls.
	Temperature float64
}

// DefaultConfig returns the baseline generation settings.
func DefaultConfig() Config {
	return Config{
		SectionMaxTokens: 4096,
		QuizMaxTokens:    2048,
		QuizQuestions:    3,
		Temperature:      0.7,
	}
}
