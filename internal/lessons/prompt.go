package lessons

import (
	"fmt"
	"strings"
)

const sectionsSystemPrompt = `You are a history curriculum author. You write vivid, factually precise lesson content for a voice tutor to narrate aloud. Every section must include specific dates, named people, and concrete figures.`

func buildSectionsUserMessage(topic string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Create a structured lesson about %q.\n\n", topic))
	b.WriteString(`Instructions:
1. The introduction sets the period and stakes in 4-6 sentences with at least three specific dates.
2. Each of the three key points covers one distinct aspect of the topic in a detailed paragraph. Include dates, named people, places, and quantities.
3. The conclusion summarizes the arc and restates the most important dates and names.
4. Write prose suitable for reading aloud. No markdown, no headings, no bullet lists.`)

	return b.String()
}

const quizSystemPrompt = `You are a history teacher writing a short multiple-choice quiz to check comprehension of a lesson that was just narrated aloud.`

func buildQuizUserMessage(topic string, sectionContent string, count int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Lesson topic: %s\n\nLesson content:\n%s\n\n", topic, sectionContent))
	b.WriteString(fmt.Sprintf(`Instructions:
Write exactly %d multiple-choice questions that can be answered from the lesson content above.
1. Each question has exactly four options and one correct answer.
2. The correct_answer field must be copied character-for-character from the options.
3. Order the questions from easiest to hardest and label difficulty accordingly.
4. Prefer questions about specific dates, people, and figures mentioned in the lesson.`, count))

	return b.String()
}
