package tutor

import (
	"fmt"
	"strings"

	"github.com/abodnar/clio/internal/store"
)

// BuildSystemPrompt assembles the full system prompt for a live session:
// the persona, the lesson content, and the behavioral rules for tool usage
// ordering (one slide per concept, narrated before the next is requested).
func BuildSystemPrompt(agent Agent, sections []store.LessonSection) string {
	var b strings.Builder

	b.WriteString(agent.Prompt)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("I am %s, and here is the lesson content I will be teaching:\n\n", agent.Name))
	b.WriteString(JoinSections(sections))
	b.WriteString("\n\n")
	b.WriteString(`Important instructions:
1. For every new concept or section I'm about to explain, I MUST first use the 'generate_slide' tool to create a visual representation:
   - Call 'generate_slide' with the narration text and the image description for the visual aid
   - Wait for the slide to be generated
   - Then explain the concept while referencing the visual aid
2. I request exactly one slide per concept and fully narrate it before requesting the next.
3. When the lesson content is fully covered, I use the 'end_lesson' tool to hand over to the quiz.

Remember to:
- Always use 'generate_slide' before explaining a new concept
- Teach the content in my assigned style while maintaining accuracy
- Break down complex concepts and encourage questions
- Refer to myself as ` + agent.Name + ` when introducing myself or when it feels natural`)

	return b.String()
}

// JoinSections renders sections as "Title:\ncontent" blocks separated by
// blank lines, in order.
func JoinSections(sections []store.LessonSection) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = fmt.Sprintf("%s:\n%s", s.Title, s.Content)
	}
	return strings.Join(parts, "\n\n")
}
