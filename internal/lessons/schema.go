package lessons

import "github.com/abodnar/clio/internal/llm"

// SectionsSchema is the JSON schema for lesson section generation: an
// intro, three key points, and a conclusion.
var SectionsSchema = &llm.Schema{
	Name:        "lesson-sections",
	Description: "A structured history lesson: introduction, three key points, and a conclusion",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intro": map[string]any{
				"type":        "string",
				"description": "Introduction to the topic with specific dates and context",
			},
			"points": map[string]any{
				"type":        "array",
				"description": "Exactly three key points, each a detailed paragraph with dates, names, and figures",
				"items":       map[string]any{"type": "string"},
				"minItems":    3,
				"maxItems":    3,
			},
			"conclusion": map[string]any{
				"type":        "string",
				"description": "Summary tying the key points together",
			},
		},
		"required":             []any{"intro", "points", "conclusion"},
		"additionalProperties": false,
	},
}

// QuizSchema is the JSON schema for quiz authoring. The correct answer
// must be copied verbatim from the options.
var QuizSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "Multiple-choice quiz questions for a history lesson",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]any{
							"type":        "array",
							"description": "Four answer options",
							"items":       map[string]any{"type": "string"},
							"minItems":    4,
							"maxItems":    4,
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The correct option, copied verbatim from options",
						},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"easy", "medium", "hard"},
						},
					},
					"required":             []any{"question", "options", "correct_answer", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
