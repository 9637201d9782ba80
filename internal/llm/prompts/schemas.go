package prompts

import "github.com/pavelanni/studybuddy/internal/llm"

// QuizSchema is the payload shape for a generated quiz.
var QuizSchema = &llm.Schema{
	Name:        "quiz",
	Description: "A list of multiple-choice questions.",
	Definition: map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The multiple choice question text.",
				},
				"options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"minItems":    4,
					"maxItems":    4,
					"description": "An array of exactly four possible answers.",
				},
				"correct_index": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"maximum":     3,
					"description": "The zero-based index (0, 1, 2, or 3) of the correct answer in the options array.",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "A concise explanation of why the correct answer is right.",
				},
			},
			"required": []string{"question", "options", "correct_index", "explanation"},
		},
	},
}

// FlashcardSchema is the payload shape for a generated flashcard deck.
// Incomplete cards are dropped after decoding instead of failing the whole
// deck, so the payload is not validated against the schema.
var FlashcardSchema = &llm.Schema{
	Name:        "flashcards",
	Description: "A list of question/answer flashcards.",
	Lenient:     true,
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The front side of the flashcard, acting as the prompt or concept.",
				},
				"answer": map[string]any{
					"type":        "string",
					"description": "The back side of the flashcard, containing the definition or key information.",
				},
			},
			"required": []string{"question", "answer"},
		},
	},
}
