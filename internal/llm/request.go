package llm

// GenerationRequest is one prompt sent to the model.
//
// A request is either free text (Schema == nil) or schema mode, in which
// case the model is asked for JSON matching Schema.Definition.
// Nil sampling fields leave the provider default in place.
type GenerationRequest struct {
	SystemInstruction string
	UserInstruction   string
	Temperature       *float32
	TopP              *float32
	TopK              *int
	Schema            *Schema
}

// Schema describes the JSON payload expected in schema mode.
type Schema struct {
	Name        string
	Description string
	// Definition is a JSON Schema document with lower-case type names.
	Definition map[string]any
	// Lenient skips payload validation; the caller filters records itself.
	Lenient bool
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
