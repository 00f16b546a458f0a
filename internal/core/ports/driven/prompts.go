package driven

// Prompt names understood by PromptStore.
const (
	PromptClassifyText  = "classify_text"
	PromptClassifyImage = "classify_image"
)

// PromptStore loads user-editable prompt openings.
type PromptStore interface {
	// Load returns the prompt for name, falling back to the built-in default.
	Load(name string) (string, error)

	// Dir returns the directory prompts are read from.
	Dir() string
}
