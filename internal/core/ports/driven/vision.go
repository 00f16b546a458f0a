package driven

import "context"

// VisionModel is the external text/vision classification service.
//
// Implementations may include:
//   - Ollama (local multimodal models such as llava)
type VisionModel interface {
	// Generate sends a single prompt and returns the raw response text.
	// Requests carrying images use the image timeout budget.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error
}

// GenerateRequest is one classification call.
type GenerateRequest struct {
	// Prompt is the full instruction text.
	Prompt string

	// Images are base64-encoded JPEG payloads. Empty for text-only calls.
	Images []string
}
