package stockintel

import (
	"context"
	"strings"
)

// ModelClient is the completion interface the synthesizer calls. One
// implementation exists per supported model provider.
type ModelClient interface {
	// Complete sends a system prompt and user prompt and returns the raw
	// model output text.
	Complete(ctx context.Context, system, user string) (string, error)
	// Name identifies the backend for logging.
	Name() string
}

// ModelOptions configures the synthesis model backend.
type ModelOptions struct {
	// Provider selects the backend: "openai", "claude" or "gemini".
	// When empty it is detected from the model name.
	Provider string
	APIKey   string
	// BaseURL overrides the provider endpoint. For the openai provider
	// this allows any OpenAI-compatible gateway.
	BaseURL string
	Model   string
}

// detectProvider infers the backend from the model name.
func detectProvider(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude"):
		return "claude"
	case strings.HasPrefix(lower, "gemini"):
		return "gemini"
	default:
		return "openai"
	}
}

// newModelClient builds the backend selected by opts.
func newModelClient(opts ModelOptions) (ModelClient, error) {
	if opts.Model == "" {
		return nil, NewError(ErrCodeInvalidInput, "model name is required")
	}
	if opts.APIKey == "" {
		return nil, NewError(ErrCodeInvalidInput, "model API key is required")
	}
	provider := opts.Provider
	if provider == "" {
		provider = detectProvider(opts.Model)
	}
	switch provider {
	case "openai":
		return newOpenAIModelClient(opts), nil
	case "claude":
		return newClaudeModelClient(opts), nil
	case "gemini":
		return newGeminiModelClient(opts), nil
	default:
		return nil, NewError(ErrCodeInvalidInput, "unsupported model provider: "+provider)
	}
}
