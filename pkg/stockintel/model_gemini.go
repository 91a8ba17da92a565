package stockintel

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiModelClient completes prompts through the Gemini API. The genai
// client binds to a context, so it is created per request.
type geminiModelClient struct {
	apiKey  string
	baseURL string
	model   string
}

func newGeminiModelClient(opts ModelOptions) *geminiModelClient {
	return &geminiModelClient{apiKey: opts.APIKey, baseURL: opts.BaseURL, model: opts.Model}
}

func (c *geminiModelClient) Name() string {
	return "gemini/" + c.model
}

func (c *geminiModelClient) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}
