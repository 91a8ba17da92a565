package stockintel

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openaiModelClient completes prompts through the OpenAI chat completions
// API, or any OpenAI-compatible endpoint when a base URL is set.
type openaiModelClient struct {
	client openai.Client
	model  string
}

func newOpenAIModelClient(opts ModelOptions) *openaiModelClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &openaiModelClient{client: openai.NewClient(reqOpts...), model: opts.Model}
}

func (c *openaiModelClient) Name() string {
	return "openai/" + c.model
}

func (c *openaiModelClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
