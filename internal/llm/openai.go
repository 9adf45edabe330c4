package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAI implements Completer on the chat completion endpoint.
type OpenAI struct {
	// BaseURL overrides the API endpoint, mostly for tests.
	BaseURL string
	Timeout time.Duration
}

func NewOpenAI() *OpenAI {
	return &OpenAI{Timeout: 60 * time.Second}
}

func (o *OpenAI) Complete(ctx context.Context, prompt, apiKey, model string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("%w: missing api key", ErrPermanent)
	}
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	client := openai.NewClientWithConfig(cfg)

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature:         0.1,
		TopP:                0.8,
		MaxCompletionTokens: 2048,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return "", &StatusError{Code: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			return "", &StatusError{Code: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", Classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w from OpenAI", ErrMalformedResponse, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Completer = (*OpenAI)(nil)
