package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/deusflow/newsletter/internal/logger"
)

// Gemini implements Completer on the Google generative AI SDK. One SDK
// client is kept per API key since keys arrive with each call.
type Gemini struct {
	clients map[string]*genai.Client
}

func NewGemini() *Gemini {
	return &Gemini{clients: make(map[string]*genai.Client)}
}

func (g *Gemini) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.clients[apiKey] = c
	return c, nil
}

// Close releases every SDK client.
func (g *Gemini) Close() {
	for key, c := range g.clients {
		if err := c.Close(); err != nil {
			logger.Warn("closing Gemini client", "error", err)
		}
		delete(g.clients, key)
	}
}

func (g *Gemini) Complete(ctx context.Context, prompt, apiKey, model string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("%w: missing api key", ErrPermanent)
	}
	if model == "" {
		model = DefaultModel
	}

	c, err := g.client(ctx, apiKey)
	if err != nil {
		return "", Classify(err)
	}

	gm := c.GenerativeModel(model)
	gm.SetTemperature(0.1)
	gm.SetTopP(0.8)
	gm.SetTopK(40)
	gm.SetMaxOutputTokens(2048)
	gm.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
	}

	logger.Debug("Gemini request", "model", model, "prompt_len", len(prompt))

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return "", Classify(err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w from Gemini", ErrMalformedResponse, ErrEmptyResponse)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		// First candidate with content is enough.
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

var _ Completer = (*Gemini)(nil)
