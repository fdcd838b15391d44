package gateway

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiGateway implements TextCompleter using the Gemini API.
type GeminiGateway struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGateway creates a Gemini-backed gateway. The API key is picked up
// by the genai client from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGeminiGateway(ctx context.Context, model string, timeout time.Duration) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGateway: create genai client: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiGateway{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete sends one prompt and returns the model's text. An empty response
// is reported as an error so callers hit their fallback path.
func (g *GeminiGateway) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Complete: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Complete: empty response from model")
	}

	return text, nil
}
