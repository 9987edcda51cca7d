package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator produces text from a prompt. The Gemini client implements it;
// tests substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient generates text using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed generator.
func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends the prompt and returns the model's text response.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}
