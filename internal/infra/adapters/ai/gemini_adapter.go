package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/infra/metrics"
)

var _ adapter.TextGenerator = (*GeminiGenerator)(nil)

const defaultGeminiModel = "gemini-2.0-flash"

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini generator using the official SDK.
// An empty baseURL keeps the SDK default endpoint.
func NewGeminiGenerator(ctx context.Context, apiKey, baseURL, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key empty", domain.ErrConfiguration)
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %v", domain.ErrConfiguration, err)
	}
	return &GeminiGenerator{client: c, model: modelOrDefault(model, defaultGeminiModel)}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := g.generate(ctx, prompt)
	metrics.ObserveAICall("gemini", g.model, time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", domain.ErrUpstream, err)
	}
	return out, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty candidate")
	}
	return b.String(), nil
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
