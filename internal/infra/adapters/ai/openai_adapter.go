package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/ports/adapter"
	"telegram-channel-bot/internal/infra/metrics"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TextGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator implements adapter.TextGenerator using the Chat Completions API.
// Any OpenAI-compatible gateway works through baseURL.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key empty", domain.ErrConfiguration)
	}
	if model == "" {
		model = "gpt-4o"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	c := openai.NewClient(opts...)
	return &OpenAIGenerator{client: &c, model: model}, nil
}

func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := o.complete(ctx, prompt)
	metrics.ObserveAICall("openai", o.model, time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", domain.ErrUpstream, err)
	}
	return out, nil
}

func (o *OpenAIGenerator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("no choice content")
}
