package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/config"
	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/ports/adapter"
)

// New builds the generator chain for cfg. The configured provider goes first;
// the other provider, when its key is present, serves as failover.
func New(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.TextGenerator, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "noop" {
		return NewNoopGenerator(logger), nil
	}

	var chain []Provider
	addOpenAI := func() error {
		if cfg.OpenAIKey == "" {
			return nil
		}
		g, err := NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, openAIModel(cfg.DefaultModel))
		if err != nil {
			return err
		}
		chain = append(chain, Provider{Name: "openai", Gen: g})
		return nil
	}
	addGemini := func() error {
		if cfg.GeminiKey == "" {
			return nil
		}
		g, err := NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.GeminiURL, geminiModel(cfg.DefaultModel))
		if err != nil {
			return err
		}
		chain = append(chain, Provider{Name: "gemini", Gen: g})
		return nil
	}

	order := []func() error{addOpenAI, addGemini}
	switch provider {
	case "openai":
	case "gemini":
		order = []func() error{addGemini, addOpenAI}
	default:
		return nil, fmt.Errorf("%w: unknown ai provider %q", domain.ErrConfiguration, cfg.Provider)
	}
	for _, add := range order {
		if err := add(); err != nil {
			return nil, err
		}
	}
	if len(chain) == 0 || chain[0].Name != provider {
		return nil, fmt.Errorf("%w: %s selected without an api key", domain.ErrConfiguration, provider)
	}

	var gen adapter.TextGenerator = chain[0].Gen
	if len(chain) > 1 {
		gen = NewFailoverGenerator(logger, chain...)
	}
	return NewLimited(gen, cfg.ConcurrentLimit), nil
}

// openAIModel and geminiModel keep a model name meant for the other provider
// from leaking across the failover chain.
func openAIModel(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gemini") {
		return ""
	}
	return model
}

func geminiModel(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gemini") {
		return model
	}
	return ""
}
