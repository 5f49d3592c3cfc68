package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopGenerator)(nil)

// NoopGenerator is used for local/dev runs without an AI key.
// It logs the prompt and answers with a canned text.
type NoopGenerator struct {
	log *zerolog.Logger
}

func NewNoopGenerator(logger *zerolog.Logger) *NoopGenerator {
	l := logger.With().Str("component", "NoopAI").Logger()
	return &NoopGenerator{log: &l}
}

func (n *NoopGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	n.log.Debug().Str("prompt", prompt).Msg("noop generation")
	return "[noop] " + prompt, nil
}
