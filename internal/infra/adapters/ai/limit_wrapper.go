package ai

import (
	"context"

	"telegram-channel-bot/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TextGenerator = (*limitedGenerator)(nil)

type limitedGenerator struct {
	inner adapter.TextGenerator
	sem   chan struct{}
}

// NewLimited caps concurrent upstream calls. Waiting for a slot honours ctx.
func NewLimited(inner adapter.TextGenerator, maxConcurrent int) adapter.TextGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, prompt)
}
