// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/domain"
	"telegram-channel-bot/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*FailoverGenerator)(nil)

// Provider is a named generator in a failover chain.
type Provider struct {
	Name string
	Gen  adapter.TextGenerator
}

// FailoverGenerator tries providers in order and returns the first success.
type FailoverGenerator struct {
	providers []Provider
	log       *zerolog.Logger
}

func NewFailoverGenerator(logger *zerolog.Logger, providers ...Provider) *FailoverGenerator {
	l := logger.With().Str("component", "FailoverAI").Logger()
	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Gen != nil {
			p.Name = strings.ToLower(p.Name)
			ps = append(ps, p)
		}
	}
	return &FailoverGenerator{providers: ps, log: &l}
}

func (f *FailoverGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if len(f.providers) == 0 {
		return "", fmt.Errorf("%w: no ai provider configured", domain.ErrUpstream)
	}
	var errs []error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out, err := p.Gen.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		f.log.Warn().Err(err).Str("provider", p.Name).Msg("provider failed")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	return "", fmt.Errorf("%w: %v", domain.ErrUpstream, errors.Join(errs...))
}

// Names lists the chain in call order.
func (f *FailoverGenerator) Names() []string {
	out := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		out = append(out, p.Name)
	}
	return out
}
