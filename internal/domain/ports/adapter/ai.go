package adapter

import "context"

// TextGenerator is the port for a generative text service.
// Failures wrap domain.ErrUpstream.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
