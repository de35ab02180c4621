// Package imagegen produces the background variants suggested after a
// profile comparison.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"profileai/internal/domain"
	"profileai/internal/infra"
	"profileai/internal/normalize"
	"profileai/internal/prompt"
)

// Generator renders one image from a text prompt and returns its URL.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// BackgroundGenerator runs the natural and artistic variants concurrently.
type BackgroundGenerator struct {
	generator Generator
	logger    *infra.Logger
}

func NewBackgroundGenerator(generator Generator, logger *infra.Logger) *BackgroundGenerator {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &BackgroundGenerator{generator: generator, logger: logger}
}

// Generate returns every variant that succeeded, in variant order. A failed
// branch is logged and dropped; only when all fail is domain.ErrNoBackgrounds
// returned.
func (g *BackgroundGenerator) Generate(ctx context.Context, aspirationSummary string, comparison normalize.Result) ([]domain.Background, error) {
	prompts, err := prompt.Backgrounds(aspirationSummary, comparison)
	if err != nil {
		return nil, err
	}
	results := make([]*domain.Background, len(prompts))
	failures := make([]error, len(prompts))

	// Each branch writes only its own slot. Branch errors stay out of the
	// group so one failure never cancels the sibling.
	var group errgroup.Group
	for i, p := range prompts {
		group.Go(func() error {
			started := time.Now()
			url, err := g.generator.Generate(ctx, p.Prompt)
			if err != nil {
				failures[i] = err
				g.logger.Warn().Err(err).Str("type", p.Type).Str("backend", g.generator.Name()).Msg("background variant failed")
				return nil
			}
			results[i] = &domain.Background{URL: url, Type: p.Type, Label: p.Label}
			g.logger.Info().Str("type", p.Type).Dur("took", time.Since(started)).Msg("background variant ready")
			return nil
		})
	}
	_ = group.Wait()

	out := make([]domain.Background, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoBackgrounds, errors.Join(failures...))
	}
	return out, nil
}
