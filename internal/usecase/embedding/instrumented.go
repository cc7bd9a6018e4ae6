// Package embedding decorates the query embedder with logging and error
// classification.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/domain"
	"github.com/kailas-cloud/vecscope/internal/logger"
)

// InstrumentedEmbedder logs every query embedding and classifies failures as
// domain.ErrEmbeddingProviderError. Request metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, log *zap.Logger) *InstrumentedEmbedder {
	if log == nil {
		log = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, provider: provider, model: model, logger: log}
}

// Embed delegates to the inner embedder.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	log := logger.FromContextOr(ctx, p.logger)

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		log.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrEmbeddingProviderError) {
			return domain.EmbeddingResult{}, err
		}
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	if len(result.Embedding) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: provider returned an empty vector", domain.ErrEmbeddingProviderError)
	}

	log.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
