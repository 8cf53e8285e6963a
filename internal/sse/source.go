package sse

import (
	"context"
	"log/slog"
	"time"

	"github.com/mhzhou/universe-data/internal/config"
	"github.com/mhzhou/universe-data/internal/model"
)

// Source bundles the SSE fetcher and normalizer as one exchange variant.
type Source struct {
	fetcher    *Fetcher
	normalizer *Normalizer
}

// NewSource creates the SSE universe source.
func NewSource(cfg config.ExchangeConfig, logger *slog.Logger) *Source {
	return &Source{
		fetcher:    NewFetcher(cfg, logger),
		normalizer: NewNormalizer(cfg.Filters["STOCK_TYPE"]),
	}
}

// Name returns the canonical exchange name.
func (s *Source) Name() model.Exchange {
	return model.ExchangeShanghai
}

// Records returns a fresh iterator over all raw records.
func (s *Source) Records(ctx context.Context, asof time.Time) *Iter {
	return s.fetcher.Records(ctx, asof)
}

// Normalize converts one raw record to the canonical schema.
func (s *Source) Normalize(raw model.RawRecord, sourceURL string, asof time.Time) (model.StockRecord, error) {
	return s.normalizer.Normalize(raw, sourceURL, asof)
}
