// Package exchange defines the closed set of universe sources. Each variant
// pairs a paginated fetcher with a normalizer for one exchange; the pipeline
// driver only ever sees the Source interface, so adding an exchange means
// adding one variant here and nothing else.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mhzhou/universe-data/internal/config"
	"github.com/mhzhou/universe-data/internal/model"
	"github.com/mhzhou/universe-data/internal/sse"
)

// Source is one exchange's fetch/normalize capability pair.
type Source interface {
	// Name returns the canonical exchange name.
	Name() model.Exchange

	// Records returns a fresh, finite iterator over raw records. The
	// iterator is created per invocation and never reused.
	Records(ctx context.Context, asof time.Time) Iterator

	// Normalize converts one raw record to the canonical schema.
	Normalize(raw model.RawRecord, sourceURL string, asof time.Time) (model.StockRecord, error)
}

// Iterator is the cursor over paginated raw records.
type Iterator interface {
	Next() bool
	Record() (model.RawRecord, string, time.Time)
	Err() error
	Stats() model.FetchStats
}

// ids of the supported exchange variants, in CLI display order.
var ids = []string{"sse", "szse", "bse"}

// Supported returns the exchange ids New accepts.
func Supported() []string {
	return append([]string(nil), ids...)
}

// New returns the source variant for the given exchange id.
func New(id string, cfg config.ExchangeConfig, logger *slog.Logger) (Source, error) {
	switch strings.ToLower(id) {
	case "sse":
		return sseSource{sse.NewSource(cfg, logger)}, nil
	case "szse", "bse":
		return nil, fmt.Errorf("exchange %q is not implemented yet", id)
	default:
		return nil, fmt.Errorf("unknown exchange %q (supported: %s)", id, strings.Join(ids, ", "))
	}
}

// sseSource adapts *sse.Source to the Source interface (its Records returns
// the concrete iterator type).
type sseSource struct {
	*sse.Source
}

func (s sseSource) Records(ctx context.Context, asof time.Time) Iterator {
	return s.Source.Records(ctx, asof)
}
