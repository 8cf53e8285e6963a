// Package pipeline drives one universe fetch run: raw records from an
// exchange source are normalized and written into a snapshot, then a
// manifest is produced. Execution is single-threaded; records flow in
// pagination order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mhzhou/universe-data/internal/config"
	"github.com/mhzhou/universe-data/internal/exchange"
	"github.com/mhzhou/universe-data/internal/model"
	"github.com/mhzhou/universe-data/internal/store"
)

// maxErrorSamples bounds normalize error samples added to the manifest.
const maxErrorSamples = 10

// ErrSkipRatioExceeded aborts a run whose cumulative skip rate passed the
// configured threshold.
var ErrSkipRatioExceeded = errors.New("skip ratio exceeded")

// CatalogRecorder receives promoted snapshots. Optional.
type CatalogRecorder interface {
	RecordSnapshot(ctx context.Context, m *model.Manifest, path string) error
}

// Options configures one run.
type Options struct {
	AsOf    time.Time
	BaseDir string

	// MaxSkipRatio aborts the run when skipped/raw exceeds it; 0 disables
	// the threshold (skips are only counted).
	MaxSkipRatio float64

	// SafeConfig is the sanitized configuration embedded in the manifest.
	SafeConfig config.SafeConfig

	Catalog CatalogRecorder
	Logger  *slog.Logger
}

// Result is a completed run.
type Result struct {
	Manifest *model.Manifest
	Path     string
}

// Run fetches, normalizes, and persists one snapshot. On a fatal error no
// snapshot is promoted; the staging directory is left for inspection.
func Run(ctx context.Context, src exchange.Source, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	asof := opts.AsOf
	if asof.IsZero() {
		asof = time.Now().UTC()
	}
	startedAt := time.Now().UTC()

	writer, err := store.NewWriter(opts.BaseDir, asof, logger)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	logger.Info("fetch started",
		"exchange", src.Name(),
		"asof", asof.Format(time.RFC3339),
	)

	var (
		rawCount    int
		skipped     int
		skipSamples []model.ErrorSample
	)

	it := src.Records(ctx, asof)
	for it.Next() {
		raw, sourceURL, recordAsOf := it.Record()
		rawCount++

		rec, err := src.Normalize(raw, sourceURL, recordAsOf)
		if err != nil {
			skipped++
			logger.Warn("record skipped", "error", err)
			if len(skipSamples) < maxErrorSamples {
				skipSamples = append(skipSamples, model.ErrorSample{
					Type:  "normalize_error",
					Error: err.Error(),
				})
			}

			if opts.MaxSkipRatio > 0 && float64(skipped)/float64(rawCount) > opts.MaxSkipRatio {
				return nil, fmt.Errorf("%w: %d of %d records skipped (threshold %g)",
					ErrSkipRatioExceeded, skipped, rawCount, opts.MaxSkipRatio)
			}
			continue
		}

		if err := writer.Write(rec); err != nil {
			return nil, err
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("fetch aborted: %w", err)
	}

	path, err := writer.Promote()
	if err != nil {
		return nil, err
	}

	stats := it.Stats()
	for _, s := range skipSamples {
		if len(stats.Errors) >= maxErrorSamples {
			break
		}
		stats.Errors = append(stats.Errors, s)
	}

	manifest := &model.Manifest{
		ID:              uuid.NewString(),
		AsOf:            asof,
		StartedAt:       startedAt,
		FinishedAt:      time.Now().UTC(),
		Exchanges:       writer.Counts(),
		RawCount:        rawCount,
		NormalizedCount: writer.Total(),
		SkippedCount:    skipped,
		RetryStats:      stats,
		Config:          opts.SafeConfig,
		OutputFiles:     writer.OutputFiles(),
	}

	if err := writer.WriteManifest(manifest); err != nil {
		return nil, err
	}

	if opts.Catalog != nil {
		if err := opts.Catalog.RecordSnapshot(ctx, manifest, path); err != nil {
			// The snapshot is already durable; catalog registration is
			// best-effort.
			logger.Error("catalog record failed", "error", err)
		}
	}

	logger.Info("fetch finished",
		"exchange", src.Name(),
		"raw", rawCount,
		"normalized", manifest.NormalizedCount,
		"skipped", skipped,
		"pages", stats.Pages,
		"duration", manifest.FinishedAt.Sub(startedAt),
	)

	return &Result{Manifest: manifest, Path: path}, nil
}
