package sse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhzhou/universe-data/internal/config"
	"github.com/mhzhou/universe-data/internal/model"
	"github.com/mhzhou/universe-data/internal/retry"
)

const (
	// maxPages is a safety cap on pagination.
	maxPages = 500

	// maxErrorSamples bounds the error list carried into the manifest.
	maxErrorSamples = 10
)

// Fetcher drives pagination over the SSE listing endpoint. Each call to
// Records creates a fresh iterator; iterators are finite, lazy, and safe to
// abandon mid-way.
type Fetcher struct {
	cfg    config.ExchangeConfig
	client *Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher with its own rate-limited client.
func NewFetcher(cfg config.ExchangeConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		cfg:    cfg,
		client: NewClient(cfg, WithLogger(logger)),
		logger: logger,
	}
}

// Records returns an iterator over all raw records as of the given
// timestamp. The iterator yields one record at a time, fetching pages
// lazily so consumers can process records while later pages are still
// pending.
func (f *Fetcher) Records(ctx context.Context, asof time.Time) *Iter {
	return &Iter{
		f:    f,
		ctx:  ctx,
		asof: asof,
		seen: make(map[string]struct{}),
	}
}

// sourceURL is a stable provenance URL for a page (the live request carries
// extra cache-buster and callback parameters).
func (f *Fetcher) sourceURL(pageNo int) string {
	return fmt.Sprintf("%s?sqlId=%s&STOCK_TYPE=%s&pageNo=%d",
		f.cfg.Endpoint, f.cfg.Query["sqlId"], f.cfg.Filters["STOCK_TYPE"], pageNo)
}

// Iter is the cursor over paginated raw records. Usage follows the scanner
// pattern:
//
//	it := fetcher.Records(ctx, asof)
//	for it.Next() {
//		raw, url, asof := it.Record()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
//
// A fatal error mid-iteration surfaces via Err; records already yielded
// remain valid.
type Iter struct {
	f    *Fetcher
	ctx  context.Context
	asof time.Time

	pageNo  int
	buf     []model.RawRecord
	bufURL  string
	rawSeen int
	seen    map[string]struct{}

	cur    model.RawRecord
	curURL string

	stats model.FetchStats
	done  bool
	err   error
}

// Next advances to the next raw record, fetching further pages as needed.
// It returns false when the sequence is exhausted or a fatal error occurred.
func (it *Iter) Next() bool {
	for {
		if it.err != nil {
			return false
		}

		for len(it.buf) > 0 {
			raw := it.buf[0]
			it.buf = it.buf[1:]

			// Dedup across pages by symbol; records without any symbol are
			// yielded so the normalizer can count them as skipped.
			if symbol := extractSymbol(raw); symbol != "" {
				if _, dup := it.seen[symbol]; dup {
					it.f.logger.Debug("duplicate symbol", "symbol", symbol, "page", it.pageNo)
					continue
				}
				it.seen[symbol] = struct{}{}
			}

			it.cur = raw
			it.curURL = it.bufURL
			return true
		}

		if it.done {
			return false
		}

		it.fetchNextPage()
	}
}

// Record returns the current raw record with its provenance.
// Only valid after Next returned true.
func (it *Iter) Record() (model.RawRecord, string, time.Time) {
	return it.cur, it.curURL, it.asof
}

// Err returns the fatal error that terminated iteration, if any.
func (it *Iter) Err() error {
	return it.err
}

// Stats returns retry and page statistics accumulated so far.
func (it *Iter) Stats() model.FetchStats {
	return it.stats
}

func (it *Iter) fetchNextPage() {
	// Pause between pages, not before the first.
	if it.pageNo > 0 && it.f.cfg.RateLimit.PageDelay > 0 {
		select {
		case <-it.ctx.Done():
			it.err = it.ctx.Err()
			return
		case <-time.After(it.f.cfg.RateLimit.PageDelay):
		}
	}

	it.pageNo++
	if it.pageNo > maxPages {
		it.f.logger.Warn("page safety limit reached", "pages", maxPages)
		it.done = true
		return
	}

	pageNo := it.pageNo
	retryCfg := retry.Config{
		MaxAttempts: it.f.cfg.Retry.MaxAttempts,
		BaseDelay:   it.f.cfg.Retry.BaseDelay,
	}

	page, attempts, err := retry.Do(it.ctx, retryCfg, it.f.logger,
		func(ctx context.Context) (*Page, error) {
			return it.f.client.FetchPage(ctx, pageNo)
		})

	it.stats.Attempts += attempts
	if attempts > 1 {
		it.stats.Retries += attempts - 1
	}

	if err != nil {
		it.stats.FailedPages++
		if len(it.stats.Errors) < maxErrorSamples {
			it.stats.Errors = append(it.stats.Errors, model.ErrorSample{
				Type:  "fetch_error",
				Page:  pageNo,
				Error: err.Error(),
			})
		}
		it.err = fmt.Errorf("fetch page %d: %w", pageNo, err)
		return
	}

	it.stats.Pages++
	it.rawSeen += len(page.Records)
	it.buf = page.Records
	it.bufURL = it.f.sourceURL(pageNo)

	it.f.logger.Debug("page fetched",
		"page", pageNo,
		"records", len(page.Records),
		"total_seen", it.rawSeen,
	)

	// Stop conditions, in priority order: reported total pages reached,
	// reported total records reached, empty page, short page.
	switch {
	case page.TotalPages >= 0 && pageNo >= page.TotalPages:
		it.done = true
	case page.Total >= 0 && it.rawSeen >= page.Total:
		it.done = true
	case len(page.Records) == 0:
		it.done = true
	case len(page.Records) < it.f.cfg.Pagination.PageSize:
		it.done = true
	}
}
