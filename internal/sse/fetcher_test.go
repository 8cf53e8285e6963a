package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mhzhou/universe-data/internal/model"
	"github.com/mhzhou/universe-data/internal/retry"
)

func collect(t *testing.T, it *Iter) []model.RawRecord {
	t.Helper()
	var records []model.RawRecord
	for it.Next() {
		raw, _, _ := it.Record()
		records = append(records, raw)
	}
	return records
}

func TestIterMultiPage(t *testing.T) {
	// Page size 2: page 1 is full, page 2 is short, so iteration stops
	// after two pages.
	pages := map[string]string{
		"1": `{"pageHelp":{"data":[{"A_STOCK_CODE":"600000"},{"A_STOCK_CODE":"600001"}]}}`,
		"2": `{"pageHelp":{"data":[{"A_STOCK_CODE":"600002"}]}}`,
	}
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		pageNo := r.URL.Query().Get("pageHelp.pageNo")
		jsonpHandler(pages[pageNo])(w, r)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), nil)
	it := f.Records(context.Background(), time.Now())

	records := collect(t, it)
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}

	stats := it.Stats()
	if stats.Pages != 2 {
		t.Errorf("Stats().Pages = %d, want 2", stats.Pages)
	}
	if stats.Attempts != 2 {
		t.Errorf("Stats().Attempts = %d, want 2", stats.Attempts)
	}
	if stats.Retries != 0 {
		t.Errorf("Stats().Retries = %d, want 0", stats.Retries)
	}
}

func TestIterStopsAtTotalPages(t *testing.T) {
	// Both pages are full; the reported totalPages must stop pagination.
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		base := (int(n) - 1) * 2
		payload := fmt.Sprintf(
			`{"pageHelp":{"data":[{"A_STOCK_CODE":"%d"},{"A_STOCK_CODE":"%d"}],"totalPages":2}}`,
			600000+base, 600001+base)
		jsonpHandler(payload)(w, r)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), nil)
	it := f.Records(context.Background(), time.Now())

	records := collect(t, it)
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(records) != 4 {
		t.Errorf("got %d records, want 4", len(records))
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2 (totalPages=2)", got)
	}
}

func TestIterDeduplicatesAcrossPages(t *testing.T) {
	// Symbol 600001 appears on both pages; only the first occurrence is
	// yielded. The record without any stock code is yielded as-is so the
	// normalizer can account for it.
	pages := map[string]string{
		"1": `{"pageHelp":{"data":[{"A_STOCK_CODE":"600000"},{"A_STOCK_CODE":"600001"}]}}`,
		"2": `{"pageHelp":{"data":[{"A_STOCK_CODE":"600001"},{"COMPANY_ABBR":"no code"}]}}`,
		"3": `{"pageHelp":{"data":[]}}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonpHandler(pages[r.URL.Query().Get("pageHelp.pageNo")])(w, r)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), nil)
	it := f.Records(context.Background(), time.Now())

	records := collect(t, it)
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}

	var symbols []string
	for _, raw := range records {
		symbols = append(symbols, extractSymbol(raw))
	}
	want := []string{"600000", "600001", ""}
	if len(symbols) != len(want) {
		t.Fatalf("got symbols %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestIterRetriesTransientFailures(t *testing.T) {
	// The first two requests fail; the third succeeds. The iterator must
	// recover without surfacing an error.
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		jsonpHandler(`{"pageHelp":{"data":[{"A_STOCK_CODE":"600000"}]}}`)(w, r)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), nil)
	it := f.Records(context.Background(), time.Now())

	records := collect(t, it)
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil after successful retry", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}

	stats := it.Stats()
	if stats.Attempts != 3 {
		t.Errorf("Stats().Attempts = %d, want 3", stats.Attempts)
	}
	if stats.Retries != 2 {
		t.Errorf("Stats().Retries = %d, want 2", stats.Retries)
	}
	if stats.FailedPages != 0 {
		t.Errorf("Stats().FailedPages = %d, want 0", stats.FailedPages)
	}
}

func TestIterFatalAfterExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), nil)
	it := f.Records(context.Background(), time.Now())

	if it.Next() {
		t.Fatal("Next() = true, want false when every attempt fails")
	}

	err := it.Err()
	if err == nil {
		t.Fatal("Err() = nil, want exhausted-retries error")
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Err() = %v, want *retry.ExhaustedError in chain", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}

	stats := it.Stats()
	if stats.FailedPages != 1 {
		t.Errorf("Stats().FailedPages = %d, want 1", stats.FailedPages)
	}
	if len(stats.Errors) != 1 {
		t.Fatalf("len(Stats().Errors) = %d, want 1", len(stats.Errors))
	}
	if stats.Errors[0].Page != 1 {
		t.Errorf("error sample page = %d, want 1", stats.Errors[0].Page)
	}
}

func TestIterStopsAtReportedTotal(t *testing.T) {
	// Full pages, no totalPages, but total=3: iteration must stop once
	// three raw records have been seen.
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(requests.Add(1))
		payload := fmt.Sprintf(
			`{"pageHelp":{"data":[{"A_STOCK_CODE":"%d"},{"A_STOCK_CODE":"%d"}],"total":3}}`,
			600000+n*10, 600001+n*10)
		if n == 2 {
			payload = `{"pageHelp":{"data":[{"A_STOCK_CODE":"600100"}],"total":3}}`
		}
		jsonpHandler(payload)(w, r)
	}))
	defer server.Close()

	f := NewFetcher(testConfig(server.URL), nil)
	it := f.Records(context.Background(), time.Now())

	records := collect(t, it)
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestIterRecordProvenance(t *testing.T) {
	server := httptest.NewServer(jsonpHandler(`{"pageHelp":{"data":[{"A_STOCK_CODE":"600000"}]}}`))
	defer server.Close()

	cfg := testConfig(server.URL)
	f := NewFetcher(cfg, nil)
	asof := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	it := f.Records(context.Background(), asof)
	if !it.Next() {
		t.Fatalf("Next() = false, Err() = %v", it.Err())
	}

	_, sourceURL, gotAsOf := it.Record()
	want := cfg.Endpoint + "?sqlId=TEST_SQL&STOCK_TYPE=1&pageNo=1"
	if sourceURL != want {
		t.Errorf("sourceURL = %q, want %q", sourceURL, want)
	}
	if !gotAsOf.Equal(asof) {
		t.Errorf("asof = %v, want %v", gotAsOf, asof)
	}
}
