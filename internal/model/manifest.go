package model

import "time"

// ErrorSample is one recorded fetch or normalize failure. Only the first few
// samples are kept so the manifest stays bounded.
type ErrorSample struct {
	Type  string `json:"type"`
	Page  int    `json:"page,omitempty"`
	Error string `json:"error"`
}

// FetchStats aggregates retry and error statistics from one fetch run.
type FetchStats struct {
	Pages       int           `json:"pages"`
	Attempts    int           `json:"attempts"`
	Retries     int           `json:"retries"`
	FailedPages int           `json:"failed_pages"`
	Errors      []ErrorSample `json:"errors,omitempty"`
}

// Manifest describes one snapshot. It is written after all record files have
// been promoted and acts as the commit marker for the snapshot.
type Manifest struct {
	ID         string    `json:"id"`
	AsOf       time.Time `json:"asof"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Exchanges maps canonical exchange name -> category -> record count.
	Exchanges map[string]map[string]int `json:"exchanges"`

	RawCount        int `json:"raw_count"`
	NormalizedCount int `json:"normalized_count"`
	SkippedCount    int `json:"skipped_count"`

	RetryStats FetchStats `json:"retry_stats"`

	// Config is the sanitized configuration used for the run. Secrets are
	// replaced with a redaction marker before the manifest is built.
	Config any `json:"config"`

	OutputFiles []string `json:"output_files"`
}
