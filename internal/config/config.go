package config

import "time"

// Config is the root configuration for a universe fetch run.
type Config struct {
	// Exchanges is keyed by exchange id (sse, szse, bse).
	Exchanges map[string]ExchangeConfig `yaml:"exchanges"`

	Storage   StorageConfig   `yaml:"storage"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// ExchangeConfig holds per-exchange endpoint and fetch settings.
type ExchangeConfig struct {
	Endpoint string `yaml:"endpoint"`

	// Query holds fixed query parameters (sqlId, type, isPagination).
	Query map[string]string `yaml:"query"`

	// Filters holds filter parameters (STOCK_TYPE, COMPANY_STATUS, ...).
	Filters map[string]string `yaml:"filters"`

	// Headers are sent with every request. A Cookie header set here is
	// treated as a secret, same as the Cookie field.
	Headers map[string]string `yaml:"headers"`

	// Cookie is the raw Cookie header value. Secret: never written to
	// manifests or logs.
	Cookie string `yaml:"cookie"`

	Timeout    time.Duration    `yaml:"timeout"`
	Pagination PaginationConfig `yaml:"pagination"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Retry      RetryConfig      `yaml:"retry"`
	JSONP      JSONPConfig      `yaml:"jsonp"`
}

// PaginationConfig holds page iteration settings.
type PaginationConfig struct {
	PageSize  int `yaml:"page_size"`
	CacheSize int `yaml:"cache_size"`
}

// RateLimitConfig holds request pacing settings.
type RateLimitConfig struct {
	// MinInterval is the minimum time between consecutive requests to the
	// same endpoint. Requests are delayed, never dropped.
	MinInterval time.Duration `yaml:"min_interval"`

	// PageDelay is an extra pause between successive pages.
	PageDelay time.Duration `yaml:"page_delay"`
}

// RetryConfig holds backoff settings.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// JSONPConfig holds the callback envelope settings for JSONP-style endpoints.
type JSONPConfig struct {
	Param          string `yaml:"param"`
	CallbackPrefix string `yaml:"callback_prefix"`
}

// StorageConfig holds snapshot storage settings.
type StorageConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// NormalizeConfig holds normalization policy settings.
type NormalizeConfig struct {
	// MaxSkipRatio aborts the run when skipped/raw exceeds it.
	// 0 means skips are only counted, never fatal.
	MaxSkipRatio float64 `yaml:"max_skip_ratio"`
}

// CatalogConfig holds the optional Postgres snapshot catalog connection.
type CatalogConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
