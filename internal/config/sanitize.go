package config

import (
	"strings"
	"time"
)

// Redacted replaces secret values in sanitized configuration.
const Redacted = "[REDACTED]"

// SafeConfig is the manifest-safe projection of Config. It is a distinct
// type from Config so a raw configuration can never be embedded in a
// manifest by accident.
type SafeConfig struct {
	Exchanges map[string]SafeExchangeConfig `json:"exchanges"`
	Storage   StorageConfig                 `json:"storage"`
	Normalize NormalizeConfig               `json:"normalize"`
	Catalog   SafeCatalogConfig             `json:"catalog"`
}

// SafeExchangeConfig mirrors ExchangeConfig with secrets redacted.
type SafeExchangeConfig struct {
	Endpoint   string            `json:"endpoint"`
	Query      map[string]string `json:"query"`
	Filters    map[string]string `json:"filters"`
	Headers    map[string]string `json:"headers,omitempty"`
	Cookie     string            `json:"cookie,omitempty"`
	Timeout    time.Duration     `json:"timeout"`
	Pagination PaginationConfig  `json:"pagination"`
	RateLimit  RateLimitConfig   `json:"rate_limit"`
	Retry      RetryConfig       `json:"retry"`
	JSONP      JSONPConfig       `json:"jsonp"`
}

// SafeCatalogConfig mirrors CatalogConfig without the password.
type SafeCatalogConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	Name    string `json:"name,omitempty"`
	User    string `json:"user,omitempty"`
	SSLMode string `json:"ssl_mode,omitempty"`
}

// Sanitized returns the manifest-safe projection of c. It is a pure mapping:
// c is never mutated. Cookie values and Cookie/Authorization headers are
// replaced with the redaction marker, never emitted verbatim.
func (c *Config) Sanitized() SafeConfig {
	safe := SafeConfig{
		Exchanges: make(map[string]SafeExchangeConfig, len(c.Exchanges)),
		Storage:   c.Storage,
		Normalize: c.Normalize,
		Catalog: SafeCatalogConfig{
			Enabled: c.Catalog.Enabled,
			Host:    c.Catalog.Host,
			Port:    c.Catalog.Port,
			Name:    c.Catalog.Name,
			User:    c.Catalog.User,
			SSLMode: c.Catalog.SSLMode,
		},
	}

	for id, ex := range c.Exchanges {
		safe.Exchanges[id] = ex.sanitized()
	}

	return safe
}

func (ex *ExchangeConfig) sanitized() SafeExchangeConfig {
	headers := make(map[string]string, len(ex.Headers))
	for k, v := range ex.Headers {
		if isSecretHeader(k) {
			headers[k] = Redacted
			continue
		}
		headers[k] = v
	}

	cookie := ""
	if ex.Cookie != "" {
		cookie = Redacted
	}

	return SafeExchangeConfig{
		Endpoint:   ex.Endpoint,
		Query:      copyMap(ex.Query),
		Filters:    copyMap(ex.Filters),
		Headers:    headers,
		Cookie:     cookie,
		Timeout:    ex.Timeout,
		Pagination: ex.Pagination,
		RateLimit:  ex.RateLimit,
		Retry:      ex.Retry,
		JSONP:      ex.JSONP,
	}
}

func isSecretHeader(name string) bool {
	switch strings.ToLower(name) {
	case "cookie", "authorization", "x-api-key":
		return true
	}
	return false
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
