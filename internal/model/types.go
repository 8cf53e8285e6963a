package model

import (
	"fmt"
	"time"
)

// Exchange is a canonical exchange identifier. Only the fixed values below
// are valid; normalizers must never invent or abbreviate exchange names.
type Exchange string

const (
	ExchangeShanghai Exchange = "Shanghai_Stocks"
	ExchangeShenzen  Exchange = "Shenzen_Stocks"
	ExchangeBeijing  Exchange = "Beijing_Stocks"
)

// Exchanges returns all canonical exchange names.
func Exchanges() []Exchange {
	return []Exchange{ExchangeShanghai, ExchangeShenzen, ExchangeBeijing}
}

// Valid reports whether e is one of the canonical exchange names.
func (e Exchange) Valid() bool {
	switch e {
	case ExchangeShanghai, ExchangeShenzen, ExchangeBeijing:
		return true
	}
	return false
}

// RawRecord is an exchange-native payload exactly as decoded from the source.
// It is created per page, consumed immediately by the normalizer, and never
// persisted.
type RawRecord map[string]any

// Str returns the string value for key. Missing keys, non-string values and
// the SSE placeholder "-" all return the empty string.
func (r RawRecord) Str(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok || s == "-" {
		return ""
	}
	return s
}

// StockRecord is the unified output schema all raw records normalize into.
// Immutable after creation; written once into a snapshot file.
type StockRecord struct {
	Exchange Exchange `json:"exchange"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	FullName string   `json:"full_name,omitempty"`

	// Category is the exchange's own classification, preserved verbatim.
	// No cross-exchange renormalization.
	Category string `json:"category"`

	ListDate string `json:"list_date,omitempty"`
	CSRCCode string `json:"csrc_code,omitempty"`
	CSRCDesc string `json:"csrc_desc,omitempty"`
	Province string `json:"province,omitempty"`
	Status   string `json:"status,omitempty"`

	// Provenance
	SourceURL string    `json:"source_url"`
	AsOf      time.Time `json:"asof"`
}

// Validate checks the record invariants.
func (r StockRecord) Validate() error {
	if !r.Exchange.Valid() {
		return fmt.Errorf("invalid exchange %q", r.Exchange)
	}
	if r.Symbol == "" {
		return fmt.Errorf("symbol is empty")
	}
	if r.Category == "" {
		return fmt.Errorf("category is empty")
	}
	return nil
}
