package sse

import (
	"time"

	"github.com/mhzhou/universe-data/internal/model"
)

// stockTypeNames labels the SSE STOCK_TYPE filter values.
var stockTypeNames = map[string]string{
	"1": "主板A股",
	"2": "主板B股",
	"8": "科创板",
}

// symbolFields is the extraction priority for the stock code.
var symbolFields = []string{"A_STOCK_CODE", "B_STOCK_CODE", "COMPANY_CODE"}

// extractSymbol returns the first usable stock code in a raw record, or ""
// when none is present.
func extractSymbol(raw model.RawRecord) string {
	for _, k := range symbolFields {
		if s := raw.Str(k); s != "" {
			return s
		}
	}
	return ""
}

// Normalizer maps raw SSE records to the canonical schema. Pure: no I/O.
type Normalizer struct {
	stockType string
}

// NewNormalizer creates a normalizer for records fetched with the given
// STOCK_TYPE filter value.
func NewNormalizer(stockType string) *Normalizer {
	if stockType == "" {
		stockType = "1"
	}
	return &Normalizer{stockType: stockType}
}

// Normalize converts one raw record to a StockRecord, or fails with a
// *SchemaError. Failed records are skipped by the caller, never fatal.
func (n *Normalizer) Normalize(raw model.RawRecord, sourceURL string, asof time.Time) (model.StockRecord, error) {
	symbol := extractSymbol(raw)
	if symbol == "" {
		return model.StockRecord{}, &SchemaError{Reason: "record has no stock code"}
	}

	// Name priority: short name, company abbreviation, full security name.
	name := raw.Str("SEC_NAME_CN")
	if name == "" {
		name = raw.Str("COMPANY_ABBR")
	}
	if name == "" {
		name = raw.Str("SEC_NAME_FULL")
	}
	if name == "" {
		name = symbol
	}

	fullName := raw.Str("FULL_NAME")
	if fullName == "" {
		fullName = raw.Str("SEC_NAME_FULL")
	}

	rec := model.StockRecord{
		Exchange:  model.ExchangeShanghai,
		Symbol:    symbol,
		Name:      name,
		FullName:  fullName,
		Category:  n.category(raw),
		ListDate:  raw.Str("LIST_DATE"),
		CSRCCode:  raw.Str("CSRC_CODE"),
		CSRCDesc:  raw.Str("CSRC_CODE_DESC"),
		Province:  raw.Str("AREA_NAME_DESC"),
		Status:    raw.Str("STATE_CODE_STOCK"),
		SourceURL: sourceURL,
		AsOf:      asof,
	}

	if err := rec.Validate(); err != nil {
		return model.StockRecord{}, &SchemaError{Reason: err.Error()}
	}

	return rec, nil
}

// category derives the grouping label from the exchange's own STOCK_TYPE
// value, preferring the per-record field over the request filter. The value
// is preserved as-is; the human label is appended when known.
func (n *Normalizer) category(raw model.RawRecord) string {
	stockType := raw.Str("STOCK_TYPE")
	if stockType == "" {
		stockType = n.stockType
	}

	category := "STOCK_TYPE_" + stockType
	if label, ok := stockTypeNames[stockType]; ok {
		category += "_" + label
	}
	return category
}
