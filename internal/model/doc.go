// Package model defines shared data types used across the universe pipeline.
//
// Conventions:
//   - Exchange names: fixed canonical strings (Shanghai_Stocks, Shenzen_Stocks, Beijing_Stocks)
//   - Timestamps: time.Time in UTC, serialized as RFC 3339
//   - Raw records: schema-less key/value payloads, opaque outside their exchange's normalizer
package model
