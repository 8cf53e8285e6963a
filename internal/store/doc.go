// Package store persists universe snapshots.
//
// Layout:
//
//	data/universe/
//	  snapshot=2026-01-30T12-00-00Z/
//	    manifest.json
//	    Shanghai_Stocks/
//	      class=STOCK_TYPE_1_主板A股.jsonl
//
// Records are staged in a hidden temporary directory and promoted to the
// final snapshot path with one atomic rename, so a crash mid-write never
// leaves a half-visible snapshot. The manifest is written after promotion
// and acts as the commit marker.
package store
