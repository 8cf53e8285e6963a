// Package catalog registers promoted snapshots in Postgres so multiple
// fetch hosts can discover each other's universes. The filesystem snapshot
// remains the source of truth; the catalog is an index over it.
package catalog
