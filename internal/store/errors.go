package store

import "fmt"

// StorageError is a filesystem failure during snapshot writing or promotion.
// Fatal: the run aborts, the temporary directory is left for inspection, and
// the final snapshot path is never created.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
