package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mhzhou/universe-data/internal/model"
)

// ManifestFile is the manifest name inside a snapshot directory.
const ManifestFile = "manifest.json"

type groupKey struct {
	exchange model.Exchange
	category string
}

type groupFile struct {
	f   *os.File
	buf *bufio.Writer
	rel string // path relative to the snapshot root
}

// Writer stages one snapshot. Records are grouped by (exchange, category)
// into newline-delimited JSON files under a temporary directory; Promote
// renames the whole directory to the final snapshot path in one step.
//
// A Writer is owned by a single pipeline invocation; it is not safe for
// concurrent use.
type Writer struct {
	baseDir  string
	asof     time.Time
	tmpDir   string
	finalDir string
	logger   *slog.Logger

	groups   map[groupKey]*groupFile
	counts   map[string]map[string]int
	total    int
	promoted bool
}

// NewWriter creates the staging directory for a snapshot keyed by asof.
func NewWriter(baseDir string, asof time.Time, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: baseDir, Err: err}
	}

	name := "snapshot=" + FormatTimestamp(asof)
	tmpDir, err := os.MkdirTemp(baseDir, "."+name+".tmp-")
	if err != nil {
		return nil, &StorageError{Op: "mkdir temp", Path: baseDir, Err: err}
	}

	return &Writer{
		baseDir:  baseDir,
		asof:     asof,
		tmpDir:   tmpDir,
		finalDir: filepath.Join(baseDir, name),
		logger:   logger,
		groups:   make(map[groupKey]*groupFile),
		counts:   make(map[string]map[string]int),
	}, nil
}

// Write appends one record to its (exchange, category) group file.
// Line order within a group is insertion order.
func (w *Writer) Write(rec model.StockRecord) error {
	if w.promoted {
		return &StorageError{Op: "write", Path: w.finalDir, Err: fmt.Errorf("snapshot already promoted")}
	}

	g, err := w.group(rec.Exchange, rec.Category)
	if err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return &StorageError{Op: "encode", Path: g.rel, Err: err}
	}
	line = append(line, '\n')

	if _, err := g.buf.Write(line); err != nil {
		return &StorageError{Op: "write", Path: g.rel, Err: err}
	}

	exchange := string(rec.Exchange)
	if w.counts[exchange] == nil {
		w.counts[exchange] = make(map[string]int)
	}
	w.counts[exchange][rec.Category]++
	w.total++
	return nil
}

func (w *Writer) group(exchange model.Exchange, category string) (*groupFile, error) {
	key := groupKey{exchange, category}
	if g, ok := w.groups[key]; ok {
		return g, nil
	}

	dir := filepath.Join(w.tmpDir, string(exchange))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	rel := filepath.Join(string(exchange), "class="+SafeCategory(category)+".jsonl")
	path := filepath.Join(w.tmpDir, rel)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}

	w.logger.Debug("created group file", "file", rel)

	g := &groupFile{f: f, buf: bufio.NewWriter(f), rel: rel}
	w.groups[key] = g
	return g, nil
}

// Promote flushes and closes all group files, then atomically renames the
// staging directory to the final snapshot path. On failure the staging
// directory is left in place for inspection and the final path is never
// created.
func (w *Writer) Promote() (string, error) {
	if w.promoted {
		return w.finalDir, nil
	}

	for _, g := range w.groups {
		if err := g.buf.Flush(); err != nil {
			return "", &StorageError{Op: "flush", Path: g.rel, Err: err}
		}
		if err := g.f.Sync(); err != nil {
			return "", &StorageError{Op: "sync", Path: g.rel, Err: err}
		}
		if err := g.f.Close(); err != nil {
			return "", &StorageError{Op: "close", Path: g.rel, Err: err}
		}
	}

	if _, err := os.Stat(w.finalDir); err == nil {
		return "", &StorageError{Op: "promote", Path: w.finalDir, Err: fmt.Errorf("snapshot already exists")}
	}

	if err := os.Rename(w.tmpDir, w.finalDir); err != nil {
		return "", &StorageError{Op: "promote", Path: w.finalDir, Err: err}
	}

	w.promoted = true
	w.logger.Info("snapshot promoted", "path", w.finalDir, "records", w.total)
	return w.finalDir, nil
}

// WriteManifest writes manifest.json into the promoted snapshot directory.
// It is the last artifact written: a snapshot without a manifest is not
// complete.
func (w *Writer) WriteManifest(m *model.Manifest) error {
	if !w.promoted {
		return &StorageError{Op: "manifest", Path: w.finalDir, Err: fmt.Errorf("snapshot not promoted")}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &StorageError{Op: "manifest encode", Path: w.finalDir, Err: err}
	}
	data = append(data, '\n')

	path := filepath.Join(w.finalDir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "manifest write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StorageError{Op: "manifest rename", Path: path, Err: err}
	}

	w.logger.Info("manifest written", "path", path)
	return nil
}

// Close closes open group files without promoting. The staging directory is
// left in place so a failed run can be inspected.
func (w *Writer) Close() {
	if w.promoted {
		return
	}
	for _, g := range w.groups {
		g.buf.Flush()
		g.f.Close()
	}
}

// Counts returns per-exchange, per-category record counts.
func (w *Writer) Counts() map[string]map[string]int {
	return w.counts
}

// Total returns the number of records written.
func (w *Writer) Total() int {
	return w.total
}

// OutputFiles returns sorted group file paths relative to the snapshot root.
func (w *Writer) OutputFiles() []string {
	files := make([]string, 0, len(w.groups))
	for _, g := range w.groups {
		files = append(files, g.rel)
	}
	sort.Strings(files)
	return files
}

// TempDir returns the staging directory path (for inspection after a
// failed run).
func (w *Writer) TempDir() string {
	return w.tmpDir
}
