package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhzhou/universe-data/internal/model"
)

// SnapshotInfo describes one promoted snapshot.
type SnapshotInfo struct {
	Name     string
	Path     string
	Manifest *model.Manifest // nil when the manifest is missing or unreadable
}

// List enumerates promoted snapshots under baseDir, oldest first. Staging
// directories are skipped. A missing baseDir yields an empty list.
func List(baseDir string) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Op: "list", Path: baseDir, Err: err}
	}

	var snapshots []SnapshotInfo
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "snapshot=") {
			continue
		}

		info := SnapshotInfo{
			Name: e.Name(),
			Path: filepath.Join(baseDir, e.Name()),
		}

		data, err := os.ReadFile(filepath.Join(info.Path, ManifestFile))
		if err == nil {
			var m model.Manifest
			if json.Unmarshal(data, &m) == nil {
				info.Manifest = &m
			}
		}

		snapshots = append(snapshots, info)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name < snapshots[j].Name
	})
	return snapshots, nil
}
