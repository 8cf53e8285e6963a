package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mhzhou/universe-data/internal/model"
)

var testAsOf = time.Date(2026, 8, 23, 6, 30, 15, 0, time.UTC)

func testRecord(symbol, category string) model.StockRecord {
	return model.StockRecord{
		Exchange:  model.ExchangeShanghai,
		Symbol:    symbol,
		Name:      symbol,
		Category:  category,
		SourceURL: "https://example.com",
		AsOf:      testAsOf,
	}
}

func TestFormatTimestamp(t *testing.T) {
	got := FormatTimestamp(testAsOf)
	want := "2026-08-23T06-30-15Z"
	if got != want {
		t.Errorf("FormatTimestamp = %q, want %q", got, want)
	}

	// Non-UTC inputs must render in UTC.
	est := time.FixedZone("EST", -5*60*60)
	got = FormatTimestamp(time.Date(2026, 8, 23, 1, 30, 15, 0, est))
	if got != want {
		t.Errorf("FormatTimestamp (EST input) = %q, want %q", got, want)
	}
}

func TestSafeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STOCK_TYPE_1_主板A股", "STOCK_TYPE_1_主板A股"},
		{"a/b\\c:d", "a_b_c_d"},
		{`x*y?z"w`, "x_y_z_w"},
		{"a<b>c|d", "a_b_c_d"},
		{"tab\there space here", "tab_here_space_here"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SafeCategory(tt.in); got != tt.want {
			t.Errorf("SafeCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriterStagesUntilPromote(t *testing.T) {
	baseDir := t.TempDir()
	w, err := NewWriter(baseDir, testAsOf, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Close()

	if err := w.Write(testRecord("600105", "STOCK_TYPE_1_主板A股")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Before Promote the final directory must not exist and no visible
	// snapshot may be listed.
	finalDir := filepath.Join(baseDir, "snapshot="+FormatTimestamp(testAsOf))
	if _, err := os.Stat(finalDir); !os.IsNotExist(err) {
		t.Errorf("final dir exists before Promote (stat err = %v)", err)
	}
	snapshots, err := List(baseDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 0 {
		t.Errorf("List found %d snapshots before Promote, want 0", len(snapshots))
	}

	path, err := w.Promote()
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if path != finalDir {
		t.Errorf("Promote path = %q, want %q", path, finalDir)
	}
	if _, err := os.Stat(w.TempDir()); !os.IsNotExist(err) {
		t.Errorf("staging dir still present after Promote (stat err = %v)", err)
	}
}

func TestWriterGroupsAndOrder(t *testing.T) {
	w, err := NewWriter(t.TempDir(), testAsOf, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Close()

	records := []model.StockRecord{
		testRecord("600105", "STOCK_TYPE_1_主板A股"),
		testRecord("688001", "STOCK_TYPE_8_科创板"),
		testRecord("600006", "STOCK_TYPE_1_主板A股"),
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write(%s) failed: %v", rec.Symbol, err)
		}
	}

	path, err := w.Promote()
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	if w.Total() != 3 {
		t.Errorf("Total = %d, want 3", w.Total())
	}
	counts := w.Counts()["Shanghai_Stocks"]
	if counts["STOCK_TYPE_1_主板A股"] != 2 || counts["STOCK_TYPE_8_科创板"] != 1 {
		t.Errorf("Counts = %v", counts)
	}

	wantFiles := []string{
		filepath.Join("Shanghai_Stocks", "class=STOCK_TYPE_1_主板A股.jsonl"),
		filepath.Join("Shanghai_Stocks", "class=STOCK_TYPE_8_科创板.jsonl"),
	}
	files := w.OutputFiles()
	if len(files) != len(wantFiles) {
		t.Fatalf("OutputFiles = %v, want %v", files, wantFiles)
	}
	for i := range wantFiles {
		if files[i] != wantFiles[i] {
			t.Errorf("OutputFiles[%d] = %q, want %q", i, files[i], wantFiles[i])
		}
	}

	// Line order within a group file is insertion order.
	f, err := os.Open(filepath.Join(path, wantFiles[0]))
	if err != nil {
		t.Fatalf("open group file: %v", err)
	}
	defer f.Close()

	var symbols []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.StockRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		symbols = append(symbols, rec.Symbol)
	}
	if len(symbols) != 2 || symbols[0] != "600105" || symbols[1] != "600006" {
		t.Errorf("group file symbols = %v, want [600105 600006]", symbols)
	}
}

func TestWriteManifestRequiresPromote(t *testing.T) {
	w, err := NewWriter(t.TempDir(), testAsOf, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Close()

	err = w.WriteManifest(&model.Manifest{ID: "test"})
	var storage *StorageError
	if !errors.As(err, &storage) {
		t.Fatalf("error = %v (%T), want *StorageError", err, err)
	}
}

func TestWriteManifest(t *testing.T) {
	w, err := NewWriter(t.TempDir(), testAsOf, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := w.Write(testRecord("600105", "STOCK_TYPE_1_主板A股")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	path, err := w.Promote()
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	manifest := &model.Manifest{
		ID:              "8b5c1b2e-0000-0000-0000-000000000000",
		AsOf:            testAsOf,
		Exchanges:       w.Counts(),
		RawCount:        1,
		NormalizedCount: 1,
		OutputFiles:     w.OutputFiles(),
	}
	if err := w.WriteManifest(manifest); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(path, ManifestFile))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got model.Manifest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if got.ID != manifest.ID {
		t.Errorf("manifest ID = %q, want %q", got.ID, manifest.ID)
	}
	if got.NormalizedCount != 1 {
		t.Errorf("NormalizedCount = %d, want 1", got.NormalizedCount)
	}
}

func TestPromoteRefusesExistingSnapshot(t *testing.T) {
	baseDir := t.TempDir()

	first, err := NewWriter(baseDir, testAsOf, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if _, err := first.Promote(); err != nil {
		t.Fatalf("first Promote failed: %v", err)
	}

	second, err := NewWriter(baseDir, testAsOf, nil)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer second.Close()

	_, err = second.Promote()
	var storage *StorageError
	if !errors.As(err, &storage) {
		t.Fatalf("error = %v (%T), want *StorageError", err, err)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v, want mention of existing snapshot", err)
	}
	// The staging directory survives for inspection.
	if _, err := os.Stat(second.TempDir()); err != nil {
		t.Errorf("staging dir missing after failed Promote: %v", err)
	}
}

func TestListSkipsStagingAndSorts(t *testing.T) {
	baseDir := t.TempDir()

	for _, name := range []string{
		"snapshot=2026-08-23T06-30-15Z",
		"snapshot=2026-08-22T06-30-15Z",
		".snapshot=2026-08-21T06-30-15Z.tmp-123",
		"unrelated",
	} {
		if err := os.Mkdir(filepath.Join(baseDir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	m := model.Manifest{ID: "abc", NormalizedCount: 7}
	data, _ := json.Marshal(m)
	manifestPath := filepath.Join(baseDir, "snapshot=2026-08-22T06-30-15Z", ManifestFile)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	snapshots, err := List(baseDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("List found %d snapshots, want 2", len(snapshots))
	}
	if snapshots[0].Name != "snapshot=2026-08-22T06-30-15Z" {
		t.Errorf("snapshots[0] = %q, want oldest first", snapshots[0].Name)
	}
	if snapshots[0].Manifest == nil || snapshots[0].Manifest.ID != "abc" {
		t.Errorf("snapshots[0].Manifest = %+v, want ID abc", snapshots[0].Manifest)
	}
	if snapshots[1].Manifest != nil {
		t.Errorf("snapshots[1].Manifest = %+v, want nil without manifest file", snapshots[1].Manifest)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	snapshots, err := List(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if snapshots != nil {
		t.Errorf("snapshots = %v, want nil", snapshots)
	}
}
