// Package testutil provides shared test helpers for building ground-truth
// fixtures.
package testutil

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prasetya/wilayah/internal/groundtruth"
)

// fixture is a small but structurally complete dataset: two provinces, a
// cluster of Aceh regencies with near-collision names, districts, villages,
// and one island with the optional extra columns populated.
var fixture = map[string][][]string{
	"provinces.csv": {
		{"code", "name"},
		{"11", "ACEH"},
		{"12", "SUMATERA UTARA"},
	},
	"regencies.csv": {
		{"code", "province_code", "name"},
		{"11.01", "11", "ACEH SELATAN"},
		{"11.02", "11", "ACEH TENGGARA"},
		{"11.05", "11", "ACEH BARAT"},
		{"11.71", "11", "KOTA BANDA ACEH"},
		{"12.01", "12", "TAPANULI TENGAH"},
	},
	"districts.csv": {
		{"code", "regency_code", "name"},
		{"11.01.01", "11.01", "BAKONGAN"},
		{"11.01.02", "11.01", "KLUET UTARA"},
	},
	"villages.csv": {
		{"code", "district_code", "name"},
		{"11.01.01.2001", "11.01.01", "KEUDE BAKONGAN"},
		{"11.01.01.2002", "11.01.01", "UJONG MANGKI"},
	},
	"islands.csv": {
		{"code", "regency_code", "name", "coordinate", "is_populated", "is_outermost_small"},
		{"11.01.40001", "11.01", "PULAU BATUKAPAL", `03°19'03.44" N 097°07'41.73" E`, "0", "0"},
	},
}

// WriteGroundTruth materializes the fixture dataset in a temp directory.
func WriteGroundTruth(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, rows := range fixture {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		w := csv.NewWriter(f)
		if err := w.WriteAll(rows); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close %s: %v", name, err)
		}
	}
	return dir
}

// LoadIndex builds an index over the fixture dataset.
func LoadIndex(t *testing.T) *groundtruth.Index {
	t.Helper()
	ix, err := groundtruth.Load(WriteGroundTruth(t), Silent())
	if err != nil {
		t.Fatalf("load fixture index: %v", err)
	}
	return ix
}

// Silent returns a logger that discards everything.
func Silent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
