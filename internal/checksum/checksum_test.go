package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("code,name\n11,ACEH\n"))
	b := Sum([]byte("code,name\n11,ACEH\n"))
	if a != b {
		t.Error("identical input must hash identically")
	}
	if a == Sum([]byte("code,name\n12,SUMATERA UTARA\n")) {
		t.Error("different input must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestFileMatchesSum(t *testing.T) {
	data := []byte("code,name\n11,ACEH\n")
	path := filepath.Join(t.TempDir(), "provinces.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != Sum(data) {
		t.Errorf("File = %s, Sum = %s", got, Sum(data))
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
