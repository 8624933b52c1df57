package groundtruth

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prasetya/wilayah/internal/area"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func loadDir(t *testing.T, files map[string]string) *Index {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	ix, err := Load(dir, discardLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ix
}

func TestLoadDetectsAreaTypesByHeaders(t *testing.T) {
	ix := loadDir(t, map[string]string{
		// Column order differs per file on purpose: detection is by set.
		"prov.csv": "name,code\nACEH,11\nSUMATERA UTARA,12\n",
		"reg.csv":  "code,province_code,name\n11.01,11,ACEH SELATAN\n11.05,11,ACEH BARAT\n",
		"dis.csv":  "regency_code,code,name\n11.01,11.01.01,BAKONGAN\n11.01,11.01.02,KLUET UTARA\n",
		"vil.csv":  "code,district_code,name\n11.01.01.2001,11.01.01,KEUDE BAKONGAN\n",
		"isl.csv":  "code,regency_code,name,coordinate,is_populated\n11.01.40001,11.01,PULAU BATUKAPAL,,1\n",
	})

	if got := ix.Count(area.Province); got != 2 {
		t.Errorf("provinces = %d, want 2", got)
	}
	if got := ix.Count(area.Regency); got != 2 {
		t.Errorf("regencies = %d, want 2", got)
	}
	if got := ix.Count(area.District); got != 2 {
		t.Errorf("districts = %d, want 2", got)
	}
	if got := ix.Count(area.Village); got != 1 {
		t.Errorf("villages = %d, want 1", got)
	}
	if got := ix.Count(area.Island); got != 1 {
		t.Errorf("islands = %d, want 1", got)
	}
	if len(ix.Issues()) != 0 {
		t.Errorf("unexpected issues: %v", ix.Issues())
	}
}

func TestLoadStripsBOMFromHeader(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "\ufeffcode,name\n11,ACEH\n",
	})
	if _, ok := ix.Get(area.Province, "11"); !ok {
		t.Error("BOM-prefixed header should still resolve the code column")
	}
}

func TestLoadSkipsUnrecognizedFile(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "code,name\n11,ACEH\n",
		"random.csv":    "foo,bar\n1,2\n",
	})
	if got := ix.Count(area.Province); got != 1 {
		t.Errorf("provinces = %d, want 1", got)
	}
}

func TestLoadEmptyDirFails(t *testing.T) {
	if _, err := Load(t.TempDir(), discardLogger()); err == nil {
		t.Error("expected error for directory without reference CSVs")
	}
}

func TestLoadMissingDirFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope"), discardLogger()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDanglingParentReported(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "code,name\n11,ACEH\n",
		"regencies.csv": "code,province_code,name\n11.01,11,ACEH SELATAN\n99.01,99,GHOST\n",
	})
	if _, ok := ix.Get(area.Regency, "99.01"); !ok {
		t.Error("record with dangling parent must still be loaded")
	}
	found := false
	for _, is := range ix.Issues() {
		if is.Code == "99.01" {
			found = true
		}
	}
	if !found {
		t.Errorf("dangling parent not reported: %v", ix.Issues())
	}
}

func TestMalformedCodeReported(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "code,name\n1A,BROKEN\n11,ACEH\n",
	})
	if ix.Count(area.Province) != 2 {
		t.Errorf("permissive load should keep malformed rows, got %d", ix.Count(area.Province))
	}
	found := false
	for _, is := range ix.Issues() {
		if is.Code == "1A" && is.Reason == "malformed code" {
			found = true
		}
	}
	if !found {
		t.Errorf("malformed code not reported: %v", ix.Issues())
	}
}

func TestDuplicateCodeKeepsFirst(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "code,name\n11,ACEH\n11,ACEH COPY\n",
	})
	rec, _ := ix.Get(area.Province, "11")
	if rec.Name != "ACEH" {
		t.Errorf("duplicate should keep first record, got %q", rec.Name)
	}
	if len(ix.Issues()) == 0 {
		t.Error("duplicate code should be reported")
	}
}

func TestChildrenOfAndSiblings(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "code,name\n11,ACEH\n12,SUMATERA UTARA\n",
		"regencies.csv": "code,province_code,name\n11.01,11,ACEH SELATAN\n11.05,11,ACEH BARAT\n12.01,12,TAPANULI TENGAH\n",
	})

	children := ix.ChildrenOf(area.Regency, "11")
	if len(children) != 2 {
		t.Fatalf("children of 11 = %d, want 2", len(children))
	}
	if children[0].Code != "11.01" || children[1].Code != "11.05" {
		t.Errorf("children order not load order: %v", children)
	}

	if got := ix.ChildrenOf(area.Regency, "13"); len(got) != 0 {
		t.Errorf("children of unknown parent should be empty, got %v", got)
	}

	sibs := ix.SiblingsOf(area.Regency, "11.01")
	if len(sibs) != 1 || sibs[0].Code != "11.05" {
		t.Errorf("siblings of 11.01 = %v", sibs)
	}

	// Provinces have no parent: siblings are all other provinces.
	psibs := ix.SiblingsOf(area.Province, "11")
	if len(psibs) != 1 || psibs[0].Code != "12" {
		t.Errorf("province siblings = %v", psibs)
	}
}

func TestSearchNameScopesToParent(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"provinces.csv": "code,name\n11,ACEH\n12,SUMATERA UTARA\n",
		"regencies.csv": "code,province_code,name\n11.01,11,ACEH SELATAN\n12.01,12,ACEH SELATAN RANTAU\n",
	})

	matches := ix.SearchName(area.Regency, "11", "ACEH SELTAN", 5, 60)
	if len(matches) != 1 {
		t.Fatalf("matches = %v, want single scoped hit", matches)
	}
	if matches[0].Key != "11.01" {
		t.Errorf("match key = %q, want 11.01", matches[0].Key)
	}
}

func TestIslandExtrasPreserved(t *testing.T) {
	ix := loadDir(t, map[string]string{
		"islands.csv": "code,regency_code,name,coordinate,is_populated,is_outermost_small\n" +
			`11.01.40001,11.01,PULAU BATUKAPAL,"03°19'03.44"" N 097°07'41.73"" E",0,1` + "\n",
	})
	rec, ok := ix.Get(area.Island, "11.01.40001")
	if !ok {
		t.Fatal("island not loaded")
	}
	if rec.Extra["coordinate"] == "" {
		t.Error("coordinate not preserved")
	}
	if rec.Extra["is_outermost_small"] != "1" {
		t.Errorf("is_outermost_small = %q", rec.Extra["is_outermost_small"])
	}
}
