package groundtruth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prasetya/wilayah/internal/area"
	"github.com/prasetya/wilayah/internal/fuzzy"
)

// Index is the hierarchical ground-truth index. It is built once by Load
// and read-only afterwards, so it may be shared across goroutines without
// synchronization.
type Index struct {
	records  map[area.Type]map[string]*Record
	children map[area.Type]map[string][]*Record
	order    map[area.Type][]*Record
	issues   []Issue
}

// Load reads every *.csv under dir into a new Index. Files are classified
// by their header set; files matching no known schema are skipped with a
// warning. Rows with malformed codes or dangling parent references are
// recorded as integrity issues but still loaded (permissive-load,
// strict-report).
func Load(dir string, logger *slog.Logger) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("groundtruth: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("groundtruth: not a directory: %s", dir)
	}

	ix := &Index{
		records:  make(map[area.Type]map[string]*Record),
		children: make(map[area.Type]map[string][]*Record),
		order:    make(map[area.Type][]*Record),
	}
	for _, t := range area.Types {
		ix.records[t] = make(map[string]*Record)
		ix.children[t] = make(map[string][]*Record)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("groundtruth: read dir %s: %w", dir, err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		if err := ix.loadFile(filepath.Join(dir, e.Name()), e.Name(), logger); err != nil {
			logger.Warn("groundtruth: load failed",
				slog.String("file", e.Name()),
				slog.String("error", err.Error()))
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("groundtruth: no reference CSVs found in %s", dir)
	}

	ix.checkIntegrity()
	return ix, nil
}

// loadFile parses one CSV file into the index.
func (ix *Index) loadFile(path, name string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rawHeader, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	header := normalizeHeader(rawHeader)

	t, ok := detectType(header)
	if !ok {
		logger.Warn("groundtruth: unrecognized column set, skipping file",
			slog.String("file", name),
			slog.String("columns", strings.Join(header, ",")))
		return nil
	}
	spec := area.Specs[t]

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	line := 1
	for {
		row, err := r.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Structural CSV damage: report and stop this file, keep
			// whatever parsed cleanly.
			ix.issues = append(ix.issues, Issue{File: name, Line: line, Reason: fmt.Sprintf("unreadable row: %v", err)})
			break
		}

		field := func(h string) string {
			i, ok := col[h]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := &Record{
			Code:       field("code"),
			Name:       field("name"),
			ParentCode: field(spec.ParentColumn),
		}
		if len(spec.ExtraColumns) > 0 {
			rec.Extra = make(map[string]string, len(spec.ExtraColumns))
			for _, c := range spec.ExtraColumns {
				if v := field(c); v != "" {
					rec.Extra[c] = v
				}
			}
		}

		if !t.ValidCode(rec.Code) {
			ix.issues = append(ix.issues, Issue{File: name, Line: line, Code: rec.Code, Reason: "malformed code"})
		}
		if _, dup := ix.records[t][rec.Code]; dup {
			ix.issues = append(ix.issues, Issue{File: name, Line: line, Code: rec.Code, Reason: "duplicate code"})
			continue
		}

		ix.records[t][rec.Code] = rec
		ix.order[t] = append(ix.order[t], rec)
		if rec.ParentCode != "" {
			ix.children[t][rec.ParentCode] = append(ix.children[t][rec.ParentCode], rec)
		}
	}
	return nil
}

// checkIntegrity flags every non-province record whose parent code does not
// resolve in the parent area type. Violations are reported, never dropped.
func (ix *Index) checkIntegrity() {
	for _, t := range area.Types {
		spec := area.Specs[t]
		if spec.Parent == "" {
			continue
		}
		for _, rec := range ix.order[t] {
			if rec.ParentCode == "" {
				ix.issues = append(ix.issues, Issue{Code: rec.Code, Reason: fmt.Sprintf("%s record has no parent code", t)})
				continue
			}
			if _, ok := ix.records[spec.Parent][rec.ParentCode]; !ok {
				ix.issues = append(ix.issues, Issue{
					Code:   rec.Code,
					Reason: fmt.Sprintf("parent %s %q not found", spec.Parent, rec.ParentCode),
				})
			}
		}
	}
}

// Get returns the record with the given code, if any.
func (ix *Index) Get(t area.Type, code string) (*Record, bool) {
	rec, ok := ix.records[t][code]
	return rec, ok
}

// All returns every record of type t in load order.
func (ix *Index) All(t area.Type) []*Record {
	return ix.order[t]
}

// ChildrenOf returns the records of type t under parentCode, in load order.
// The result is empty, never nil-vs-present ambiguous, when the parent has
// no children.
func (ix *Index) ChildrenOf(t area.Type, parentCode string) []*Record {
	return ix.children[t][parentCode]
}

// SiblingsOf returns the records sharing code's immediate parent, excluding
// the record itself. For provinces the sibling pool is every other province.
func (ix *Index) SiblingsOf(t area.Type, code string) []*Record {
	rec, ok := ix.records[t][code]
	if !ok {
		return nil
	}
	var pool []*Record
	if rec.ParentCode == "" {
		pool = ix.order[t]
	} else {
		pool = ix.children[t][rec.ParentCode]
	}
	out := make([]*Record, 0, len(pool))
	for _, r := range pool {
		if r != rec {
			out = append(out, r)
		}
	}
	return out
}

// SearchName fuzzy-searches names of type t. When parentCode is non-empty
// and has children, the candidate pool is scoped to them; otherwise the
// whole type is searched.
func (ix *Index) SearchName(t area.Type, parentCode, query string, topN int, threshold float64) []fuzzy.Match {
	pool := ix.children[t][parentCode]
	if parentCode == "" || len(pool) == 0 {
		pool = ix.order[t]
	}
	cands := make([]fuzzy.Candidate, len(pool))
	for i, r := range pool {
		cands[i] = fuzzy.Candidate{Value: r.Name, Key: r.Code}
	}
	return fuzzy.Search(query, cands, topN, threshold)
}

// Count returns the number of records loaded for t.
func (ix *Index) Count(t area.Type) int {
	return len(ix.order[t])
}

// Issues returns the load-time integrity findings.
func (ix *Index) Issues() []Issue {
	return ix.issues
}

// Summary returns a one-line census of the loaded dataset.
func (ix *Index) Summary() string {
	return fmt.Sprintf("provinces=%d regencies=%d districts=%d villages=%d islands=%d issues=%d",
		ix.Count(area.Province), ix.Count(area.Regency), ix.Count(area.District),
		ix.Count(area.Village), ix.Count(area.Island), len(ix.issues))
}

// normalizeHeader strips a UTF-8 BOM, trims whitespace, and lower-cases
// every column name. Column order is irrelevant to detection.
func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// detectType classifies a CSV by its header set. Checks run most-specific
// first: island columns are a superset of district columns, and village
// columns would otherwise be mistaken for districts.
func detectType(header []string) (area.Type, bool) {
	set := make(map[string]bool, len(header))
	for _, h := range header {
		set[h] = true
	}
	switch {
	case set["regency_code"] && (set["coordinate"] || set["is_populated"]):
		return area.Island, true
	case set["district_code"]:
		return area.Village, true
	case set["regency_code"]:
		return area.District, true
	case set["province_code"]:
		return area.Regency, true
	case set["code"] && set["name"]:
		return area.Province, true
	}
	return "", false
}
