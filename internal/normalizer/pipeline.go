package normalizer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/prasetya/wilayah/internal/area"
)

// DefaultWorkers is the fan-out width for row classification.
const DefaultWorkers = 4

// Pipeline fans rows out to workers and reassembles results in input order.
// The index inside the Normalizer is read-only, so workers share it without
// locking; ordering is restored by storing each result at its ordinal.
type Pipeline struct {
	norm    *Normalizer
	workers int
}

// NewPipeline wires a Pipeline. workers <= 0 falls back to the default.
func NewPipeline(norm *Normalizer, workers int) *Pipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{norm: norm, workers: workers}
}

// Run reads the input CSV, classifies every row concurrently, and returns
// the header in file order plus a Report whose row order matches the input.
// Row numbers are 1-based data rows; the header is row 0.
func (p *Pipeline) Run(ctx context.Context, t area.Type, input io.Reader) ([]string, *Report, error) {
	header, rows, err := readRows(input)
	if err != nil {
		return nil, nil, err
	}

	results := make([]Result, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = p.norm.Normalize(t, i+1, rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	report := NewReport(header)
	for _, res := range results {
		report.Add(res)
	}
	return header, report, nil
}

// readRows parses the whole input CSV into keyed rows. The first column of
// the header may carry a UTF-8 BOM; ragged rows are tolerated, missing
// cells read as empty.
func readRows(input io.Reader) ([]string, []Row, error) {
	r := csv.NewReader(input)
	r.FieldsPerRecord = -1

	rawHeader, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("normalizer: read input header: %w", err)
	}
	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if !contains(header, "code") || !contains(header, "name") {
		return nil, nil, fmt.Errorf("normalizer: input is missing code or name column")
	}

	var rows []Row
	line := 1
	for {
		raw, err := r.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("normalizer: read input row %d: %w", line, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = strings.TrimSpace(raw[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
