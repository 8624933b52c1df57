package normalizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prasetya/wilayah/internal/fuzzy"
	"github.com/prasetya/wilayah/internal/writer"
)

var reportHeader = []string{
	"row_number", "code", "input_name", "status",
	"matched_code", "matched_name", "confidence", "alternatives",
}

// Report accumulates classification results in input order, keyed to the
// input file's column order.
type Report struct {
	header  []string
	results []Result
	counts  map[string]int
}

func NewReport(header []string) *Report {
	return &Report{header: header, counts: make(map[string]int)}
}

// Header returns the input file's column order.
func (r *Report) Header() []string { return r.header }

// Add appends one result. Callers must add results in row order; the
// pipeline guarantees this by reassembling worker output by ordinal.
func (r *Report) Add(res Result) {
	r.results = append(r.results, res)
	r.counts[res.Status]++
}

// Count returns how many rows landed on the given status.
func (r *Report) Count(status string) int { return r.counts[status] }

// Total returns the number of classified rows.
func (r *Report) Total() int { return len(r.results) }

// Results returns the accumulated results in input order.
func (r *Report) Results() []Result { return r.results }

// Summary renders a one-line census for logs.
func (r *Report) Summary() string {
	return fmt.Sprintf("rows=%d valid=%d corrected=%d ambiguous=%d not_found=%d",
		len(r.results),
		r.counts[StatusValid], r.counts[StatusCorrected],
		r.counts[StatusAmbiguous], r.counts[StatusNotFound])
}

// WriteCorrected streams every corrected row to sink using the input file's
// column order. Rows that could not be repaired pass through unchanged.
func (r *Report) WriteCorrected(sink writer.RowSink) error {
	for _, res := range r.results {
		row := make([]string, len(r.header))
		for i, col := range r.header {
			row[i] = res.Corrected[col]
		}
		if err := sink.Write(row); err != nil {
			return err
		}
	}
	return sink.Flush()
}

// WriteReport writes the per-row classification report as CSV.
func (r *Report) WriteReport(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("normalizer: write report header: %w", err)
	}
	for _, res := range r.results {
		row := []string{
			strconv.Itoa(res.RowNumber),
			res.Input["code"],
			res.Input["name"],
			res.Status,
			"", "", "",
			formatAlternatives(res.Alternatives),
		}
		if res.Matched != nil {
			row[4] = res.Matched.Code
			row[5] = res.Matched.Name
		}
		if res.Confidence > 0 {
			row[6] = strconv.FormatFloat(res.Confidence, 'f', 1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("normalizer: write report row %d: %w", res.RowNumber, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("normalizer: flush report: %w", err)
	}
	return nil
}

// formatAlternatives renders matches as "NAME (code, score); ...".
func formatAlternatives(matches []fuzzy.Match) string {
	if len(matches) == 0 {
		return ""
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("%s (%s, %s)", m.Value, m.Key, strconv.FormatFloat(m.Score, 'f', 1, 64))
	}
	return strings.Join(parts, "; ")
}
