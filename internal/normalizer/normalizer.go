// Package normalizer classifies input rows against the ground-truth index
// and repairs the ones it can.
package normalizer

import (
	"github.com/prasetya/wilayah/internal/area"
	"github.com/prasetya/wilayah/internal/fuzzy"
	"github.com/prasetya/wilayah/internal/groundtruth"
)

// Classification statuses, in the order they are decided.
const (
	StatusValid     = "valid"
	StatusCorrected = "corrected"
	StatusAmbiguous = "ambiguous"
	StatusNotFound  = "not_found"
)

// Defaults for the classification thresholds.
const (
	DefaultConfidenceThreshold = 80.0
	DefaultTieMargin           = 5.0
	DefaultTopN                = 3
)

// Row is one input record keyed by lower-cased column name.
type Row map[string]string

// Result is the classification of a single row. Matched is nil exactly when
// the input code resolved to nothing; Confidence is zero unless a fuzzy
// correction was accepted.
type Result struct {
	RowNumber    int
	Area         area.Type
	Input        Row
	Corrected    Row
	Status       string
	Matched      *groundtruth.Record
	Confidence   float64
	Alternatives []fuzzy.Match
}

// Normalizer classifies rows against a read-only index. It holds no mutable
// state, so one instance serves any number of goroutines.
type Normalizer struct {
	index     *groundtruth.Index
	threshold float64
	tieMargin float64
	topN      int
}

// New builds a Normalizer. Non-positive threshold or margin fall back to
// the defaults.
func New(ix *groundtruth.Index, threshold, tieMargin float64) *Normalizer {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if tieMargin <= 0 {
		tieMargin = DefaultTieMargin
	}
	return &Normalizer{index: ix, threshold: threshold, tieMargin: tieMargin, topN: DefaultTopN}
}

// Normalize classifies one row.
//
// An unknown code short-circuits to not_found: a code that resolves to
// nothing is not found by definition, whatever the name says. A known code
// with an exact name is valid, with the parent reference repaired if it
// drifted. Everything else goes through fuzzy matching scoped to the
// record's siblings.
func (n *Normalizer) Normalize(t area.Type, rowNumber int, input Row) Result {
	res := Result{
		RowNumber: rowNumber,
		Area:      t,
		Input:     input,
		Corrected: cloneRow(input),
	}

	rec, ok := n.index.Get(t, input["code"])
	if !ok {
		res.Status = StatusNotFound
		return res
	}

	spec := area.Specs[t]
	if fuzzy.Equal(input["name"], rec.Name) {
		res.Matched = rec
		if spec.ParentColumn != "" && input[spec.ParentColumn] != rec.ParentCode {
			res.Status = StatusCorrected
			res.Corrected[spec.ParentColumn] = rec.ParentCode
			return res
		}
		res.Status = StatusValid
		return res
	}

	matches := n.searchSiblings(t, rec, input["name"])
	if len(matches) == 0 {
		// Code hit, name miss. The code-matched record stays attached so
		// callers can tell this apart from an unknown code.
		res.Status = StatusNotFound
		res.Matched = rec
		return res
	}

	if len(matches) > 1 && matches[0].Score-matches[1].Score < n.tieMargin {
		res.Status = StatusAmbiguous
		res.Alternatives = matches
		return res
	}

	matched, _ := n.index.Get(t, matches[0].Key)
	res.Status = StatusCorrected
	res.Matched = matched
	res.Confidence = matches[0].Score
	res.Alternatives = matches
	n.adopt(res.Corrected, spec, matched)
	return res
}

// searchSiblings runs the fuzzy engine over the record's sibling pool, the
// record itself included. Provinces have no parent, so their pool is every
// province.
func (n *Normalizer) searchSiblings(t area.Type, rec *groundtruth.Record, name string) []fuzzy.Match {
	var pool []*groundtruth.Record
	if rec.ParentCode == "" {
		pool = n.index.All(t)
	} else {
		pool = n.index.ChildrenOf(t, rec.ParentCode)
	}
	cands := make([]fuzzy.Candidate, len(pool))
	for i, r := range pool {
		cands[i] = fuzzy.Candidate{Value: r.Name, Key: r.Code}
	}
	return fuzzy.Search(name, cands, n.topN, n.threshold)
}

// adopt rewrites row to the matched ground-truth record: code, name, parent
// reference, and any island extras. A corrected row re-normalizes as valid.
func (n *Normalizer) adopt(row Row, spec area.Spec, matched *groundtruth.Record) {
	row["code"] = matched.Code
	row["name"] = matched.Name
	if spec.ParentColumn != "" {
		row[spec.ParentColumn] = matched.ParentCode
	}
	for _, c := range spec.ExtraColumns {
		if v, ok := matched.Extra[c]; ok {
			row[c] = v
		}
	}
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
