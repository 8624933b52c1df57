// Package fuzzy scores candidate names against a query string.
//
// Scores use the indel similarity ratio (insert/delete cost 1, substitution
// cost 2) on normalized strings, expressed in [0,100].
package fuzzy

import (
	"sort"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// Candidate pairs a display value with an opaque key, typically an area code.
type Candidate struct {
	Value string
	Key   string
}

// Match is a scored candidate.
type Match struct {
	Candidate
	Score float64
}

// abbreviations maps common administrative prefixes to their canonical long
// form. The same rewrite is applied to queries and candidates, so it can
// never inflate one side of a comparison, and it never removes a
// distinguishing token ("KOTA BEKASI" stays distinct from "BEKASI").
var abbreviations = map[string]string{
	"KAB":  "KABUPATEN",
	"KAB.": "KABUPATEN",
	"KEC":  "KECAMATAN",
	"KEC.": "KECAMATAN",
	"KEL":  "KELURAHAN",
	"KEL.": "KELURAHAN",
	"ADM":  "ADMINISTRASI",
	"ADM.": "ADMINISTRASI",
}

// Normalize prepares a name for comparison: fold diacritics to ASCII,
// uppercase, collapse runs of whitespace, trim, and expand administrative
// abbreviations.
func Normalize(s string) string {
	s = unidecode.Unidecode(s)
	s = strings.ToUpper(s)
	fields := strings.Fields(s)
	for i, f := range fields {
		if full, ok := abbreviations[f]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, " ")
}

// Equal reports whether two names are the same after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Ratio returns the indel similarity of two already-normalized strings.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 * (1 - float64(dist)/float64(total))
}

// Search scores every candidate against query and returns at most topN
// matches with Score >= threshold, best first. Candidates scoring equally
// keep their input order, so results are deterministic.
func Search(query string, candidates []Candidate, topN int, threshold float64) []Match {
	if topN <= 0 || len(candidates) == 0 {
		return nil
	}
	q := Normalize(query)
	if q == "" {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := Ratio(q, Normalize(c.Value))
		if score >= threshold {
			matches = append(matches, Match{Candidate: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}
