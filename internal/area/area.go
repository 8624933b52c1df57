// Package area defines the administrative area types and the per-type
// schema table consulted by the ground-truth loader and the normalizer.
package area

import (
	"fmt"
	"regexp"
	"strings"
)

// Type identifies one level of the administrative hierarchy.
type Type string

const (
	Province Type = "province"
	Regency  Type = "regency"
	District Type = "district"
	Village  Type = "village"
	Island   Type = "island"
)

// Types lists every supported area type, parents before children.
var Types = []Type{Province, Regency, District, Village, Island}

// Spec describes the CSV schema and code format of one area type.
//
// Differences between area types are data, not behavior: the loader and the
// normalizer consult this table instead of branching per type.
type Spec struct {
	// Columns are the required CSV header names for this area type.
	Columns []string
	// ParentColumn is the column holding the parent code, "" for provinces.
	ParentColumn string
	// Parent is the immediate parent area type, "" for provinces.
	Parent Type
	// CodePattern validates the dotted fixed-width numeric code.
	CodePattern *regexp.Regexp
	// ExtraColumns are optional columns carried through to Record.Extra.
	ExtraColumns []string
}

// Specs is the schema table keyed by area type.
//
// Code formats: province "NN", regency "NN.NN", district "NN.NN.NN",
// village "NN.NN.NN.NNNN". Islands sit beside villages with a 2+2+5 digit
// scheme keyed under a regency.
var Specs = map[Type]Spec{
	Province: {
		Columns:     []string{"code", "name"},
		CodePattern: regexp.MustCompile(`^\d{2}$`),
	},
	Regency: {
		Columns:      []string{"code", "province_code", "name"},
		ParentColumn: "province_code",
		Parent:       Province,
		CodePattern:  regexp.MustCompile(`^\d{2}\.\d{2}$`),
	},
	District: {
		Columns:      []string{"code", "regency_code", "name"},
		ParentColumn: "regency_code",
		Parent:       Regency,
		CodePattern:  regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`),
	},
	Village: {
		Columns:      []string{"code", "district_code", "name"},
		ParentColumn: "district_code",
		Parent:       District,
		CodePattern:  regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}\.\d{4}$`),
	},
	Island: {
		Columns:      []string{"code", "regency_code", "name"},
		ParentColumn: "regency_code",
		Parent:       Regency,
		CodePattern:  regexp.MustCompile(`^\d{2}\.\d{2}\.\d{5}$`),
		ExtraColumns: []string{"coordinate", "is_populated", "is_outermost_small"},
	},
}

// Parse converts a user-supplied string into a Type.
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Specs[t]; !ok {
		return "", fmt.Errorf("area: unknown area type %q", s)
	}
	return t, nil
}

// ValidCode reports whether code matches the format expected for t.
func (t Type) ValidCode(code string) bool {
	spec, ok := Specs[t]
	if !ok {
		return false
	}
	return spec.CodePattern.MatchString(code)
}

// ChildOf returns the area type whose parent is t, or "" for leaf types.
// Islands are never returned: they are a sibling scheme under regencies,
// not the next hierarchy level.
func ChildOf(t Type) Type {
	switch t {
	case Province:
		return Regency
	case Regency:
		return District
	case District:
		return Village
	default:
		return ""
	}
}

// Headers returns the full output column set for t: required columns
// followed by the optional extras.
func (t Type) Headers() []string {
	spec := Specs[t]
	out := make([]string, 0, len(spec.Columns)+len(spec.ExtraColumns))
	out = append(out, spec.Columns...)
	out = append(out, spec.ExtraColumns...)
	return out
}

func (t Type) String() string { return string(t) }
