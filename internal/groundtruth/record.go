// Package groundtruth loads the reference dataset into an immutable
// in-memory index with O(1) code lookup and parent-scoped iteration.
package groundtruth

// Record is a single reference row for one area.
//
// Code is unique within its area type. ParentCode is empty for provinces.
// Extra carries optional columns such as island coordinates.
type Record struct {
	Code       string
	Name       string
	ParentCode string
	Extra      map[string]string
}

// Issue is a load-time data-integrity finding. Issues never abort a load;
// callers inspect them after construction.
type Issue struct {
	File   string
	Line   int
	Code   string
	Reason string
}
