package fuzzy

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Aceh ", "ACEH"},
		{"  aceh   besar ", "ACEH BESAR"},
		{"Kab. Bogor", "KABUPATEN BOGOR"},
		{"KAB BOGOR", "KABUPATEN BOGOR"},
		{"Kota Bekasi", "KOTA BEKASI"},
		{"Kec. Kluet\tUtara", "KECAMATAN KLUET UTARA"},
		{"Émpat Lawang", "EMPAT LAWANG"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEqualIsCaseAndSpaceInsensitive(t *testing.T) {
	if !Equal("Aceh ", "ACEH") {
		t.Error("Equal should ignore case and surrounding whitespace")
	}
	if Equal("ACEH", "ACEH BESAR") {
		t.Error("Equal must not match different names")
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("ACEH", "ACEH"); got != 100 {
		t.Errorf("identical strings = %v, want 100", got)
	}
	// One missing letter: indel distance 1 over combined length 23.
	got := Ratio("ACEH SELTAN", "ACEH SELATAN")
	want := 100 * (1 - 1.0/23.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Ratio = %v, want %v", got, want)
	}
	// A regency name against its province is a poor match.
	if got := Ratio("ACEH BESAR", "ACEH"); got >= 80 {
		t.Errorf("Ratio(ACEH BESAR, ACEH) = %v, want < 80", got)
	}
}

func TestSearchOrdersAndFilters(t *testing.T) {
	candidates := []Candidate{
		{Value: "ACEH SELATAN", Key: "11.01"},
		{Value: "ACEH TENGGARA", Key: "11.02"},
		{Value: "ACEH BARAT", Key: "11.05"},
	}
	matches := Search("ACEH SELTAN", candidates, 3, 80)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	if matches[0].Key != "11.01" {
		t.Errorf("top match = %q, want 11.01", matches[0].Key)
	}
	if matches[0].Score < 80 {
		t.Errorf("score = %v, want >= 80", matches[0].Score)
	}
}

func TestSearchStableOnTies(t *testing.T) {
	candidates := []Candidate{
		{Value: "PULAU PANJANG", Key: "a"},
		{Value: "PULAU PANJANG", Key: "b"},
	}
	matches := Search("PULAU PANJANG", candidates, 5, 50)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Key != "a" || matches[1].Key != "b" {
		t.Errorf("tie order not stable: %v", matches)
	}
}

func TestSearchRespectsTopN(t *testing.T) {
	candidates := []Candidate{
		{Value: "SUKAMAJU", Key: "1"},
		{Value: "SUKAMAJU BARU", Key: "2"},
		{Value: "SUKAMAJU LAMA", Key: "3"},
	}
	matches := Search("SUKAMAJU", candidates, 2, 10)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Key != "1" {
		t.Errorf("top match = %q, want exact candidate first", matches[0].Key)
	}
}

func TestSearchEmptyInputs(t *testing.T) {
	if m := Search("", []Candidate{{Value: "X"}}, 5, 0); m != nil {
		t.Errorf("empty query should return nil, got %v", m)
	}
	if m := Search("X", nil, 5, 0); m != nil {
		t.Errorf("no candidates should return nil, got %v", m)
	}
	if m := Search("X", []Candidate{{Value: "X"}}, 0, 0); m != nil {
		t.Errorf("topN=0 should return nil, got %v", m)
	}
}
