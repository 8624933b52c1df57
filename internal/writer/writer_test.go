package writer

import (
	"strings"
	"testing"
)

func TestCSVWritesHeaderOnce(t *testing.T) {
	var buf strings.Builder
	sink := NewCSV(&buf, []string{"code", "name"}, 2)

	rows := [][]string{{"11", "ACEH"}, {"12", "SUMATERA UTARA"}, {"13", "SUMATERA BARAT"}}
	for _, r := range rows {
		if err := sink.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := buf.String()
	if strings.Count(got, "code,name") != 1 {
		t.Errorf("header written more than once:\n%s", got)
	}
	want := "code,name\n11,ACEH\n12,SUMATERA UTARA\n13,SUMATERA BARAT\n"
	if got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestCSVEmptyOutputStillHasHeader(t *testing.T) {
	var buf strings.Builder
	sink := NewCSV(&buf, []string{"code", "name"}, 0)
	if err := sink.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.String() != "code,name\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCSVQuotesFields(t *testing.T) {
	var buf strings.Builder
	sink := NewCSV(&buf, []string{"code", "coordinate"}, 0)
	if err := sink.Write([]string{"11.01.40001", `03°19'03.44" N`}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"03°19'03.44"" N"`) {
		t.Errorf("field with quote not escaped: %q", buf.String())
	}
}
