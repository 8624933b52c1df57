package normalizer

import (
	"context"
	"strings"
	"testing"

	"github.com/prasetya/wilayah/internal/area"
	"github.com/prasetya/wilayah/internal/writer"
)

func TestPipelinePreservesInputOrder(t *testing.T) {
	n := fixtureNormalizer(t)
	p := NewPipeline(n, 8)

	input := "\ufeffcode,province_code,name\n" +
		"11.01,11,ACEH SELTAN\n" +
		"11.02,11,ACEH TENGGARA\n" +
		"99.99,99,GHOST\n" +
		"11.05,11,Aceh Barat\n"

	header, report, err := p.Run(context.Background(), area.Regency, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(header) != 3 || header[0] != "code" {
		t.Errorf("header = %v", header)
	}
	if report.Total() != 4 {
		t.Fatalf("total = %d, want 4", report.Total())
	}

	wantStatus := []string{StatusCorrected, StatusValid, StatusNotFound, StatusValid}
	for i, res := range report.Results() {
		if res.Status != wantStatus[i] {
			t.Errorf("row %d status = %q, want %q", i+1, res.Status, wantStatus[i])
		}
		if res.RowNumber != i+1 {
			t.Errorf("row %d numbered %d", i+1, res.RowNumber)
		}
	}
}

func TestPipelineMissingColumnsFails(t *testing.T) {
	p := NewPipeline(fixtureNormalizer(t), 1)
	if _, _, err := p.Run(context.Background(), area.Province, strings.NewReader("foo,bar\n1,2\n")); err == nil {
		t.Error("expected error for input without code and name columns")
	}
}

func TestWriteCorrectedRoundTrip(t *testing.T) {
	n := fixtureNormalizer(t)
	p := NewPipeline(n, 2)

	input := "code,province_code,name\n11.01,11,ACEH SELTAN\n11.02,11,ACEH TENGGARA\n"
	header, report, err := p.Run(context.Background(), area.Regency, strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Header(); len(got) != 3 || got[0] != "code" {
		t.Errorf("report header = %v, want input column order", got)
	}

	var buf strings.Builder
	if err := report.WriteCorrected(writer.NewCSV(&buf, header, 0)); err != nil {
		t.Fatalf("WriteCorrected: %v", err)
	}

	want := "code,province_code,name\n11.01,11,ACEH SELATAN\n11.02,11,ACEH TENGGARA\n"
	if buf.String() != want {
		t.Errorf("corrected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteReport(t *testing.T) {
	n := fixtureNormalizer(t)
	p := NewPipeline(n, 2)

	input := "code,province_code,name\n11.01,11,ACEH SELTAN\n99.99,99,GHOST\n"
	_, report, err := p.Run(context.Background(), area.Regency, strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	if err := report.WriteReport(&buf); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "row_number,code,input_name,status,matched_code,matched_name,confidence,alternatives\n") {
		t.Errorf("report header wrong:\n%s", out)
	}
	if !strings.Contains(out, "1,11.01,ACEH SELTAN,corrected,11.01,ACEH SELATAN,95.7,") {
		t.Errorf("corrected row missing or wrong:\n%s", out)
	}
	if !strings.Contains(out, "ACEH SELATAN (11.01, 95.7)") {
		t.Errorf("alternatives not serialized:\n%s", out)
	}
	if !strings.Contains(out, "2,99.99,GHOST,not_found,,,,\n") {
		t.Errorf("not_found row missing or wrong:\n%s", out)
	}

	if report.Count(StatusCorrected) != 1 || report.Count(StatusNotFound) != 1 {
		t.Errorf("counts wrong: %s", report.Summary())
	}
	if report.Summary() != "rows=2 valid=0 corrected=1 ambiguous=0 not_found=1" {
		t.Errorf("summary = %q", report.Summary())
	}
}
