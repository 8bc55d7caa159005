package commands

import (
	"strings"
	"testing"

	"github.com/uhppoted/dbm-sheets/dbm"
	"github.com/uhppoted/dbm-sheets/report"
)

func TestReportToTSV(t *testing.T) {
	expected := `Date	Advertiser	Impressions
2026/03/01	Acme	1000
2026/03/02	Acme	1250
`

	var f strings.Builder
	rows := [][]string{
		{"Date", "Advertiser", "Impressions"},
		{"2026/03/01", " Acme ", "1000"},
		{"2026/03/02", "Acme", "1250"},
	}

	if err := reportToTSV(&f, rows); err != nil {
		t.Fatalf("Unexpected error returned from reportToTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %s\n   got:      %s\n", expected, f.String())
	}
}

func TestReportToTSVPadsShortRows(t *testing.T) {
	expected := "Date\tAdvertiser\tImpressions\n2026/03/01\t\t\n"

	var f strings.Builder
	rows := [][]string{
		{"Date", "Advertiser", "Impressions"},
		{"2026/03/01"},
	}

	if err := reportToTSV(&f, rows); err != nil {
		t.Fatalf("Unexpected error returned from reportToTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %q\n   got:      %q\n", expected, f.String())
	}
}

func TestTrimmedReportToTSV(t *testing.T) {
	content := "Date,Impressions\n2026/03/01,1000\n,\nReport Time:,2026/03/02\n"
	expected := "Date\tImpressions\n2026/03/01\t1000\n"

	rows, err := report.Parse(content)
	if err != nil {
		t.Fatalf("Unexpected error parsing report (%v)", err)
	}

	var f strings.Builder
	if err := reportToTSV(&f, report.Trim(rows, dbm.V1)); err != nil {
		t.Fatalf("Unexpected error returned from reportToTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %q\n   got:      %q\n", expected, f.String())
	}
}

func TestReportToTSVWithEmptyReport(t *testing.T) {
	var f strings.Builder

	if err := reportToTSV(&f, [][]string{}); err == nil {
		t.Errorf("Expected error for empty report")
	}
}
