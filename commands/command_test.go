package commands

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/config"
	"github.com/uhppoted/dbm-sheets/dbm"
	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/props"
	"github.com/uhppoted/dbm-sheets/report"
	"github.com/uhppoted/dbm-sheets/schedule"
)

func TestSheetID(t *testing.T) {
	tests := []struct {
		url      string
		sheet    string
		expected int64
	}{
		{"https://docs.google.com/spreadsheets/d/abc/edit#gid=1234", "", 1234},
		{"https://docs.google.com/spreadsheets/d/abc/edit?usp=sharing&gid=77", "", 77},
		{"https://docs.google.com/spreadsheets/d/abc/edit#gid=1234", "5678", 5678},
		{"abc", " 0 ", 0},
	}

	for _, test := range tests {
		id, err := sheetID(test.url, test.sheet)
		if err != nil {
			t.Errorf("Unexpected error for %v (%v)", test.url, err)
		} else if id != test.expected {
			t.Errorf("Incorrect sheet ID\n   expected: %v\n   got:      %v\n", test.expected, id)
		}
	}

	if _, err := sheetID("https://docs.google.com/spreadsheets/d/abc/edit", ""); err == nil {
		t.Errorf("Expected error for missing sheet ID")
	}

	if _, err := sheetID("abc", "Sheet1"); err == nil {
		t.Errorf("Expected error for invalid sheet ID")
	}
}

func TestSpreadsheetID(t *testing.T) {
	id, err := spreadsheetID("https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0")
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if id != "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" {
		t.Errorf("Incorrect spreadsheet ID\n   expected: %v\n   got:      %v\n", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", id)
	}

	if _, err := spreadsheetID(" "); err == nil {
		t.Errorf("Expected error for missing --url")
	}
}

func TestReportList(t *testing.T) {
	queries := []dbm.Query{
		{QueryID: "100", HasMetadata: true, Metadata: dbm.Metadata{Title: "Daily"}},
		{QueryID: "200"},
		{QueryID: "300", HasMetadata: true, Metadata: dbm.Metadata{Title: "Weekly"}},
	}

	expected := []reportEntry{
		{Title: "Daily", QueryID: "100", Linked: false},
		{Title: "Weekly", QueryID: "300", Linked: true},
	}

	if list := reportList(queries, "300"); !reflect.DeepEqual(list, expected) {
		t.Errorf("Incorrect report list\n   expected: %+v\n   got:      %+v\n", expected, list)
	}

	for _, r := range reportList(queries, "") {
		if r.Linked {
			t.Errorf("Unexpected linked report %+v", r)
		}
	}
}

func TestDescribe(t *testing.T) {
	synced := time.Date(2026, time.March, 4, 9, 15, 0, 0, time.UTC)

	s := describe(linkage.Linkage{
		SheetID:    17,
		QueryID:    "12345",
		ReportName: "Daily spend",
		SetupUser:  "someone@example.com",
		LastSync:   &synced,
	})

	for _, expected := range []string{"Daily spend", "12345", "someone@example.com", synced.Local().Format("2006-01-02 15:04:05 MST"), "Never"} {
		if !strings.Contains(s, expected) {
			t.Errorf("Expected status to include '%v'\n%v", expected, s)
		}
	}

	if s := describe(linkage.Linkage{SheetID: 17}); s != "Sheet 17 is not linked to a DBM report\n" {
		t.Errorf("Incorrect status for unlinked sheet: %v", s)
	}
}

func TestDebugRows(t *testing.T) {
	ctx := context.Background()
	store := props.NewMemory().Scope(props.DocumentScope("abc"))
	links := linkage.NewLinks(store, zap.NewNop())

	if err := links.Link(ctx, 1, "101", "Daily spend", "someone@example.com"); err != nil {
		t.Fatalf("%v", err)
	}

	if err := links.Link(ctx, 2, "102", "Weekly spend", "someone@example.com"); err != nil {
		t.Fatalf("%v", err)
	}

	synced := time.Date(2026, time.March, 4, 9, 15, 0, 0, time.UTC)
	if err := links.MarkSynced(ctx, 2, synced, time.Time{}); err != nil {
		t.Fatalf("%v", err)
	}

	if err := store.Set(ctx, "3_BUCKET_NAME", "dfa_qwerty_report"); err != nil {
		t.Fatalf("%v", err)
	}

	sheets := []report.Sheet{{ID: 1, Title: "Daily"}, {ID: 2, Title: "Weekly"}, {ID: 3, Title: "Legacy"}, {ID: 4, Title: "Notes"}}

	rows, err := debugRows(ctx, links, sheets)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	expected := []debugRow{
		{SheetName: "Daily", SheetID: 1, QueryID: "101", LastSync: "Never", ReportName: "Daily spend", SetupUser: "someone@example.com"},
		{SheetName: "Weekly", SheetID: 2, QueryID: "102", LastSync: "2026-03-04T09:15:00Z", ReportName: "Weekly spend", SetupUser: "someone@example.com"},
	}

	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect debug info\n   expected: %+v\n   got:      %+v\n", expected, rows)
	}
}

func TestScheduleTiming(t *testing.T) {
	tests := []struct {
		cmd       Schedule
		frequency schedule.Frequency
		primary   string
		secondary string
	}{
		{Schedule{every: 4, hour: -1}, schedule.Hourly, "4", ""},
		{Schedule{hour: 6}, schedule.Daily, "6", ""},
		{Schedule{hour: -1}, schedule.Daily, "", ""},
		{Schedule{day: "monday", hour: 14}, schedule.Weekly, "monday", "14"},
	}

	for _, test := range tests {
		primary, secondary := test.cmd.timing(test.frequency)
		if primary != test.primary || secondary != test.secondary {
			t.Errorf("Incorrect %v timing\n   expected: %q %q\n   got:      %q %q\n", test.frequency, test.primary, test.secondary, primary, secondary)
		}

		if _, err := schedule.NewTiming(test.frequency, primary, secondary); (err == nil) != (test.primary != "") {
			t.Errorf("Unexpected timing validation result for %+v (%v)", test, err)
		}
	}
}

func TestCallbackAddress(t *testing.T) {
	tests := map[string]string{
		"http://localhost":          "localhost:80",
		"http://localhost:8080/cb":  "localhost:8080",
		"urn:ietf:wg:oauth:2.0:oob": "localhost:80",
		"":                          "localhost:80",
	}

	for redirect, expected := range tests {
		if bind := callbackAddress(redirect); bind != expected {
			t.Errorf("Incorrect callback address for %q\n   expected: %v\n   got:      %v\n", redirect, expected, bind)
		}
	}

	if url := localhost(":8080"); url != "localhost:8080" {
		t.Errorf("Incorrect local address\n   expected: %v\n   got:      %v\n", "localhost:8080", url)
	}
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	backend, err := newBackend(ctx, config.StoreConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	defer backend.Close()

	if _, err := newBackend(ctx, config.StoreConfig{Driver: "postgres"}); err == nil {
		t.Errorf("Expected error for unsupported property store driver")
	}
}

func TestOverrides(t *testing.T) {
	tests := []struct {
		cmd      command
		expected config.Paths
	}{
		{command{workdir: DEFAULT_WORKDIR, credentials: DEFAULT_CREDENTIALS}, config.Paths{}},
		{command{workdir: "/tmp/dbm", credentials: DEFAULT_CREDENTIALS}, config.Paths{Workdir: "/tmp/dbm"}},
		{command{workdir: DEFAULT_WORKDIR, credentials: "credentials.json"}, config.Paths{Credentials: "credentials.json"}},
	}

	for _, test := range tests {
		if paths := test.cmd.overrides(); paths != test.expected {
			t.Errorf("Incorrect overrides\n   expected: %+v\n   got:      %+v\n", test.expected, paths)
		}
	}
}
