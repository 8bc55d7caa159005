package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/report"
)

var DebugInfoCmd = DebugInfo{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type DebugInfo struct {
	command
}

type debugInfo struct {
	CurrentSchedule string     `yaml:"current-schedule"`
	Sheets          []debugRow `yaml:"sheets"`
}

type debugRow struct {
	SheetName     string `yaml:"SheetName"`
	SheetID       int64  `yaml:"SheetId"`
	QueryID       string `yaml:"QueryId"`
	LastSync      string `yaml:"Last_Sync"`
	ReportUpdated string `yaml:"DBM_Report_Updated_Date,omitempty"`
	ReportName    string `yaml:"Linked_DBM_Report_Name,omitempty"`
	SetupUser     string `yaml:"DBM_Report_Setup_User,omitempty"`
}

func (cmd *DebugInfo) Name() string {
	return "debug-info"
}

func (cmd *DebugInfo) Description() string {
	return "Displays the stored report links and sync schedule for a spreadsheet"
}

func (cmd *DebugInfo) Usage() string {
	return "--url <url>"
}

func (cmd *DebugInfo) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] debug-info [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Prints the current sync schedule and the linkage of every linked worksheet as YAML.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *DebugInfo) FlagSet() *flag.FlagSet {
	return cmd.flagset("debug-info")
}

func (cmd *DebugInfo) Execute(args ...any) error {
	options := args[0].(*Options)

	spreadsheet, err := spreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	links := e.links(spreadsheet)

	// ... worksheet names need the Sheets API, otherwise fall back to the stored sheet IDs
	var sheets []report.Sheet
	if e.oauth.HasAccess(ctx) {
		if workbook, err := e.spreadsheet(ctx, spreadsheet); err != nil {
			e.logger.Warn("error opening spreadsheet", zap.Error(err))
		} else if sheets, err = workbook.Sheets(ctx); err != nil {
			e.logger.Warn("error retrieving worksheets", zap.Error(err))
		}
	}

	if sheets == nil {
		ids, err := links.Sheets(ctx)
		if err != nil {
			return err
		}

		for _, id := range ids {
			sheets = append(sheets, report.Sheet{ID: id})
		}
	}

	summary, err := e.schedule(spreadsheet).Summary(ctx, e.config.User)
	if err != nil {
		return err
	}

	rows, err := debugRows(ctx, links, sheets)
	if err != nil {
		return err
	}

	info := debugInfo{
		CurrentSchedule: summary,
		Sheets:          rows,
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)

	if err := encoder.Encode(info); err != nil {
		return err
	}

	return encoder.Close()
}

// debugRows returns the linkage of the sheets that are linked by query ID.
func debugRows(ctx context.Context, links *linkage.Links, sheets []report.Sheet) ([]debugRow, error) {
	rows := []debugRow{}

	format := func(t *time.Time) string {
		if t == nil {
			return ""
		}

		return t.Format(time.RFC3339)
	}

	for _, sheet := range sheets {
		l, err := links.Get(ctx, sheet.ID)
		if err != nil {
			return nil, err
		}

		if l.QueryID == "" {
			continue
		}

		row := debugRow{
			SheetName:     sheet.Title,
			SheetID:       sheet.ID,
			QueryID:       l.QueryID,
			LastSync:      format(l.LastSync),
			ReportUpdated: format(l.ReportUpdated),
			ReportName:    l.ReportName,
			SetupUser:     l.SetupUser,
		}

		if row.LastSync == "" {
			row.LastSync = "Never"
		}

		rows = append(rows, row)
	}

	return rows, nil
}
