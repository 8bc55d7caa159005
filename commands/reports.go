package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/uhppoted/dbm-sheets/dbm"
)

var ReportsCmd = Reports{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Reports struct {
	command
	sheet string
}

type reportEntry struct {
	Title   string
	QueryID string
	Linked  bool
}

func (cmd *Reports) Name() string {
	return "reports"
}

func (cmd *Reports) Description() string {
	return "Lists the DBM reports available to the authorised user"
}

func (cmd *Reports) Usage() string {
	return "[--url <url> [--sheet <id>]]"
}

func (cmd *Reports) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] reports [options]\n", APP)
	fmt.Println()
	fmt.Println("  Lists the DBM report queries that can be linked to a worksheet. If a worksheet is")
	fmt.Println("  specified, the report currently linked to the worksheet is marked with a '*'.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Reports) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("reports")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet ID (the 'gid' in the worksheet URL)")

	return flagset
}

func (cmd *Reports) Execute(args ...any) error {
	options := args[0].(*Options)
	ctx := context.Background()

	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	if err := e.authorised(ctx); err != nil {
		return err
	}

	linked := ""
	if cmd.url != "" {
		spreadsheet, err := spreadsheetID(cmd.url)
		if err != nil {
			return err
		}

		if sheet, err := sheetID(cmd.url, cmd.sheet); err == nil {
			if l, err := e.links(spreadsheet).Get(ctx, sheet); err != nil {
				return err
			} else {
				linked = l.QueryID
			}
		}
	}

	queries, err := e.dbm().ListQueries(ctx)
	if err != nil {
		return err
	}

	for _, r := range reportList(queries, linked) {
		mark := " "
		if r.Linked {
			mark = "*"
		}

		fmt.Printf("%v %-12v %v\n", mark, r.QueryID, r.Title)
	}

	return nil
}

// reportList returns the queries that have metadata, flagging the query linked to the
// current sheet.
func reportList(queries []dbm.Query, linked string) []reportEntry {
	list := []reportEntry{}

	for _, q := range queries {
		if !q.HasMetadata {
			continue
		}

		list = append(list, reportEntry{
			Title:   q.Metadata.Title,
			QueryID: q.QueryID,
			Linked:  linked != "" && q.QueryID == linked,
		})
	}

	return list
}
