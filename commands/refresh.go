package commands

import (
	"context"
	"flag"
	"fmt"
)

var RefreshCmd = Refresh{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Refresh struct {
	command
	sheet string
}

func (cmd *Refresh) Name() string {
	return "refresh"
}

func (cmd *Refresh) Description() string {
	return "Refreshes a linked worksheet with the latest run of its DBM report"
}

func (cmd *Refresh) Usage() string {
	return "--url <url> --sheet <id>"
}

func (cmd *Refresh) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] refresh [options] --url <URL> --sheet <sheet ID>\n", APP)
	fmt.Println()
	fmt.Println("  Replaces the worksheet contents with the latest run of the linked DBM report.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Refresh) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("refresh")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet ID (the 'gid' in the worksheet URL)")

	return flagset
}

func (cmd *Refresh) Execute(args ...any) error {
	options := args[0].(*Options)

	spreadsheet, err := spreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	sheet, err := sheetID(cmd.url, cmd.sheet)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	if err := e.authorised(ctx); err != nil {
		return err
	}

	workbook, err := e.spreadsheet(ctx, spreadsheet)
	if err != nil {
		return err
	}

	if err := e.fetcher(spreadsheet, workbook).FetchAndApply(ctx, sheet); err != nil {
		return err
	}

	fmt.Println("Sheet refreshed with new data")

	return nil
}
