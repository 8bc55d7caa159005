package commands

import (
	"context"
	"flag"
	"fmt"
)

var UnlinkCmd = Unlink{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Unlink struct {
	command
	sheet string
}

func (cmd *Unlink) Name() string {
	return "unlink"
}

func (cmd *Unlink) Description() string {
	return "Removes the link between a worksheet and its DBM report"
}

func (cmd *Unlink) Usage() string {
	return "--url <url> --sheet <id>"
}

func (cmd *Unlink) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] unlink [options] --url <URL> --sheet <sheet ID>\n", APP)
	fmt.Println()
	fmt.Println("  Removes the link to the DBM report. The worksheet data is not affected, but the")
	fmt.Println("  worksheet will not be refreshed until it is linked again.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Unlink) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("unlink")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet ID (the 'gid' in the worksheet URL)")

	return flagset
}

func (cmd *Unlink) Execute(args ...any) error {
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

	if err := e.links(spreadsheet).Unlink(ctx, sheet); err != nil {
		return err
	}

	fmt.Printf("Sheet %v unlinked\n", sheet)

	return nil
}
