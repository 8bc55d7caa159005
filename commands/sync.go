package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/uhppoted/dbm-sheets/offline"
)

var SyncCmd = Sync{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Sync struct {
	command
}

func (cmd *Sync) Name() string {
	return "sync"
}

func (cmd *Sync) Description() string {
	return "Refreshes all the linked worksheets in a spreadsheet"
}

func (cmd *Sync) Usage() string {
	return "--url <url>"
}

func (cmd *Sync) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] sync [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Runs the offline sync for a spreadsheet: every linked worksheet is refreshed with the")
	fmt.Println("  latest run of its DBM report. Failures are emailed to the spreadsheet owner and the")
	fmt.Println("  sync is abandoned if the DBM API credentials have expired.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Sync) FlagSet() *flag.FlagSet {
	return cmd.flagset("sync")
}

func (cmd *Sync) Execute(args ...any) error {
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

	orchestrator, err := e.offline(ctx, spreadsheet)
	if err != nil {
		return err
	}

	return orchestrator.Run(ctx)
}

// offline builds the orchestrator for an unattended sync of the spreadsheet.
func (e *env) offline(ctx context.Context, spreadsheet string) (*offline.Orchestrator, error) {
	workbook, err := e.spreadsheet(ctx, spreadsheet)
	if err != nil {
		return nil, err
	}

	return offline.NewOrchestrator(
		e.oauth,
		workbook,
		e.links(spreadsheet),
		e.fetcher(spreadsheet, workbook),
		e.notifier(),
		e.document(spreadsheet),
		e.logger), nil
}
