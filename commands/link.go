package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var LinkCmd = Link{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Link struct {
	command
	sheet string
	query string
}

func (cmd *Link) Name() string {
	return "link"
}

func (cmd *Link) Description() string {
	return "Links a worksheet to a DBM report and pulls the latest report data into it"
}

func (cmd *Link) Usage() string {
	return "--url <url> --sheet <id> --query <query ID>"
}

func (cmd *Link) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] link [options] --url <URL> --sheet <sheet ID> --query <query ID>\n", APP)
	fmt.Println()
	fmt.Println("  Links a worksheet to a DBM report query, replacing any existing link, and pulls the")
	fmt.Println("  latest report into the worksheet. The sheet ID defaults to the #gid=... in the URL.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s link --url \"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0\" --query 12345\n", APP)
	fmt.Println()
}

func (cmd *Link) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("link")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet ID (the 'gid' in the worksheet URL)")
	flagset.StringVar(&cmd.query, "query", cmd.query, "DBM report query ID")

	return flagset
}

func (cmd *Link) Execute(args ...any) error {
	options := args[0].(*Options)

	// ... check parameters
	spreadsheet, err := spreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	sheet, err := sheetID(cmd.url, cmd.sheet)
	if err != nil {
		return err
	}

	queryID := strings.TrimSpace(cmd.query)
	if queryID == "" {
		return fmt.Errorf("--query is a required option")
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

	query, err := e.dbm().GetQuery(ctx, queryID)
	if err != nil {
		return err
	}

	workbook, err := e.spreadsheet(ctx, spreadsheet)
	if err != nil {
		return err
	}

	if err := e.links(spreadsheet).Link(ctx, sheet, query.QueryID, query.Metadata.Title, e.config.User); err != nil {
		return err
	}

	e.logger.Info("linked sheet", zap.String("spreadsheet", spreadsheet), zap.Int64("sheet", sheet), zap.String("query", query.QueryID))

	if err := e.fetcher(spreadsheet, workbook).FetchAndApply(ctx, sheet); err != nil {
		return err
	}

	fmt.Println("DBM report data added. You can now manually refresh or setup a scheduled sync")

	return nil
}
