package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/report"
)

var GetCmd = Get{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},

	file: time.Now().Format("2006-01-02T150405.tsv"),
}

type Get struct {
	command
	sheet string
	file  string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the latest run of the DBM report linked to a worksheet and stores it to a local file"
}

func (cmd *Get) Usage() string {
	return "--url <url> --sheet <id> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --url <URL> --sheet <sheet ID> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the latest run of the DBM report linked to the worksheet to a TSV file,")
	fmt.Println("  without the report summary rows. The worksheet itself is not changed.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --url \"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0\" \\\n", APP)
	fmt.Println(`                   --file "report.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet ID (the 'gid' in the worksheet URL)")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
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

	if cmd.file == "" {
		return fmt.Errorf("--file is a required option")
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

	// ... fetch report
	client := e.dbm()
	resolver := linkage.NewResolver(e.links(spreadsheet), client, e.oauth, e.logger)

	queryID, err := resolver.Resolve(ctx, sheet)
	if err != nil {
		return err
	}

	query, err := client.GetQuery(ctx, queryID)
	if err != nil {
		return err
	}

	path := client.Classify(query.Metadata.LatestReportPath)
	content, err := client.Download(ctx, path)
	if err != nil {
		return err
	}

	rows, err := report.Parse(content)
	if err != nil {
		return err
	}

	// ... write to file
	tmp, err := os.CreateTemp(os.TempDir(), "DBM")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := reportToTSV(tmp, report.Trim(rows, path.Version)); err != nil {
		return fmt.Errorf("error creating TSV file (%v)", err)
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	e.logger.Info("retrieved report", zap.String("query", queryID), zap.String("report", query.Metadata.Title), zap.String("file", cmd.file))

	return nil
}
