package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/linkage"
)

var StatusCmd = Status{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Status struct {
	command
	sheet string
}

func (cmd *Status) Name() string {
	return "status"
}

func (cmd *Status) Description() string {
	return "Displays the linked report and last sync details for a worksheet"
}

func (cmd *Status) Usage() string {
	return "--url <url> --sheet <id>"
}

func (cmd *Status) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] status [options] --url <URL> --sheet <sheet ID>\n", APP)
	fmt.Println()
	fmt.Println("  Displays the DBM report linked to the worksheet, the user that linked it and when the")
	fmt.Println("  worksheet was last synced. Worksheets linked by a legacy bucket name are migrated to")
	fmt.Println("  the report query ID if the current user can see the report.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Status) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("status")

	flagset.StringVar(&cmd.sheet, "sheet", cmd.sheet, "Worksheet ID (the 'gid' in the worksheet URL)")

	return flagset
}

func (cmd *Status) Execute(args ...any) error {
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

	links := e.links(spreadsheet)
	l, err := links.Get(ctx, sheet)
	if err != nil {
		return err
	}

	if l.BucketName != "" && e.oauth.HasAccess(ctx) {
		resolver := linkage.NewResolver(links, e.dbm(), e.oauth, e.logger)
		if _, err := resolver.Resolve(ctx, sheet); err != nil {
			e.logger.Warn("legacy link not migrated", zap.Int64("sheet", sheet), zap.String("bucket", l.BucketName), zap.Error(err))
		} else if l, err = links.Get(ctx, sheet); err != nil {
			return err
		}
	}

	fmt.Print(describe(*l))

	return nil
}

func describe(l linkage.Linkage) string {
	if !l.Linked() {
		return fmt.Sprintf("Sheet %v is not linked to a DBM report\n", l.SheetID)
	}

	timestamp := func(t *time.Time) string {
		if t == nil {
			return "Never"
		}

		return t.Local().Format("2006-01-02 15:04:05 MST")
	}

	s := ""
	s += fmt.Sprintf("  %-16v %v\n", "Report:", l.ReportName)
	if l.QueryID != "" {
		s += fmt.Sprintf("  %-16v %v\n", "Query ID:", l.QueryID)
	} else {
		s += fmt.Sprintf("  %-16v %v\n", "Bucket:", l.BucketName)
	}
	s += fmt.Sprintf("  %-16v %v\n", "Set up by:", l.SetupUser)
	s += fmt.Sprintf("  %-16v %v\n", "Last sync:", timestamp(l.LastSync))
	s += fmt.Sprintf("  %-16v %v\n", "Report updated:", timestamp(l.ReportUpdated))

	return s
}
