package commands

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"
)

var PurgeCmd = Purge{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Purge struct {
	command
	yes bool
}

func (cmd *Purge) Name() string {
	return "purge"
}

func (cmd *Purge) Description() string {
	return "Deletes all the report links, schedules and credentials for a spreadsheet"
}

func (cmd *Purge) Usage() string {
	return "--url <url> --yes"
}

func (cmd *Purge) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] purge [options] --url <URL> --yes\n", APP)
	fmt.Println()
	fmt.Println("  Deletes the report links and sync schedule of the spreadsheet along with the stored")
	fmt.Println("  user properties and the sync triggers the user created for the spreadsheet. You will")
	fmt.Printf("  need to run '%s authorise' again after a purge.\n", APP)
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Purge) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("purge")

	flagset.BoolVar(&cmd.yes, "yes", cmd.yes, "Confirms the purge")

	return flagset
}

func (cmd *Purge) Execute(args ...any) error {
	options := args[0].(*Options)

	spreadsheet, err := spreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	if !cmd.yes {
		return fmt.Errorf("purge deletes your report links, permissions and schedules - rerun with --yes to confirm")
	}

	ctx := context.Background()
	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	if err := e.schedule(spreadsheet).Clear(ctx); err != nil {
		return err
	}

	if err := e.document(spreadsheet).DeleteAll(ctx); err != nil {
		return err
	}

	if err := e.user().DeleteAll(ctx); err != nil {
		return err
	}

	n, err := e.registry().Purge(ctx, spreadsheet, e.config.User)
	if err != nil {
		return err
	}

	e.logger.Info("purged", zap.String("spreadsheet", spreadsheet), zap.String("user", e.config.User), zap.Int("triggers", n))

	fmt.Printf("All stored properties have been purged. Please run '%s authorise' again\n", APP)

	return nil
}
