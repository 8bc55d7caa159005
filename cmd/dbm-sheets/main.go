package main

import (
	"flag"
	"fmt"
	"os"

	command "github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/dbm-sheets/commands"
)

var cli = []command.Command{
	&commands.VersionCmd,
	&commands.AuthoriseCmd,
	&commands.ReportsCmd,
	&commands.GetCmd,
	&commands.LinkCmd,
	&commands.UnlinkCmd,
	&commands.RefreshCmd,
	&commands.StatusCmd,
	&commands.SyncCmd,
	&commands.ScheduleCmd,
	&commands.DebugInfoCmd,
	&commands.PurgeCmd,
	&commands.DaemonCmd,
}

var options = commands.Options{
	Config: "",
	Debug:  false,
}

var help = command.NewHelp(commands.APP, cli, nil)

func main() {
	flag.StringVar(&options.Config, "config", options.Config, "Configuration file (defaults to <workdir>/dbm-sheets.yaml)")
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	cmd, err := command.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(&options); err != nil {
		fmt.Fprintf(os.Stderr, "\n   ERROR: %v\n\n", err)
		os.Exit(1)
	}
}
