package commands

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/uhppoted/dbm-sheets/schedule"
)

var ScheduleCmd = Schedule{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
	hour: -1,
}

type Schedule struct {
	command
	frequency string
	every     int
	day       string
	hour      int
	disable   bool
}

func (cmd *Schedule) Name() string {
	return "schedule"
}

func (cmd *Schedule) Description() string {
	return "Sets, clears or displays the offline sync schedule for a spreadsheet"
}

func (cmd *Schedule) Usage() string {
	return "--url <url> [--frequency hourly|daily|weekly] [--every <hours>] [--day <weekday>] [--hour <hour>] [--disable]"
}

func (cmd *Schedule) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] schedule [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Sets the schedule on which all the linked worksheets in the spreadsheet are synced")
	fmt.Println("  by the daemon. Without a --frequency or --disable the current schedule is displayed.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s schedule --url <URL> --frequency hourly --every 4\n", APP)
	fmt.Printf("    %s schedule --url <URL> --frequency daily --hour 6\n", APP)
	fmt.Printf("    %s schedule --url <URL> --frequency weekly --day monday --hour 14\n", APP)
	fmt.Printf("    %s schedule --url <URL> --disable\n", APP)
	fmt.Println()
}

func (cmd *Schedule) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("schedule")

	flagset.StringVar(&cmd.frequency, "frequency", cmd.frequency, "Sync frequency (hourly, daily or weekly)")
	flagset.IntVar(&cmd.every, "every", cmd.every, fmt.Sprintf("Hourly sync interval (one of %v)", schedule.Intervals))
	flagset.StringVar(&cmd.day, "day", cmd.day, "Day of the week for a weekly sync e.g. monday")
	flagset.IntVar(&cmd.hour, "hour", cmd.hour, "Hour of the day (0-23) for a daily or weekly sync")
	flagset.BoolVar(&cmd.disable, "disable", cmd.disable, "Disables the offline sync")

	return flagset
}

func (cmd *Schedule) Execute(args ...any) error {
	options := args[0].(*Options)

	spreadsheet, err := spreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	frequency, err := schedule.ParseFrequency(cmd.frequency)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	manager := e.schedule(spreadsheet)
	user := e.config.User

	var summary string

	switch {
	case cmd.disable:
		if summary, err = manager.Set(ctx, user, false, schedule.None, "", ""); err != nil {
			return err
		}

	case frequency != schedule.None:
		primary, secondary := cmd.timing(frequency)
		if summary, err = manager.Set(ctx, user, true, frequency, primary, secondary); err != nil {
			return err
		}

	default:
		if summary, err = manager.Summary(ctx, user); err != nil {
			return err
		}
	}

	if summary == "" {
		summary = "No sync schedule"
	}

	fmt.Println(summary)

	return nil
}

// timing maps the command line options to the stored form of the schedule.
func (cmd *Schedule) timing(frequency schedule.Frequency) (string, string) {
	hour := ""
	if cmd.hour >= 0 {
		hour = strconv.Itoa(cmd.hour)
	}

	switch frequency {
	case schedule.Hourly:
		return strconv.Itoa(cmd.every), ""
	case schedule.Daily:
		return hour, ""
	case schedule.Weekly:
		return cmd.day, hour
	default:
		return "", ""
	}
}
