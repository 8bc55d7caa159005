package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/auth"
	"github.com/uhppoted/dbm-sheets/props"
	"github.com/uhppoted/dbm-sheets/triggers"
)

var DaemonCmd = Daemon{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Daemon struct {
	command
}

func (cmd *Daemon) Name() string {
	return "daemon"
}

func (cmd *Daemon) Description() string {
	return "Runs the scheduled offline syncs"
}

func (cmd *Daemon) Usage() string {
	return ""
}

func (cmd *Daemon) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] daemon [options]\n", APP)
	fmt.Println()
	fmt.Println("  Runs the offline sync for every spreadsheet with a sync schedule, using the OAuth2")
	fmt.Println("  token of the user that created the schedule. Runs until interrupted.")
	fmt.Println()

	helpOptions(cmd.FlagSet())
	fmt.Println()
}

func (cmd *Daemon) FlagSet() *flag.FlagSet {
	return cmd.flagset("daemon")
}

func (cmd *Daemon) Execute(args ...any) error {
	options := args[0].(*Options)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	daemon := triggers.NewDaemon(e.registry(), e.run, e.logger)
	daemon.Interval = e.config.Daemon.Interval

	return daemon.Run(ctx)
}

// run executes a single trigger as the user that created it.
func (e *env) run(ctx context.Context, trigger triggers.Trigger) error {
	if trigger.Handler != triggers.OfflineSync {
		return fmt.Errorf("unknown trigger handler '%v'", trigger.Handler)
	}

	owner, err := e.as(trigger.Owner)
	if err != nil {
		return err
	}

	orchestrator, err := owner.offline(ctx, trigger.Document)
	if err != nil {
		return err
	}

	return orchestrator.Run(ctx)
}

// as returns an env that shares the property store but uses the OAuth2 token of user.
func (e *env) as(user string) (*env, error) {
	oauth, err := auth.NewService(e.config.Credentials, user, e.backend.Scope(props.UserScope(user)), e.logger)
	if err != nil {
		return nil, err
	}

	cfg := *e.config
	cfg.User = user

	return &env{
		config:  &cfg,
		logger:  e.logger.With(zap.String("user", user)),
		backend: e.backend,
		oauth:   oauth,
	}, nil
}
