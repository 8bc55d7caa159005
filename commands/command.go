package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/uhppoted/dbm-sheets/auth"
	"github.com/uhppoted/dbm-sheets/config"
	"github.com/uhppoted/dbm-sheets/dbm"
	"github.com/uhppoted/dbm-sheets/gsheets"
	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/notify"
	"github.com/uhppoted/dbm-sheets/props"
	"github.com/uhppoted/dbm-sheets/report"
	"github.com/uhppoted/dbm-sheets/schedule"
	"github.com/uhppoted/dbm-sheets/triggers"
)

const APP = "dbm-sheets"

var gidRegex = regexp.MustCompile(`[#&?]gid=([0-9]+)`)

// VERSION is set at build time with -ldflags "-X github.com/uhppoted/dbm-sheets/commands.VERSION=..."
var VERSION = "v0.0.0"

type Options struct {
	Config string
	Debug  bool
}

// command holds the options common to all the commands that work on a spreadsheet.
type command struct {
	workdir     string
	credentials string
	url         string
}

func (cmd *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (property store, configuration)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the Google developer console 'credentials.json' file")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL (or ID)")

	return flagset
}

func (cmd *command) defaults() config.Paths {
	return config.Paths{
		Workdir:     DEFAULT_WORKDIR,
		Credentials: DEFAULT_CREDENTIALS,
	}
}

// overrides returns the --workdir and --credentials values that were changed from the
// defaults.
func (cmd *command) overrides() config.Paths {
	paths := config.Paths{}

	if cmd.workdir != DEFAULT_WORKDIR {
		paths.Workdir = cmd.workdir
	}

	if cmd.credentials != DEFAULT_CREDENTIALS {
		paths.Credentials = cmd.credentials
	}

	return paths
}

// env is the set of services a command runs with.
type env struct {
	config  *config.Config
	logger  *zap.Logger
	backend props.Backend
	oauth   *auth.Service
}

func (cmd *command) open(ctx context.Context, options *Options) (*env, error) {
	file := options.Config
	if file == "" {
		file = filepath.Join(cmd.workdir, config.File)
	}

	cfg, err := config.Load(file, cmd.defaults(), cmd.overrides())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(options.Debug)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg.Store)
	if err != nil {
		logger.Error("error opening property store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return nil, err
	}

	oauth, err := auth.NewService(cfg.Credentials, cfg.User, backend.Scope(props.UserScope(cfg.User)), logger)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("error loading OAuth2 credentials from %v (%w)", cfg.Credentials, err)
	}

	logger.Debug("configuration", zap.String("workdir", cfg.Workdir), zap.String("store", cfg.Store.Driver), zap.String("user", cfg.User))

	return &env{
		config:  cfg,
		logger:  logger,
		backend: backend,
		oauth:   oauth,
	}, nil
}

func (e *env) Close() {
	if err := e.backend.Close(); err != nil {
		e.logger.Warn("error closing property store", zap.Error(err))
	}

	e.logger.Sync()
}

func (e *env) user() props.Store {
	return e.backend.Scope(props.UserScope(e.config.User))
}

func (e *env) document(spreadsheet string) props.Store {
	return e.backend.Scope(props.DocumentScope(spreadsheet))
}

func (e *env) registry() *triggers.Registry {
	return triggers.NewRegistry(e.backend.Scope(props.TriggerScope), e.logger)
}

func (e *env) schedule(spreadsheet string) *schedule.Manager {
	return schedule.NewManager(spreadsheet, e.document(spreadsheet), e.registry(), e.logger)
}

func (e *env) dbm() *dbm.Client {
	client := dbm.NewClient(e.oauth, e.logger)
	client.BaseURL = e.config.DBM.BaseURL
	client.V2Bucket = e.config.DBM.V2Bucket

	return client
}

func (e *env) spreadsheet(ctx context.Context, spreadsheet string) (*gsheets.Spreadsheet, error) {
	return gsheets.NewSpreadsheet(ctx, spreadsheet, e.logger, option.WithTokenSource(e.oauth.TokenSource(ctx)))
}

func (e *env) links(spreadsheet string) *linkage.Links {
	return linkage.NewLinks(e.document(spreadsheet), e.logger)
}

func (e *env) fetcher(spreadsheet string, workbook report.Workbook) *report.Fetcher {
	client := e.dbm()
	links := e.links(spreadsheet)
	resolver := linkage.NewResolver(links, client, e.oauth, e.logger)
	writer := report.NewWriter(workbook, e.logger)

	return report.NewFetcher(resolver, links, client, writer, e.logger)
}

func (e *env) notifier() notify.Notifier {
	n := e.config.Notification
	if !n.Enabled() {
		return notify.NewLog(e.logger)
	}

	return notify.NewMailer(n.Host, n.Port, n.Username, n.Password, n.From, e.logger)
}

// authorised returns an error with the authorization URL if there is no usable OAuth token.
func (e *env) authorised(ctx context.Context) error {
	if !e.oauth.HasAccess(ctx) {
		return fmt.Errorf("authorization needed - please run '%v authorise' or visit %v", APP, e.oauth.AuthorizationURL())
	}

	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	return cfg.Build()
}

func newBackend(ctx context.Context, cfg config.StoreConfig) (props.Backend, error) {
	switch cfg.Driver {
	case "memory":
		return props.NewMemory(), nil

	case "sqlite":
		return props.NewSQLite(ctx, cfg.SQLite)

	case "redis":
		return props.NewRedis(ctx, cfg.Redis)

	default:
		return nil, fmt.Errorf("invalid property store driver '%v'", cfg.Driver)
	}
}

func spreadsheetID(url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("--url is a required option")
	}

	return gsheets.ParseURL(url)
}

// sheetID returns the --sheet ID, falling back to the #gid=... fragment of the spreadsheet
// URL.
func sheetID(url string, sheet string) (int64, error) {
	if strings.TrimSpace(sheet) == "" {
		if match := gidRegex.FindStringSubmatch(url); len(match) > 1 {
			sheet = match[1]
		}
	}

	if strings.TrimSpace(sheet) == "" {
		return 0, fmt.Errorf("--sheet is a required option")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(sheet), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sheet ID '%v' (%v)", sheet, err)
	}

	return id, nil
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	fmt.Println("  Options:")
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Global options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}
