package commands

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/auth"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
	},
}

type Authorise struct {
	command
	bind  string
	reset bool
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises dbm-sheets to access the DBM API, Google Cloud Storage and Google Sheets"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file> [--bind <address>] [--reset]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Authorises dbm-sheets to access the DBM reports and Google Sheets on behalf of the")
	fmt.Println("  configured user. The OAuth2 token is kept in the user properties and used by the")
	fmt.Println("  interactive commands and the offline sync.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials \"credentials.json\"\n", APP)
	fmt.Printf("    %s authorise --reset\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("authorise")

	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "Address for the OAuth2 callback server. Defaults to the host:port of the credentials redirect URL")
	flagset.BoolVar(&cmd.reset, "reset", cmd.reset, "Discards the stored OAuth2 token")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)
	ctx := context.Background()

	e, err := cmd.open(ctx, options)
	if err != nil {
		return err
	}

	defer e.Close()

	if cmd.reset {
		if err := e.oauth.Reset(ctx); err != nil {
			return fmt.Errorf("error resetting OAuth2 token (%v)", err)
		}

		fmt.Println("OAuth2 token discarded")
		return nil
	}

	return authenticate(ctx, e.oauth, cmd.bind, e.config.User, e.logger)
}

func authenticate(ctx context.Context, oauth *auth.Service, bind string, user string, logger *zap.Logger) error {
	if bind == "" {
		bind = callbackAddress(oauth.Config().RedirectURL)
	}

	// ... start HTTP server on localhost
	authorised := make(chan string, 1)
	mux := http.NewServeMux()
	authURL := oauth.AuthorizationURL()

	mux.HandleFunc("/auth", func(w http.ResponseWriter, rq *http.Request) {
		http.Redirect(w, rq, authURL, http.StatusFound)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		state := rq.FormValue("state")
		code := rq.FormValue("code")

		logger.Debug("OAuth2 callback", zap.String("url", rq.URL.Path), zap.String("state", state))

		if state != "state-token" || code == "" {
			http.Error(w, "Invalid authorisation response", http.StatusBadRequest)
			return
		}

		select {
		case authorised <- code:
		default:
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, "<html><body><p>dbm-sheets authorised - you can close this window.</p></body></html>")
	})

	srv := &http.Server{
		Addr:    bind,
		Handler: mux,
	}

	failed := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			failed <- err
		}
	}()

	// ... CTRL-C handler
	interrupt := make(chan os.Signal, 1)

	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	// ... open OAuth2 URL in browser
	local := fmt.Sprintf("http://%v/auth", localhost(bind))
	command := exec.Command("open", local)
	if _, err := command.CombinedOutput(); err != nil {
		fmt.Printf("Could not open the authorisation page in your browser - please open %v manually\n", authURL)
	}

	// ... wait for authorisation
	var result error

	select {
	case <-interrupt:
		fmt.Printf("\n.. cancelled\n\n")

	case err := <-failed:
		result = fmt.Errorf("error starting OAuth2 callback server (%v)", err)

	case code := <-authorised:
		if _, err := oauth.Exchange(ctx, code); err != nil {
			result = fmt.Errorf("unable to retrieve token from web (%v)", err)
		} else if email, err := auth.WhoAmI(ctx, oauth.TokenSource(ctx)); err != nil {
			logger.Warn("authorised account could not be verified", zap.Error(err))
			fmt.Println("Authorised")
		} else {
			if user != "" && email != user {
				logger.Warn("authorised account does not match configured user", zap.String("authorised", email), zap.String("user", user))
			}

			fmt.Printf("Authorised as %v\n", email)
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Warn("error shutting down OAuth2 callback server", zap.Error(err))
	}

	return result
}

func callbackAddress(redirect string) string {
	if u, err := url.Parse(redirect); err == nil && u.Host != "" {
		if u.Port() != "" {
			return u.Host
		}

		return net.JoinHostPort(u.Hostname(), "80")
	}

	return "localhost:80"
}

func localhost(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}

	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}

	return net.JoinHostPort(host, port)
}
