// Package main is the BookKeeper catalog client: an interactive shell, a
// full-screen dashboard and one-shot login/logout commands over the same core.
package main

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/BookKeeper/internal/client/api"
	"github.com/atinyakov/BookKeeper/internal/client/auth"
	"github.com/atinyakov/BookKeeper/internal/client/catalog"
	"github.com/atinyakov/BookKeeper/internal/client/form"
	"github.com/atinyakov/BookKeeper/internal/client/notify"
	"github.com/atinyakov/BookKeeper/internal/client/shell"
	"github.com/atinyakov/BookKeeper/internal/client/storage"
	"github.com/atinyakov/BookKeeper/internal/client/tui"
	"github.com/atinyakov/BookKeeper/internal/config"
	"github.com/atinyakov/BookKeeper/internal/logger"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

const (
	dashboardLogFile = "bookkeeper.log"
	loginTimeout     = 5 * time.Minute
)

// client bundles the wired core shared by every command.
type client struct {
	log      *zap.Logger
	session  *auth.Session
	callback string
	board    *notify.Board
	catalog  *catalog.Catalog
	form     *form.Controller
}

func main() {
	opts, err := config.ParseClient(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.ShowVersion {
		fmt.Printf("BookKeeper Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}
	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	logFile := opts.LogFile
	if logFile == "" && opts.Command == "dashboard" {
		logFile = dashboardLogFile
	}
	l := logger.New()
	if err := l.InitFile(opts.LogLevel, logFile); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newClient(opts, l.Log)
	if err != nil {
		l.Log.Fatal("cannot start client", zap.Error(err))
	}
	c.session.Init(ctx)

	switch opts.Command {
	case "shell":
		sh := shell.New(shell.Config{
			In:      os.Stdin,
			Out:     os.Stdout,
			Catalog: c.catalog,
			Form:    c.form,
			Session: c.session,
			Board:   c.board,
			Login: func(ctx context.Context) error {
				return c.login(ctx, printLoginURL)
			},
		})
		if err := sh.Run(ctx); err != nil {
			l.Log.Fatal("shell stopped", zap.Error(err))
		}
	case "dashboard":
		app := tui.NewApp(ctx, c.catalog, c.form, c.session, c.board,
			tui.WithLogin(c.login),
			tui.WithOpener(auth.OpenBrowser),
		)
		if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			l.Log.Fatal("dashboard stopped", zap.Error(err))
		}
	case "login":
		if err := c.login(ctx, printLoginURL); err != nil {
			log.Fatal(err)
		}
		if u := c.session.CurrentUser(); u != nil {
			fmt.Printf("Logged in as %s\n", u.DisplayName())
			return
		}
		fmt.Println("Logged in")
	case "logout":
		fmt.Println("Logged out. To end the provider session, open:")
		fmt.Println(c.session.Logout())
	default:
		log.Fatalf("unknown command: %s", opts.Command)
	}
}

func newClient(opts *config.ClientOptions, zl *zap.Logger) (*client, error) {
	httpClient, err := storage.NewHTTPClient(opts.CAFile)
	if err != nil {
		return nil, err
	}

	var sealer *storage.Sealer
	if opts.StorageKey != "" {
		if sealer, err = storage.NewSealer(opts.StorageKey); err != nil {
			return nil, err
		}
	}
	ls := storage.NewLocalStorage(opts.StoragePath, sealer)
	tokens := storage.NewTokenStore(ls)

	provider := auth.NewAuth0(auth.Auth0Config{
		Domain:      opts.AuthDomain,
		ClientID:    opts.ClientID,
		Audience:    opts.Audience,
		RedirectURL: auth.RedirectURL(opts.CallbackAddr),
		HTTPClient:  httpClient,
	})
	session := auth.NewSession(provider, tokens, ls, "http://"+opts.CallbackAddr, zl.Named("auth"))

	board := &notify.Board{}
	notifier := notify.New(zl.Named("notify"), board)
	gateway := api.NewGateway(httpClient, opts.GraphQLURL, tokens, zl.Named("api"))
	cat := catalog.New(gateway, catalog.NewState(), notifier)
	ctrl := form.NewController(form.New(), gateway, cat, notifier)

	return &client{
		log:      zl,
		session:  session,
		callback: opts.CallbackAddr,
		board:    board,
		catalog:  cat,
		form:     ctrl,
	}, nil
}

// login runs the browser login against a callback server that lives only
// for the duration of the login. showURL receives the login URL when no
// browser could be opened.
func (c *client) login(ctx context.Context, showURL func(url string)) error {
	cb, err := auth.NewCallbackServer(c.callback, c.log.Named("callback"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cb.Close(shutdownCtx)
	}()

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	return c.session.LoginWithBrowser(ctx, cb, auth.OpenBrowser, func(url string) {
		c.log.Info("open the login URL manually", zap.String("url", url))
		showURL(url)
	})
}

func printLoginURL(url string) {
	fmt.Fprintln(os.Stderr, "Open this URL to log in:", url)
}
