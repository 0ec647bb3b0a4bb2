package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pickabook/pkb/internal/aggregator"
	"github.com/pickabook/pkb/internal/api"
	"github.com/pickabook/pkb/internal/auth"
	"github.com/pickabook/pkb/internal/config"
	"github.com/pickabook/pkb/internal/linkcheck"
	"github.com/pickabook/pkb/internal/logging"
	"github.com/pickabook/pkb/internal/notification"
	"github.com/pickabook/pkb/internal/session"
	"github.com/pickabook/pkb/internal/spinner"
	"github.com/pickabook/pkb/internal/tagindex"
	"github.com/pickabook/pkb/internal/validate"
	"github.com/pickabook/pkb/internal/view"
)

// openURL opens a URL in the default browser.
var openURL = func(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("cannot open a browser on %s", runtime.GOOS)
	}
	return cmd.Start()
}

// app carries the components every command works with.
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	logger  *zap.Logger
	store   session.Store
	auth    *auth.Authenticator
	client  *api.Client
	agg     *aggregator.Aggregator
	sorter  *view.Sorter
	center  *notification.Center
	checker *linkcheck.Checker

	stdin  *bufio.Reader
	stderr io.Writer
}

func (a *app) init(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultFilePath(); err != nil {
			return fmt.Errorf("config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.stdin = bufio.NewReader(cmd.InOrStdin())
	a.stderr = cmd.ErrOrStderr()

	a.logger, err = logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: a.verbose,
		Output:  a.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	dir, err := cfg.SessionDir()
	if err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	a.store, err = session.Open(dir, cfg.Session.Backend)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	v := validate.New()
	a.auth = auth.New(auth.Params{
		Store:     a.store,
		Logger:    a.logger.Named("auth"),
		Validator: v,
	})

	a.client, err = api.NewClient(api.ClientParams{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout(),
		Token:   a.auth.Token,
		Limiter: newLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst),
		Logger:  a.logger.Named("api"),
	})
	if err != nil {
		return err
	}
	a.auth.SetService(a.client)

	a.agg = aggregator.New(aggregator.Params{
		Service:   a.client,
		PageSize:  cfg.PageSize,
		Logger:    a.logger.Named("aggregator"),
		Validator: v,
		OnLoading: func(loading bool) {
			a.logger.Debug("loading changed", zap.Bool("loading", loading))
		},
	})

	a.sorter, err = view.NewSorter(cfg.Locale)
	if err != nil {
		return err
	}

	a.center = notification.NewCenter(a.client, a.logger.Named("notification"))

	a.checker = linkcheck.New(linkcheck.Params{
		Concurrency:     cfg.LinkCheck.Concurrency,
		Timeout:         cfg.LinkCheckTimeout(),
		ExcludedDomains: cfg.LinkCheck.ExcludedDomains,
		Limiter:         newLimiter(cfg.LinkCheck.RequestsPerSec, cfg.LinkCheck.Concurrency),
		Logger:          a.logger.Named("linkcheck"),
	})
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close session store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// spin runs fn behind a spinner when stderr is a terminal.
func (a *app) spin(ctx context.Context, title string, fn func(context.Context) error) error {
	return spinner.Run(ctx, title, spinner.Options{
		Output:   a.stderr,
		Disabled: a.verbose || !spinner.IsTerminal(a.stderr),
	}, fn)
}

// load fetches all tags and bookmarks. It requires a session.
func (a *app) load(ctx context.Context) (*tagindex.Index, error) {
	if err := a.auth.RequireLogin(); err != nil {
		return nil, err
	}
	var idx *tagindex.Index
	err := a.spin(ctx, "Loading bookmarks", func(ctx context.Context) error {
		var err error
		idx, err = a.agg.Load(ctx)
		return err
	})
	return idx, err
}

// prompt prints label and reads one line from stdin.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := a.stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// orPrompt returns value, or asks for it when empty.
func (a *app) orPrompt(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.prompt(cmd, label)
}
