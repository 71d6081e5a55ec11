// Package cmd implements the CLI commands for jirapipe using Cobra.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gaurav-prasanna/jirapipe/core"
	"github.com/gaurav-prasanna/jirapipe/core/document"
	"github.com/gaurav-prasanna/jirapipe/core/fetch"
	"github.com/gaurav-prasanna/jirapipe/core/normalize"
	"github.com/gaurav-prasanna/jirapipe/core/terminal"
	"github.com/gaurav-prasanna/jirapipe/internal/config"
	"github.com/gaurav-prasanna/jirapipe/internal/logging"
)

// Persistent flag variables.
var (
	flagConfig   string
	flagLogLevel string
)

// Loaded by the root command before any subcommand runs.
var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "jirapipe",
	Short: "jirapipe — read, convert and export Jira work items",
	Long: `jirapipe fetches Jira work items and turns their rich-text fields
(Atlassian Document Format) into Markdown, JSON, PDF or styled terminal output.

Usage:
  jirapipe issue show ENG-42
  jirapipe issue export ENG-42 --all --markdown
  jirapipe convert description.json`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $"+config.EnvConfigFile+" or "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: DEBUG, INFO, WARNING, ERROR (overrides the config file)")
}

// Execute runs the root command. An interrupt cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command tree. Cobra skips PersistentPostRunE when a
// command fails, so the log file is closed here in that case.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_ = teardown(rootCmd, nil)
	}
	return err
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		loaded.LogLevel = flagLogLevel
	}
	_, closer, err := logging.Setup(loaded.LogLevel, loaded.LogFile)
	if err != nil {
		return err
	}
	cfg, logCloser = loaded, closer
	slog.Debug("command starting", "command", cmd.CommandPath())
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// newClient builds an API client from the loaded configuration.
func newClient() (*fetch.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	opts, err := fetch.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return fetch.New(opts)
}

func newNormalizer() *normalize.FieldNormalizer {
	return normalize.New(cfg.WebBaseURL(), false)
}

func documentOptions() document.Options {
	return document.Options{
		WebBaseURL:   cfg.WebBaseURL(),
		ShowWebLinks: cfg.ShowWebLinks,
	}
}

// workItemSource is the part of the API client that loads work items.
type workItemSource interface {
	core.Fetcher
	RemoteLinks(ctx context.Context, key string) ([]core.RemoteLink, error)
}

// loadWorkItem fetches a work item together with its web links. Web link
// failures are logged and otherwise ignored.
func loadWorkItem(ctx context.Context, c workItemSource, key string) (*core.WorkItem, error) {
	item, err := c.WorkItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := attachWebLinks(ctx, c, item); err != nil {
		slog.Warn("fetching web links failed", "key", item.Key, "err", err)
	}
	return item, nil
}

func attachWebLinks(ctx context.Context, c workItemSource, item *core.WorkItem) error {
	if !cfg.ShowWebLinks {
		return nil
	}
	links, err := c.RemoteLinks(ctx, item.Key)
	if err != nil {
		return err
	}
	item.WebLinks = links
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or the renderer default.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return terminal.DefaultWidth
}
