package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/drake/scythe/ai"
	"github.com/drake/scythe/config"
	"github.com/drake/scythe/debug"
	"github.com/drake/scythe/pane"
	"github.com/drake/scythe/session"
	"github.com/drake/scythe/terminal"
	"github.com/drake/scythe/ui/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// options holds the root command's flags. Zero values leave the config
// file's settings alone.
type options struct {
	configFile string
	shell      string
	cwd        string
	model      string
	endpoint   string
	layout     string
	noAI       bool
	debug      bool
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "scythe",
		Short: "A split-pane terminal workspace with automation and an AI assistant",
		Long: `scythe runs shells in tabs and split panes, drives them with Lua
automation scripts from the Automate menu, and answers questions from a
local Ollama-compatible model in a side panel.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "c", config.File(), "config file")
	f.StringVar(&opts.shell, "shell", "", "shell to spawn (default $SHELL)")
	f.StringVar(&opts.cwd, "cwd", "", "working directory for new shells")
	f.StringVar(&opts.model, "model", "", "AI model name")
	f.StringVar(&opts.endpoint, "endpoint", "", "AI server base URL")
	f.StringVarP(&opts.layout, "layout", "l", "", "saved session to open at startup")
	f.BoolVar(&opts.noAI, "no-ai", false, "answer locally without an inference server")
	f.BoolVar(&opts.debug, "debug", false, "debug logging and periodic stats")

	cmd.AddCommand(versionCmd(), configCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "scythe", version)
		},
	}
}

// loadConfig reads the config file and applies flag overrides. Unknown
// keys are reported but do not stop startup.
func loadConfig(opts options, warn io.Writer) (config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if errors.Is(err, config.ErrUnknownKeys) {
		fmt.Fprintf(warn, "Warning: %s: %v\n", opts.configFile, err)
	} else if err != nil {
		return cfg, err
	}
	return applyFlags(cfg, opts), nil
}

func applyFlags(cfg config.Config, opts options) config.Config {
	if opts.shell != "" {
		cfg.Shell = opts.shell
	}
	if opts.cwd != "" {
		cfg.WorkDir = opts.cwd
	}
	if opts.model != "" {
		cfg.AI.Model = opts.model
	}
	if opts.endpoint != "" {
		cfg.AI.Endpoint = opts.endpoint
	}
	if opts.noAI {
		cfg.AI.Enabled = false
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	return cfg.Normalize()
}

// openLog points the default logger at the log file. The TUI owns the
// terminal, so nothing is logged to stderr while it runs.
func openLog(cfg config.LogConfig) (*log.Logger, io.Closer, error) {
	var out io.Writer = io.Discard
	var closer io.Closer = io.NopCloser(nil)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		out, closer = f, f
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	log.SetDefault(logger)
	return logger, closer, nil
}

func sessionConfig(cfg config.Config, opts options) session.Config {
	sc := session.Config{
		Terminal: terminal.Config{
			Shell: cfg.Shell,
			Args:  cfg.ShellArgs,
			Dir:   cfg.WorkDir,
			Grace: time.Duration(cfg.GraceMilli) * time.Millisecond,
		},
		Dividers: pane.Dividers{
			Horizontal: cfg.Layout.HorizontalDivider,
			Vertical:   cfg.Layout.VerticalDivider,
		},
		AIModel:     cfg.AI.Model,
		AITimeout:   time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		ScriptsDir:  cfg.Automate.Dir,
		LayoutPath:  cfg.Session.Path,
		StartLayout: opts.layout,
		ConfigFile:  opts.configFile,
		Overrides: func(c config.Config) config.Config {
			return applyFlags(c, opts)
		},
	}
	if cfg.AI.Enabled {
		sc.AI = ai.NewClient(ai.Config{
			Endpoint:  cfg.AI.Endpoint,
			Model:     cfg.AI.Model,
			Timeout:   sc.AITimeout,
			CacheSize: cfg.AI.CacheSize,
		})
	}
	return sc
}

func run(ctx context.Context, opts options, stderr io.Writer) error {
	cfg, err := loadConfig(opts, stderr)
	if err != nil {
		return err
	}

	logger, closer, err := openLog(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("starting", "version", version, "shell", cfg.Shell, "ai", cfg.AI.Enabled)

	u := tui.NewBubbleTeaUI(tui.Config{
		Metrics: tui.Metrics{
			CellWidth:  cfg.Layout.CellWidth,
			CellHeight: cfg.Layout.CellHeight,
		},
		PanelWidth: cfg.Layout.SidePanelWidth,
		ShowPanel:  cfg.Layout.ShowSidePanel,
	})
	sess := session.New(u, sessionConfig(cfg, opts))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	debug.NewMonitor(ctx, sess, logger, opts.debug).Start()

	if err := sess.Run(); err != nil {
		logger.Error("exited", "err", err)
		return err
	}
	logger.Info("exited")
	return nil
}
