package main

import (
	"context"
	"fmt"

	"github.com/dd0wney/etymograph/pkg/config"
	"github.com/dd0wney/etymograph/pkg/graphstate"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/spf13/cobra"
)

const serviceName = "etymograph"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	trace      bool

	cfg      config.Config
	log      logging.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{log: logging.NewNopLogger()}
	cmd := &cobra.Command{
		Use:   "etymograph",
		Short: "Explore word etymologies as a graph",
		Long: brand.Sprint("etymograph") + " walks the ancestry of words\n" +
			subtle.Sprint("Browse interactively, serve a dataset, or export a layout"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("etymograph {{ .Version }}\n")

	f := cmd.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "config file (.yaml or .toml)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.BoolVar(&a.trace, "trace", false, "write trace spans to stderr")

	cmd.AddCommand(
		exploreCmd(a),
		serveCmd(a),
		layoutCmd(a),
		searchCmd(a),
		pathCmd(a),
		statusCmd(a),
		datasetsCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = logging.ParseLevel(a.logLevel)
	}
	a.cfg = cfg
	a.log = logging.NewJSONLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	logging.SetDefaultLogger(a.log)

	if a.trace {
		shutdown, err := setupTracing(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		a.shutdown = shutdown
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.shutdown(ctx)
}

// engineOptions returns the configured engine options with the
// command's logger attached.
func (a *app) engineOptions() graphstate.Options {
	opts := a.cfg.EngineOptions()
	opts.Logger = a.log
	return opts
}
