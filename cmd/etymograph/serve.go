package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dd0wney/etymograph/pkg/health"
	"github.com/dd0wney/etymograph/pkg/lexicon"
	"github.com/dd0wney/etymograph/pkg/lexiconapi"
	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/dd0wney/etymograph/pkg/metrics"
	"github.com/dd0wney/etymograph/pkg/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured dataset over the etymology HTTP API",
		Long: "Serve answers the same API the remote lexicon client reads, so one\n" +
			"etymograph can browse a dataset served by another. SIGHUP reloads\n" +
			"the dataset; --watch also reloads it when the file changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, watch)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when the dataset file changes")
	return cmd
}

func (a *app) serve(ctx context.Context, watch bool) error {
	lex, err := a.loadStatic(ctx)
	if err != nil {
		return err
	}
	if a.cfg.LogLevel > logging.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	var reg *metrics.Registry
	if a.cfg.Metrics {
		reg = metrics.NewRegistry()
	}
	api := lexiconapi.New(lex, lexiconapi.Options{
		ServiceName: serviceName,
		Logger:      a.log,
		Metrics:     reg,
		Health:      health.NewChecker(),
	})

	srv := server.NewGracefulServer(a.cfg.Server, api.Handler(), a.log)
	srv.SetReloadFunc(func(ctx context.Context) error {
		next, err := a.loadStatic(ctx)
		if err != nil {
			return err
		}
		api.Swap(next)
		return nil
	})

	if watch {
		path, ok := lexicon.LocalPath(a.cfg.Lexicon.Source)
		if !ok {
			a.log.Warn("--watch ignored: dataset is not a local file",
				logging.String("source", a.cfg.Lexicon.Source))
		} else {
			w, err := watchFile(path, 250*time.Millisecond, a.log, func() {
				_ = srv.Reload(ctx)
			})
			if err != nil {
				return err
			}
			defer w.Close()
		}
	}

	a.log.Info("serving dataset",
		logging.String("dataset", lex.Name()),
		logging.Count(lex.Stats().TotalWords),
		logging.String("addr", a.cfg.Server.Addr))
	return srv.Run(ctx)
}
