// Package server runs an HTTP handler until its context ends, reloading
// on SIGHUP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/etymograph/pkg/logging"
)

// ReloadFunc reloads whatever the server serves, e.g. its dataset.
type ReloadFunc func(ctx context.Context) error

// Config holds the HTTP server settings.
type Config struct {
	Addr            string        `yaml:"addr" toml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" toml:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"gte=0"`
	TLS             TLSConfig     `yaml:"tls" toml:"tls"`
}

// DefaultConfig listens where the explorer's remote client looks by
// default.
func DefaultConfig() Config {
	return Config{
		Addr:            ":3001",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// GracefulServer wraps an HTTP server with graceful shutdown and reload.
type GracefulServer struct {
	server   *http.Server
	timeout  time.Duration
	log      logging.Logger
	tls      TLSConfig
	shutdown chan struct{}
	once     sync.Once

	reloadMu sync.RWMutex
	reload   ReloadFunc
}

// NewGracefulServer creates a server for handler.
func NewGracefulServer(cfg Config, handler http.Handler, logger logging.Logger) *GracefulServer {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: 1 << 20,
		},
		timeout:  cfg.ShutdownTimeout,
		tls:      cfg.TLS,
		log:      logging.OrNop(logger).With(logging.Component("server")),
		shutdown: make(chan struct{}),
	}
}

// Run listens on the configured address and serves until ctx is done,
// then drains connections. SIGHUP triggers the reload function.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve is Run on an existing listener. The listener is wrapped in TLS
// when the config enables it.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	tlsCfg, err := gs.tls.Load()
	if err != nil {
		ln.Close()
		return err
	}
	scheme := "http"
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
		scheme = "https"
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	errCh := make(chan error, 1)
	go func() {
		gs.log.Info("listening", logging.String("addr", ln.Addr().String()), logging.String("scheme", scheme))
		if err := gs.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-hup:
			gs.log.Info("received SIGHUP, reloading")
			_ = gs.Reload(ctx)
		case <-ctx.Done():
			return gs.Shutdown()
		}
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// up to the shutdown timeout.
func (gs *GracefulServer) Shutdown() error {
	var err error
	gs.once.Do(func() {
		close(gs.shutdown)
		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		gs.log.Info("shutting down", logging.Duration("timeout", gs.timeout))
		if err = gs.server.Shutdown(ctx); err != nil {
			gs.log.Error("shutdown failed", logging.Error(err))
			return
		}
		gs.log.Info("shutdown complete")
	})
	return err
}

// IsShuttingDown reports whether shutdown has begun.
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdown:
		return true
	default:
		return false
	}
}

// SetReloadFunc sets the function Reload calls.
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.reloadMu.Lock()
	defer gs.reloadMu.Unlock()
	gs.reload = fn
}

// Reload runs the reload function, if any. Failures are logged and the
// server keeps serving what it had.
func (gs *GracefulServer) Reload(ctx context.Context) error {
	gs.reloadMu.RLock()
	fn := gs.reload
	gs.reloadMu.RUnlock()

	if fn == nil {
		gs.log.Warn("reload requested, but no reload function configured")
		return nil
	}
	if err := fn(ctx); err != nil {
		gs.log.Error("reload failed", logging.Error(err))
		return err
	}
	gs.log.Info("reload complete")
	return nil
}
