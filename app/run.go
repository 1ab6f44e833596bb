package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/xraph/groupbuy/config"
)

// Run parses args, loads configuration and serves until ctx is canceled or
// the process receives SIGINT or SIGTERM.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, verbose, err := parseFlags(args, stdout)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg, WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			logger.Error("close failed", "error", err)
		}
	}()

	return a.Serve(ctx)
}

func parseFlags(args []string, out io.Writer) (*config.Config, bool, error) {
	fs := pflag.NewFlagSet("groupbuy", pflag.ContinueOnError)
	fs.SetOutput(out)

	configPath := fs.StringP("config", "c", os.Getenv("GROUPBUY_CONFIG"), "path to the YAML configuration file")
	addr := fs.String("addr", "", "HTTP listen address")
	driver := fs.String("store", "", "store driver: memory, sqlite, postgres or mongo")
	dsn := fs.String("dsn", "", "store connection string")
	echo := fs.Bool("echo-unrecognized", false, "echo messages that are not commands")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, false, err
	}

	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("store") {
		cfg.Store.Driver = *driver
	}
	if fs.Changed("dsn") {
		cfg.Store.DSN = *dsn
	}
	if fs.Changed("echo-unrecognized") {
		cfg.Bot.EchoUnrecognized = *echo
	}
	return cfg, *verbose, nil
}

// Serve listens on the configured address until ctx is done, then shuts
// the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("groupbuy listening", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}
