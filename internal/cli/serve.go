package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/httpapi"
	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/storage"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen    string
	Ephemeral bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracker over HTTP",
		Long: `Serve the tracker's views and mutations as a local HTTP API, for
dashboards or scripts that poll instead of shelling out.

The server owns the store for its lifetime; other slipline commands
against the same data directory should wait until it stops.

Example:
  slipline serve
  slipline serve --listen 127.0.0.1:9000
  slipline serve --ephemeral`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&opts.Ephemeral, "ephemeral", false, "serve from memory, nothing touches disk")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	var st storage.Store
	backend := cfg.Storage
	if opts.Ephemeral {
		st = storage.NewMemory()
		backend = "ephemeral"
	} else {
		var err error
		st, err = openStore(cfg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open storage", err)
		}
	}

	app, err := newApp(cfg, st)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	unsubscribe := app.Journal.Subscribe(func(c journal.Change) {
		slog.Debug("journal change", "kind", c.Kind.String(), "slip_id", c.Slip.ID, "version", c.Version)
	})
	defer unsubscribe()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: httpapi.NewHandler(app.Tracker, app.Journal, app.Settings),
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("server starting", "addr", cfg.Listen, "storage", backend)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", cfg.Listen)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server error", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitCommandError, "shutdown error", err)
		}
	}

	slog.Info("server stopped gracefully")
	return nil
}
