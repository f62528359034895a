package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/koustreak/timefs/internal/dirindex"
	"github.com/koustreak/timefs/internal/errs"
	"github.com/koustreak/timefs/internal/metrics"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve <root>",
		Short: "Serve a root as browsable HTTP directory indexes",
		Long: `Serve <root> over HTTP with Apache-style directory index pages, so
that another timefs can mount it as an http:// root. When metrics are
enabled they are exposed at /metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = e.cfg.Serve.Address
			}
			b, err := e.registry.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			opts := []dirindex.Option{dirindex.WithLogger(e.log)}
			if metrics.IsEnabled() {
				opts = append(opts, dirindex.WithHandler("/metrics", metrics.Handler()))
			}
			srv := &http.Server{
				Addr:              listen,
				Handler:           dirindex.New(b, opts...).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(cmd.Context(), srv, e)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default serve.address)")
	return cmd
}

// runServer serves until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, e *env) error {
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()
	e.log.InfoWith("serving", map[string]interface{}{"address": srv.Addr})

	select {
	case err := <-done:
		return errs.Wrap(errs.ErrKindIOFailure, "listen on "+srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.ErrKindIOFailure, "shutdown", err)
	}
	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	e.log.Info("server stopped")
	return nil
}
