package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/centraunit/digo/debug"
	"github.com/centraunit/digo/metrics"
	"github.com/spf13/cobra"
)

// digo serve: expose the sample container over HTTP.
func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /bindings, /arena and /metrics for the sample container",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, c, col, err := flags.setup()
			if err != nil {
				return err
			}
			if listen != "" {
				settings.Listen = listen
			}
			if err := c.Eager(); err != nil {
				_ = c.Shutdown(context.Background())
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              settings.Listen,
				Handler:           debug.Router(c, metrics.NewRegistry(col)),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			c.Logger().Info("introspection server listening", "addr", settings.Listen)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", settings.Listen)

			select {
			case err = <-errCh:
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				err = srv.Shutdown(shutdownCtx)
			}
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			return errors.Join(err, c.Shutdown(context.Background()))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides the settings")
	return cmd
}
