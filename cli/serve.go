package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"shortcut-panel/api"
	"shortcut-panel/logging"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(rt *runtime) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, terminal sessions and change events",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(true)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				if err := c.Watch(ctx); err != nil {
					logging.Error().Err(err).Msg("store watcher stopped")
				}
			}()

			srv := &http.Server{Addr: addr, Handler: api.RegisterRoutes(c)}
			errCh := make(chan error, 1)
			go func() {
				logging.Info().Str("addr", addr).Str("store", c.Config.Store.Path).Msg("shortcut-panel listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logging.Info().Msg("shutting down")
			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
