package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/api"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{stores: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := api.NewServer(a.items, a.pipeline, a.cfg.Tracked, a.settings.AdminSecret, a.logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().Str("port", a.settings.Port).Msg("server_starting")
				errCh <- srv.Start(a.settings.Port)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.logger.Info().Msg("server_stopping")
			return srv.Shutdown(shutdownCtx)
		},
	}
}
