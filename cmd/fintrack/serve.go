package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context(), rt.logger)
			defer stop()

			app, err := cli.Open(ctx, rt.cfg, rt.logger, cli.Options{Publisher: true, Sheets: true})
			if err != nil {
				return err
			}
			defer app.Close()

			var health apphttp.HealthChecker
			if app.KV != nil {
				health = app.KV
			}

			srv, err := apphttp.NewServer(apphttp.Config{
				Addr:                    ":" + rt.cfg.Port,
				ErrorPreview:            rt.cfg.ErrorPreview,
				ImportRequestsPerMinute: rt.cfg.ImportRateLimit,
				SheetsRequestsPerMinute: rt.cfg.SheetsRateLimit,
				TrustedProxies:          rt.cfg.Proxies(),
				Logger:                  rt.logger,
				Health:                  health,
			}, app.Ledger, app.Transfer)
			if err != nil {
				return fmt.Errorf("configure server: %w", err)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				rt.logger.Info("Starting fintrack server",
					log.FieldOperation, log.OpStartup,
					"port", rt.cfg.Port,
					"backend", rt.cfg.DataBackend)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					rt.logger.Error("Server shutdown error", log.FieldError, err)
					return err
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			rt.logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
			return nil
		},
	}
}
