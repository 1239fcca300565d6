package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"EventRadar/internal/app"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run ingestion, reminders and the chat command surface",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if err := application.Start(ctx); err != nil {
			_ = application.Close()
			return err
		}
		if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			logger.Warn().Err(err).Msg("sd_notify ready failed")
		} else if ok {
			logger.Debug().Msg("notified systemd")
		}
		logger.Info().Str("dsn", cfg.Database.DSN).Strs("scopes", cfg.Scopes()).Msg("eventradar running")

		<-ctx.Done()
		logger.Info().Msg("shutting down")
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return application.Shutdown(shutdownCtx)
	},
}
