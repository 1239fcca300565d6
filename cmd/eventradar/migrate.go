package main

import (
	"github.com/spf13/cobra"

	"EventRadar/internal/infrastructure/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := storage.Open(cmd.Context(), cfg.Database.DSN)
		if err != nil {
			return err
		}
		logger.Info().Str("dialect", string(db.Dialect())).Msg("schema is up to date")
		return db.Close()
	},
}
