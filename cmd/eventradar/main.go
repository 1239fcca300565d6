package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"EventRadar/internal/config"
	"EventRadar/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "eventradar",
	Short:         "Tracks central-bank speeches, data releases and market news and sends reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (overrides EVENTRADAR_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(icsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig applies the persistent flags on top of config.Load.
func loadConfig() (config.Config, zerolog.Logger, error) {
	if configPath != "" {
		if err := os.Setenv("EVENTRADAR_CONFIG", configPath); err != nil {
			return config.Config{}, zerolog.Nop(), err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, logging.New(cfg.Logging.Level), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
