package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "paceline",
	Short: "paceline CLI",
	Long:  `paceline — Strava dashboard backend: account linking, sessions, activity proxy`,
}

func Execute(c *config.Config) {
	cfg = c
	logger.Info("Starting CLI", "env", cfg.AppEnv)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("CLI error", "error", err)
		os.Exit(1)
	}
}
