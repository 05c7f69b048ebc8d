package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tmcf/paceline/internal/logger"
	"github.com/tmcf/paceline/server"
)

var serverCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"start"},
	Short:   "Start the paceline server",
	Run: func(_ *cobra.Command, _ []string) {
		if err := server.Start(cfg); err != nil {
			// Startup failures (bad config, unreachable database) must not
			// leave a half-alive process
			logger.Error("Server exited with error", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
