package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

var utilCmd = &cobra.Command{
	Use:     "util",
	Aliases: []string{"utils"},
	Short:   "Utility commands for paceline",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("Available utility commands:")
		fmt.Println("  generate-secret - Generate a session signing secret")
	},
}

var utilGenerateSecretCmd = &cobra.Command{
	Use:   "generate-secret",
	Short: "Generate a session signing secret",
	Run: func(_ *cobra.Command, _ []string) {
		b := make([]byte, 48)
		if _, err := rand.Read(b); err != nil {
			panic(fmt.Errorf("failed to generate secret: %w", err))
		}
		fmt.Println(base64.RawURLEncoding.EncodeToString(b))
	},
}

func init() {
	rootCmd.AddCommand(utilCmd)
	utilCmd.AddCommand(utilGenerateSecretCmd)
}
