// Package main implements the cardiosplit run/walk interval timer.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lowaak/cardiosplit/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// v holds the layered configuration for the command being run
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "cardiosplit",
	Short: "Run/walk interval timer",
	Long: `cardiosplit alternates run and walk phases over a total workout time,
with a Ready/Set/Go countdown, audible cues and a summary at the end.

Without a subcommand it opens the terminal UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.BindFlags(v, cmd.Flags())
	},
	RunE: runTUI,
}

func init() {
	config.AddFlags(rootCmd.PersistentFlags())
}

// loadConfig resolves the configuration of cmd
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(v, configFile)
}
