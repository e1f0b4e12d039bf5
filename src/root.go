package main

import (
	"log/slog"

	"github.com/rekorded/rekorded/src/features/config"
	"github.com/rekorded/rekorded/src/features/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// loadConfig loads the configuration file and installs the default logger.
func (o *rootOptions) loadConfig() (*config.Manager, error) {
	cfgManager, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.SetupLogger(cfgManager))
	return cfgManager, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "rekorded",
		Short:         "Quality reports for rekordbox library exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newMigrateCommand(opts))

	return rootCmd
}
