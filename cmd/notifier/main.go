package main

import (
	"os"

	"anniversary_notifier/internal/infra/config"
	"anniversary_notifier/internal/infra/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var cfg *config.AppConfig

	rootCmd := &cobra.Command{
		Use:           "notifier",
		Short:         "Anniversary notifier: detects upcoming anniversaries and dispatches notifications",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Init(cfg)
			logger.Log.Debugf("Configuration loaded. Environment: %s, queue driver: %s", cfg.Environment, cfg.QueueDriver)
			return nil
		},
	}

	getConfig := func() *config.AppConfig { return cfg }
	rootCmd.AddCommand(
		serveCommand(getConfig),
		runCommand(getConfig),
		migrateCommand(getConfig),
	)
	return rootCmd
}
