package main

import (
	"context"

	"anniversary_notifier/internal/infra/config"
	idb "anniversary_notifier/internal/infra/database"
	"anniversary_notifier/internal/infra/logger"

	"github.com/spf13/cobra"
)

func migrateCommand(getConfig func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := idb.NewPostgresConnection(getConfig().DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := idb.Migrate(context.Background(), db); err != nil {
				return err
			}
			logger.Log.Info("Database schema applied.")
			return nil
		},
	}
}
