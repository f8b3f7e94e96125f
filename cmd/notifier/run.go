package main

import (
	"context"
	"fmt"

	"anniversary_notifier/internal/infra/config"
	"anniversary_notifier/internal/infra/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func runCommand(getConfig func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one notification run synchronously and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, err := buildComponents(getConfig())
			if err != nil {
				return err
			}
			defer c.Close()

			state := c.batch.Run(ctx, uuid.NewString())
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: created=%d processed=%d sent=%d errors=%d\n",
				state.RunID, state.CreatedCount, state.ProcessedCount, state.SentCount, state.ErrorCount)
			if state.ErrorCount > 0 {
				logger.Log.WithField("run_id", state.RunID).Warn("Run finished with errors")
				return fmt.Errorf("run %s finished with %d errors", state.RunID, state.ErrorCount)
			}
			return nil
		},
	}
}
