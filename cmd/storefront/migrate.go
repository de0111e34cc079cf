package main

import (
	"context"

	"storefront-svc/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema or the Mongo indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := openStore(cmd.Context(), cfg, true, logger)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			logger.Info("Migration complete", zap.String("driver", cfg.StoreDriver))
			return nil
		},
	}
}
