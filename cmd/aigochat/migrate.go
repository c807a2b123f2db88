package main

import (
	"github.com/spf13/cobra"

	"github.com/leofalp/aigochat/internal/storage"
	"github.com/leofalp/aigochat/providers/observability"
)

func (a *app) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the conversation schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}

			store, err := storage.Open(cmd.Context(), cfg.DatabaseURL, logger)
			if err != nil {
				logger.Error("Failed to open conversation store", observability.AttrError, err)
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				logger.Error("Migration failed", observability.AttrError, err)
				return err
			}
			logger.Info("Migration complete")
			return nil
		},
	}
}
