package cli

import (
	"github.com/spf13/cobra"

	"github.com/reelpipe/uplink/internal/config"
	recordpg "github.com/reelpipe/uplink/internal/record/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply record store schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}

			db, err := recordpg.Open(ctx, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := recordpg.RunMigrations(ctx, db); err != nil {
				return err
			}
			logger.Info().Msg("record store migrations applied")
			return nil
		},
	}
}
