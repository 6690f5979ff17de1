package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelpipe/uplink/internal/config"
	recordpg "github.com/reelpipe/uplink/internal/record/postgres"
)

// newStatusCmd reports configuration and connectivity of the pipeline's
// collaborators. Useful before a large batch: a dead record store found
// here is a batch that never starts, not a pile of failed tasks.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration and connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("config        ok    %s\n", cfg)

			if err := checkRecordStore(ctx, cfg); err != nil {
				fmt.Printf("record store  FAIL  %v\n", err)
				return fmt.Errorf("record store unreachable")
			}
			fmt.Println("record store  ok")

			if err := checkRemoteStore(ctx, cfg); err != nil {
				fmt.Printf("remote store  FAIL  %v\n", err)
				return fmt.Errorf("remote store unreachable")
			}
			fmt.Printf("remote store  ok    provider=%s bucket=%s\n", cfg.Provider, cfg.Bucket)

			if err := checkAuth(ctx, cfg); err != nil {
				fmt.Printf("auth          FAIL  %v\n", err)
				return fmt.Errorf("auth check failed")
			}
			fmt.Println("auth          ok")
			return nil
		},
	}
}

func checkRecordStore(ctx context.Context, cfg *config.Config) error {
	db, err := recordpg.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = recordpg.NewRepository(db).CountActiveByProject(ctx, "status-probe")
	return err
}

func checkRemoteStore(ctx context.Context, cfg *config.Config) error {
	store, err := buildRemoteStore(ctx, cfg)
	if err != nil {
		return err
	}
	// Existence of an arbitrary key exercises credentials and reachability
	// without writing anything.
	_, err = store.Exists(ctx, ".uplink-status-probe")
	return err
}

func checkAuth(ctx context.Context, cfg *config.Config) error {
	a := buildAuthenticator(cfg)
	if a.IsSignedIn(ctx) {
		return nil
	}
	return a.SignIn(ctx)
}
