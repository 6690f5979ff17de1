package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelpipe/uplink/internal/auth"
	"github.com/reelpipe/uplink/internal/category"
	"github.com/reelpipe/uplink/internal/config"
	"github.com/reelpipe/uplink/internal/events"
	"github.com/reelpipe/uplink/internal/folder"
	"github.com/reelpipe/uplink/internal/pipeline"
	"github.com/reelpipe/uplink/internal/progressui"
	recordpg "github.com/reelpipe/uplink/internal/record/postgres"
	"github.com/reelpipe/uplink/internal/remote"
	"github.com/reelpipe/uplink/internal/remote/azstore"
	"github.com/reelpipe/uplink/internal/remote/s3store"
)

func newUploadCmd() *cobra.Command {
	var (
		projectID string
		catFlag   string
	)

	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload media files and record their metadata",
		Long: `Upload one or more media files to the configured remote store, then
record each file in the system of record. Files uploaded for a known
project are renamed to sequence-numbered display names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := category.Parse(catFlag)
			if err != nil {
				return err
			}
			return runUpload(cmd.Context(), projectID, cat, args)
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "p", "", "project identifier (enables sequence naming)")
	cmd.Flags().StringVarP(&catFlag, "category", "c", string(category.Other), "file category")

	return cmd
}

func runUpload(ctx context.Context, projectID string, cat category.Category, paths []string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if maxConcurrent > 0 {
		cfg.MaxConcurrent = maxConcurrent
	}

	remoteStore, err := buildRemoteStore(ctx, cfg)
	if err != nil {
		return err
	}

	db, err := recordpg.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	records := recordpg.NewRepository(db)

	sources := make([]remote.Source, 0, len(paths))
	for _, path := range paths {
		src, err := remote.NewFileSource(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	bus := events.NewEventBus(0)
	defer bus.Close()

	renderer := progressui.New()
	if renderer.IsTerminal() {
		logger.SetOutput(renderer.Writer())
	}
	go renderer.Run(bus.SubscribeAll())

	queue := pipeline.NewQueue(projectID, pipeline.Deps{
		Auth:     buildAuthenticator(cfg),
		Remote:   remoteStore,
		Records:  records,
		Resolver: folder.NewResolver(remoteStore),
		Bus:      bus,
		Logger:   logger,
	}, cfg.MaxConcurrent)

	queue.Enqueue(sources, cat)

	summary, err := queue.StartAll(ctx)
	if err != nil {
		return err
	}
	renderer.Wait()

	printSummary(queue, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", summary.Failed, summary.Completed+summary.Failed)
	}
	return nil
}

func buildRemoteStore(ctx context.Context, cfg *config.Config) (remote.Store, error) {
	switch cfg.Provider {
	case "azure":
		return azstore.New(azstore.Config{
			AccountURL: cfg.AzureAccountURL,
			Container:  cfg.Bucket,
		})
	default:
		return s3store.New(ctx, s3store.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	}
}

func buildAuthenticator(cfg *config.Config) auth.Authenticator {
	if cfg.AuthBaseURL == "" {
		// Provider credentials carry their own auth; no separate session.
		return auth.Static{}
	}
	return auth.NewTokenAuthenticator(cfg.AuthBaseURL, cfg.AuthToken)
}

func printSummary(queue *pipeline.Queue, summary pipeline.Summary) {
	fmt.Printf("\nUploaded %d file(s), %d failed (%.1fs)\n",
		summary.Completed, summary.Failed, summary.Duration.Seconds())

	for _, v := range queue.Tasks() {
		switch v.Status {
		case pipeline.StatusComplete:
			fmt.Printf("  ok    %s -> %s\n", v.FileName, v.DisplayName)
		case pipeline.StatusError:
			fmt.Printf("  FAIL  %s (%s)\n", v.FileName, v.ErrorKind)
		}
	}

	if len(summary.Orphans) > 0 {
		fmt.Printf("\nWARNING: %d remote object(s) need manual reconciliation:\n", len(summary.Orphans))
		for _, o := range summary.Orphans {
			fmt.Printf("  %s (file %s): remote id %s\n", o.TaskID, o.FileName, o.RemoteID)
		}
	}
}
