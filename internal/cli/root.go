// Package cli provides the command-line interface for uplink.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reelpipe/uplink/internal/logging"
	"github.com/reelpipe/uplink/internal/version"
)

var (
	// Global flags
	verbose       bool
	maxConcurrent int

	// Global logger
	logger *logging.Logger

	// Root context, cancelled on SIGINT/SIGTERM
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uplink",
		Short: "Uplink - resilient media upload pipeline",
		Long: `Uplink ` + version.Version + `
Uploads production media files to cloud storage and records their metadata
in the system of record, with compensating cleanup when either side fails.`,
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefault()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&maxConcurrent, "concurrency", 0, "max concurrent uploads (overrides UPLINK_MAX_CONCURRENT)")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newMigrateCmd())

	return rootCmd
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() int {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancelFunc()
	}()

	if err := NewRootCmd().ExecuteContext(rootContext); err != nil {
		return 1
	}
	return 0
}
