package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// retryCmd re-sends the failed chunks of a journaled run.
var retryCmd = &cobra.Command{
	Use:   "retry <run-id>",
	Short: "Retry the failed chunks of a previous run",
	Long: `Re-sends the stored payloads of every chunk that failed in the given run and
has not been retried yet. Chunks that fail again are recorded under the retry
run. Requires the run journal (database.enabled).`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func init() {
	RootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	if err := a.buildService(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.service.Retry(ctx, args[0])
	if report != nil {
		printReport(a.logger, report)
	}
	if err != nil {
		return err
	}
	return report.Err()
}
