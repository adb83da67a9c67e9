package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	featuresync "roster-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncFile   string
	syncObject string
	syncDryRun bool
	yesConfirm bool
)

// syncCmd runs one reconciliation from the command line.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the roster export against Airtable",
	Long: `Reads the roster export, fetches the whole Airtable table and applies the
inserts and updates needed to bring Airtable in line with the export.

Without --yes the plan is computed and printed first, and nothing is written
until the prompt is confirmed.

Examples:
  # Plan only
  roster-sync sync --dry-run

  # Apply with interactive confirmation
  roster-sync sync --file ./Employees.xlsx

  # Apply the newest export in the bucket, non-interactive
  roster-sync sync --object exports/ --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFile, "file", "", "Path to the roster export (overrides roster.file)")
	syncCmd.Flags().StringVar(&syncObject, "object", "", "Storage object, or prefix ending in / for the newest object (overrides roster.object)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan without writing to Airtable")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm writes (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	req := featuresync.Request{
		Trigger: featuresync.TriggerCLI,
		File:    syncFile,
		Object:  syncObject,
		DryRun:  syncDryRun || a.cfg.Sync.DryRun,
	}

	if !req.DryRun && !yesConfirm {
		preview := req
		preview.DryRun = true
		report, err := a.service.Run(ctx, preview)
		if err != nil {
			return err
		}
		printReport(a.logger, report)

		if report.Summary.PlannedInserts+report.Summary.PlannedUpdates == 0 {
			a.logger.Info("Airtable is already up to date. No changes were made.")
			return nil
		}
		if !confirmWrites(report) {
			a.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}
	req.Confirmed = true

	report, err := a.service.Run(ctx, req)
	if report != nil {
		printReport(a.logger, report)
	}
	if err != nil {
		return err
	}
	return report.Err()
}

// printReport logs the run summary and a sample of failures and skipped rows.
func printReport(l *zap.Logger, report *featuresync.RunReport) {
	l.Info("Sync report", report.Fields()...)

	const maxShow = 5
	for i, f := range report.Failures {
		if i == maxShow {
			l.Info("Additional failed chunks not shown", zap.Int("count", len(report.Failures)-maxShow))
			break
		}
		l.Warn("Failed chunk",
			zap.String("kind", string(f.Kind)),
			zap.Int("chunk", f.Chunk),
			zap.Int("records", f.Size()),
			zap.String("error", f.Error),
		)
	}
	for i, s := range report.Skipped {
		if i == maxShow {
			l.Info("Additional skipped rows not shown", zap.Int("count", len(report.Skipped)-maxShow))
			break
		}
		l.Info("Skipped row", zap.Int("row", s.Row), zap.Any("identity", s.Identity))
	}
}

// confirmWrites prompts the user before writing the planned changes.
func confirmWrites(report *featuresync.RunReport) bool {
	fmt.Printf("\n⚠️  %d inserts and %d updates will be written to Airtable. Type 'yes' to confirm: ",
		report.Summary.PlannedInserts, report.Summary.PlannedUpdates)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
