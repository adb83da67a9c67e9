package cmd

import (
	"errors"
	"fmt"
	"os"

	"roster-sync/core/logger"
	"roster-sync/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitPartial = 2
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "roster-sync",
	Short: "Roster to Airtable synchronization",
	Long: `roster-sync reconciles the LiveIQ employee export against an Airtable table.
Records are matched on their payroll number: new employees are inserted and
changed ones are updated, in chunks of at most ten records per request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with ExitPartial when some chunks
// failed to apply, or ExitFailure on any other error.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		return
	}

	// Console format with ISO8601 timestamps to match a CLI user's expectations.
	cfg := &logger.Config{
		Level:  "debug",
		Format: "console",
	}

	code := ExitFailure
	msg := "command failed"
	if errors.Is(err, reconcile.ErrPartialApply) {
		code = ExitPartial
		msg = "command completed with failed chunks"
	}

	l, logErr := logger.New(cfg)
	if logErr == nil {
		l.Error(msg, zap.Error(err))
		_ = l.Sync()
	} else {
		fmt.Println(err)
	}
	os.Exit(code)
}
