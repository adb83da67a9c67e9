package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	featuresync "roster-sync/feature/sync"

	"github.com/spf13/cobra"
)

var runsLimit int

// runsCmd lists journaled runs.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs from the journal",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	RootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	if err := a.openJournal(); err != nil {
		return err
	}
	if a.journal == nil {
		return featuresync.ErrJournalDisabled
	}

	runs, err := a.journal.ListRuns(context.Background(), runsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTRIGGER\tSTATUS\tSTARTED\tINSERTED\tUPDATED\tFAILED CHUNKS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Trigger, r.Status, r.StartedAt.Local().Format(time.DateTime),
			r.Inserted, r.Updated, r.FailedChunks)
	}
	return w.Flush()
}
