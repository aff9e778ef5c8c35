package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hardcoversync/internal/ingest"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create and update notes for every book in your library",
	Long: `Fetch the library (or, after the first pass, only books changed since the
last successful sync) and reconcile each book with its note.

Books that fail are listed and retried on the next sync; the checkpoint only
moves forward after a pass without failures.

Example usage:
  hcsync sync                    # incremental sync
  hcsync sync --full             # re-examine the whole library
  hcsync sync --debug-limit 10   # try the settings on a handful of books`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debugLimit, _ := cmd.Flags().GetInt("debug-limit")
		full, _ := cmd.Flags().GetBool("full")
		if debugLimit < 0 {
			return fmt.Errorf("--debug-limit must not be negative")
		}

		a, err := newApp(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer a.close()

		run, err := a.svc.Run(cmd.Context(), ingest.Options{
			Trigger:    ingest.TriggerCLI,
			DebugLimit: debugLimit,
			Full:       full,
		})
		if err != nil {
			return fmt.Errorf("%s (%w)", ingest.UserMessage(err), err)
		}

		var failures []ingest.Failure
		if run.Failed > 0 {
			failures, _ = a.repo.ListFailures(cmd.Context(), run.ID)
		}
		printSummary(cmd.OutOrStdout(), run, failures)
		return nil
	},
}

func printSummary(w io.Writer, run *ingest.Run, failures []ingest.Failure) {
	prefix := ""
	if run.DebugLimit > 0 {
		prefix = "DEBUG: "
	}
	if run.BooksTotal == 0 {
		fmt.Fprintf(w, "%sNo books found in your Hardcover library.\n", prefix)
		return
	}

	fmt.Fprintf(w, "%sSync complete: %d created, %d updated", prefix, run.Created, run.Updated+run.Moved+run.Merged)
	if run.Unchanged > 0 {
		fmt.Fprintf(w, ", %d unchanged", run.Unchanged)
	}
	if run.Failed > 0 {
		fmt.Fprintf(w, " (%d books failed to process)", run.Failed)
	}
	fmt.Fprintln(w)

	if run.Merged > 0 {
		fmt.Fprintf(w, "  %d notes merged into an existing note at the same path\n", run.Merged)
	}
	if run.Reorganized > 0 {
		fmt.Fprintf(w, "  %d notes moved to their group folder\n", run.Reorganized)
	}
	for _, f := range failures {
		fmt.Fprintf(w, "  failed: %s (book %d): %s\n", f.Title, f.BookID, f.Error)
	}
}

func init() {
	syncCmd.Flags().Int("debug-limit", 0, "Process at most this many books; the checkpoint is not advanced when books are left out")
	syncCmd.Flags().Bool("full", false, "Ignore the checkpoint and fetch the whole library")

	rootCmd.AddCommand(syncCmd)
}
