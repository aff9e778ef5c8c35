package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"hardcoversync/internal/ingest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the checkpoint and recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer a.close()

		checkpoint, err := a.svc.Checkpoint(cmd.Context())
		if err != nil {
			return err
		}
		identity, err := a.repo.LoadIdentity(cmd.Context())
		if err != nil {
			return err
		}
		runs, err := a.repo.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), checkpoint, identity, runs)
		return nil
	},
}

func printStatus(w io.Writer, checkpoint string, identity *ingest.Identity, runs []ingest.Run) {
	if checkpoint == "" {
		checkpoint = "none (next sync is a full sync)"
	}
	fmt.Fprintf(w, "Checkpoint: %s\n", checkpoint)
	if identity != nil {
		fmt.Fprintf(w, "User:       %d (%d books)\n", identity.UserID, identity.BooksCount)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No sync runs recorded.")
		return
	}

	fmt.Fprintln(w, "Recent runs:")
	for _, r := range runs {
		took := "-"
		if r.FinishedAt != nil {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "  %s  %-9s  %-8s  %4d created  %4d updated  %4d failed  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status, r.Trigger,
			r.Created, r.Updated+r.Moved+r.Merged, r.Failed, took)
		if r.Error != "" {
			fmt.Fprintf(w, "      %s\n", r.Error)
		}
	}
}

func init() {
	statusCmd.Flags().IntP("limit", "n", 5, "Number of runs to show")

	rootCmd.AddCommand(statusCmd)
}
