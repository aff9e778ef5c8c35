package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hardcoversync/internal/notes"
)

var reorganizeCmd = &cobra.Command{
	Use:   "reorganize",
	Short: "Move existing notes into the folders the grouping settings give them",
	Long: `Walk every book note under the target folder and move it to the folder the
current grouping settings compute from its authors and series. Filenames are
kept. With grouping disabled, notes are moved back to the target folder.

No request is sent to Hardcover.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := notes.NewReorganizer(a.settings, a.store).Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.Skipped > 0 {
			fmt.Fprintf(out, "%d notes without authors keep their folder until the next sync.\n", res.Skipped)
		}
		if res.Moved == 0 && res.Failed == 0 {
			fmt.Fprintln(out, "All notes are already in the right folder.")
			return nil
		}
		fmt.Fprintf(out, "Moved %d notes", res.Moved)
		if res.Failed > 0 {
			fmt.Fprintf(out, " (%d could not be moved)", res.Failed)
		}
		fmt.Fprintln(out)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "  failed: %s: %v\n", f.Path, f.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reorganizeCmd)
}
