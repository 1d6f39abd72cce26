package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alfredjeanlab/hackops/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export [<hackathon-id>...]",
	Short:   "Write a JSONL roster snapshot",
	GroupID: "system",
	Long: `Exports the participants and teams of the given hackathons, or of every
hackathon, as JSON lines. The server's scheduled export writes the same
format to S3.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		snap, err := export.Collect(cmd.Context(), hkClient, args...)
		if err != nil {
			return err
		}

		toFile := out != "" && out != "-"
		var w io.Writer = cmd.OutOrStdout()
		if toFile {
			f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := snap.WriteJSONL(w); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if toFile {
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d hackathons to %s\n", len(snap.Views), out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}
