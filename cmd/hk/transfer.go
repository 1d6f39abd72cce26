package main

import (
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/ui"
	"github.com/spf13/cobra"
)

var transferCmd = &cobra.Command{
	Use:     "transfer",
	Short:   "Move participants between teams and notify them",
	GroupID: "teams",
	Long: `Transfers are applied to the rosters as soon as they are staged. The
notification emails are queued per operator until "hk transfer confirm"
sends them, "hk transfer cancel" drops them, or "hk transfer revert" undoes
the moves.`,
}

var transferStageCmd = &cobra.Command{
	Use:   "stage <hackathon-id> <participant-id> <to-team-id>",
	Short: "Move a participant and queue their notification",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := hkClient.StageTransfer(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %s: %s -> %s (notification queued)\n",
			t.Name, ui.RenderMuted(t.FromTeamName), ui.RenderAccent(t.ToTeamName))
		return nil
	},
}

var transferListCmd = &cobra.Command{
	Use:   "list <hackathon-id>",
	Short: "Show your queued transfers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := hkClient.ListTransfers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), q)
		}
		return printTransferQueue(cmd.OutOrStdout(), q)
	},
}

var transferConfirmCmd = &cobra.Command{
	Use:   "confirm <hackathon-id>",
	Short: "Send the queued notifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := hkClient.ConfirmTransfers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

var transferCancelCmd = &cobra.Command{
	Use:   "cancel <hackathon-id>",
	Short: "Drop the queued notifications; the moves stay applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		discarded, err := hkClient.CancelTransfers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), discarded)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "discarded %d notifications\n", len(discarded))
		return nil
	},
}

var transferRevertCmd = &cobra.Command{
	Use:   "revert <hackathon-id>",
	Short: "Undo the queued moves, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := hkClient.RevertTransfers(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("reverted %d before failing: %w", n, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]int{"reverted": n})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reverted %d transfers\n", n)
		return nil
	},
}

var transferSessionsCmd = &cobra.Command{
	Use:   "sessions [<hackathon-id>]",
	Short: "List operator transfer sessions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hid string
		if len(args) == 1 {
			hid = args[0]
		}
		sessions, err := hkClient.ListSessions(cmd.Context(), hid)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sessions)
		}
		return printSessionTable(cmd.OutOrStdout(), sessions)
	},
}

func init() {
	transferCmd.AddCommand(transferStageCmd)
	transferCmd.AddCommand(transferListCmd)
	transferCmd.AddCommand(transferConfirmCmd)
	transferCmd.AddCommand(transferCancelCmd)
	transferCmd.AddCommand(transferRevertCmd)
	transferCmd.AddCommand(transferSessionsCmd)
}
