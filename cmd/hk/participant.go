package main

import (
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/client"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/ui"
	"github.com/spf13/cobra"
)

var participantCmd = &cobra.Command{
	Use:     "participant",
	Aliases: []string{"participants", "p"},
	Short:   "Register, list and review participants",
	GroupID: "hackathons",
}

var participantRegisterCmd = &cobra.Command{
	Use:   "register <hackathon-id>",
	Short: "Register a participant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := &client.RegisterRequest{}
		req.Profile.Name, _ = f.GetString("name")
		req.Profile.Email, _ = f.GetString("email")
		req.Profile.Phone, _ = f.GetString("phone")
		req.Profile.City, _ = f.GetString("city")
		req.Profile.Nationality, _ = f.GetString("nationality")
		req.PreferredRole, _ = f.GetString("role")

		if path, _ := f.GetString("answers"); path != "" {
			if err := readJSONFile(cmd, path, &req.Answers); err != nil {
				return err
			}
		}

		p, err := hkClient.RegisterParticipant(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", ui.RenderAccent(p.ID), p.Profile.Email)
		return nil
	},
}

var participantListCmd = &cobra.Command{
	Use:   "list <hackathon-id>",
	Short: "List participants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		req := &client.ListParticipantsRequest{}
		req.Status, _ = f.GetStringSlice("status")
		req.TeamID, _ = f.GetString("team")
		req.Search, _ = f.GetString("search")
		req.Unassigned, _ = f.GetBool("unassigned")
		req.Limit, _ = f.GetInt("limit")
		req.Offset, _ = f.GetInt("offset")

		resp, err := hkClient.ListParticipants(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		return printParticipantTable(cmd.OutOrStdout(), resp.Participants, resp.Total)
	},
}

var participantShowCmd = &cobra.Command{
	Use:   "show <participant-id>",
	Short: "Show a participant and their answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := hkClient.GetParticipant(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		return printParticipant(cmd.OutOrStdout(), p)
	},
}

// statusCommand builds a command that moves participants to a fixed status.
func statusCommand(use, short string, status model.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <participant-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatuses(cmd, args, status)
		},
	}
}

var participantStatusCmd = &cobra.Command{
	Use:   "status <participant-id> <pending|approved|rejected>",
	Short: "Set a participant's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := model.Status(args[1])
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q", args[1])
		}
		return setStatuses(cmd, args[:1], status)
	},
}

func setStatuses(cmd *cobra.Command, ids []string, status model.Status) error {
	var updated []*model.Participant
	for _, id := range ids {
		p, err := hkClient.SetParticipantStatus(cmd.Context(), id, status)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		updated = append(updated, p)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), updated)
	}
	for _, p := range updated {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", p.ID, ui.RenderStatus(p.Status))
	}
	return nil
}

func init() {
	participantRegisterCmd.Flags().String("name", "", "full name")
	participantRegisterCmd.Flags().String("email", "", "email address")
	participantRegisterCmd.Flags().String("phone", "", "phone number")
	participantRegisterCmd.Flags().String("city", "", "city")
	participantRegisterCmd.Flags().String("nationality", "", "nationality")
	participantRegisterCmd.Flags().String("role", "", "preferred team role")
	participantRegisterCmd.Flags().String("answers", "", "JSON file of form answers keyed by field ID (- for stdin)")
	_ = participantRegisterCmd.MarkFlagRequired("name")
	_ = participantRegisterCmd.MarkFlagRequired("email")

	participantListCmd.Flags().StringSlice("status", nil, "filter by status (repeatable)")
	participantListCmd.Flags().String("team", "", "filter by team ID")
	participantListCmd.Flags().String("search", "", "name or email substring")
	participantListCmd.Flags().Bool("unassigned", false, "only participants without a team")
	participantListCmd.Flags().Int("limit", 0, "maximum number of results")
	participantListCmd.Flags().Int("offset", 0, "results to skip")

	participantCmd.AddCommand(participantRegisterCmd)
	participantCmd.AddCommand(participantListCmd)
	participantCmd.AddCommand(participantShowCmd)
	participantCmd.AddCommand(statusCommand("approve", "Approve participants", model.StatusApproved))
	participantCmd.AddCommand(statusCommand("reject", "Reject participants", model.StatusRejected))
	participantCmd.AddCommand(participantStatusCmd)
}
