package main

import (
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/ui"
	"github.com/spf13/cobra"
)

var hackathonCmd = &cobra.Command{
	Use:     "hackathon",
	Aliases: []string{"hackathons", "h"},
	Short:   "Create and inspect hackathons",
	GroupID: "hackathons",
}

var hackathonCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a hackathon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("team-size")
		h, err := hkClient.CreateHackathon(cmd.Context(), args[0], size)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), h)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created hackathon %s (%s)\n", ui.RenderAccent(h.ID), h.Name)
		return nil
	},
}

var hackathonListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hackathons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hs, err := hkClient.ListHackathons(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), hs)
		}
		return printHackathonTable(cmd.OutOrStdout(), hs)
	},
}

var hackathonShowCmd = &cobra.Command{
	Use:   "show <hackathon-id>",
	Short: "Show a hackathon with participant and team counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := hkClient.GetHackathonView(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), v)
		}
		return printHackathonView(cmd.OutOrStdout(), v)
	},
}

var hackathonEventsCmd = &cobra.Command{
	Use:   "events <hackathon-id>",
	Short: "Show the audit log of a hackathon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		evts, err := hkClient.ListEvents(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), evts)
		}
		w := cmd.OutOrStdout()
		for _, e := range evts {
			fmt.Fprintf(w, "%s  %s  %s %s\n",
				ui.RenderMuted(e.CreatedAt.Format("2006-01-02 15:04:05")),
				ui.RenderAccent(e.Topic),
				e.SubjectID,
				ui.RenderMuted(e.Actor))
		}
		return nil
	},
}

func init() {
	hackathonCreateCmd.Flags().Int("team-size", 0, "target team size (default server-side)")
	hackathonEventsCmd.Flags().Int("limit", 50, "maximum number of events")

	hackathonCmd.AddCommand(hackathonCreateCmd)
	hackathonCmd.AddCommand(hackathonListCmd)
	hackathonCmd.AddCommand(hackathonShowCmd)
	hackathonCmd.AddCommand(hackathonEventsCmd)
}
