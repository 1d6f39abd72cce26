package main

import (
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/client"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/ui"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:     "plan <hackathon-id>",
	Short:   "Preview role-balanced teams for approved, unassigned participants",
	GroupID: "teams",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("size")
		apply, _ := cmd.Flags().GetBool("apply")

		if apply {
			teams, err := hkClient.ApplyPlan(cmd.Context(), args[0], size)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), teams)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d teams\n", len(teams))
			return printTeamTable(cmd.OutOrStdout(), teams)
		}

		plan, err := hkClient.PlanTeams(cmd.Context(), args[0], size)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), plan)
		}
		return printPlan(cmd.OutOrStdout(), plan)
	},
}

var teamCmd = &cobra.Command{
	Use:     "team",
	Aliases: []string{"teams", "t"},
	Short:   "Manage teams",
	GroupID: "teams",
}

var teamCreateCmd = &cobra.Command{
	Use:   "create <hackathon-id> <name>",
	Short: "Create an empty team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.TeamRequest{Name: &args[1]}
		if links, ok := linksFromFlags(cmd); ok {
			req.Links = &links
		}
		t, err := hkClient.CreateTeam(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created team %s (%s)\n", ui.RenderAccent(t.ID), t.Name)
		return nil
	},
}

var teamListCmd = &cobra.Command{
	Use:   "list <hackathon-id>",
	Short: "List teams and their members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		teams, err := hkClient.ListTeams(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), teams)
		}
		return printTeamTable(cmd.OutOrStdout(), teams)
	},
}

var teamShowCmd = &cobra.Command{
	Use:   "show <team-id>",
	Short: "Show a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := hkClient.GetTeam(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		return printTeam(cmd.OutOrStdout(), t)
	},
}

var teamUpdateCmd = &cobra.Command{
	Use:   "update <team-id>",
	Short: "Rename a team or set its project links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.TeamRequest{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			req.Name = &name
		}
		if cmd.Flags().Changed("submission") || cmd.Flags().Changed("demo") ||
			cmd.Flags().Changed("repository") || cmd.Flags().Changed("presentation") {
			current, err := hkClient.GetTeam(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			links := mergeLinks(current.Links, cmd)
			req.Links = &links
		}
		if req.Name == nil && req.Links == nil {
			return fmt.Errorf("nothing to update; pass --name or a link flag")
		}
		t, err := hkClient.UpdateTeam(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		return printTeam(cmd.OutOrStdout(), t)
	},
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete <team-id>",
	Short: "Delete a team; its members become unassigned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hkClient.DeleteTeam(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted team %s\n", args[0])
		return nil
	},
}

var teamRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member <team-id> <participant-id>",
	Short: "Remove a participant from a team",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hkClient.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], args[0])
		return nil
	},
}

func addLinkFlags(cmd *cobra.Command) {
	cmd.Flags().String("submission", "", "submission URL")
	cmd.Flags().String("demo", "", "demo URL")
	cmd.Flags().String("repository", "", "repository URL")
	cmd.Flags().String("presentation", "", "presentation URL")
}

// linksFromFlags returns the links given on the command line and whether
// any were set.
func linksFromFlags(cmd *cobra.Command) (model.TeamLinks, bool) {
	links := mergeLinks(model.TeamLinks{}, cmd)
	return links, links != (model.TeamLinks{})
}

// mergeLinks overlays the link flags that were explicitly set onto base.
func mergeLinks(base model.TeamLinks, cmd *cobra.Command) model.TeamLinks {
	for flag, dst := range map[string]*string{
		"submission":   &base.Submission,
		"demo":         &base.Demo,
		"repository":   &base.Repository,
		"presentation": &base.Presentation,
	} {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	return base
}

func init() {
	planCmd.Flags().Int("size", 0, "team size (default: the hackathon's team size)")
	planCmd.Flags().Bool("apply", false, "create the planned teams")

	addLinkFlags(teamCreateCmd)
	addLinkFlags(teamUpdateCmd)
	teamUpdateCmd.Flags().String("name", "", "new team name")

	teamCmd.AddCommand(teamCreateCmd)
	teamCmd.AddCommand(teamListCmd)
	teamCmd.AddCommand(teamShowCmd)
	teamCmd.AddCommand(teamUpdateCmd)
	teamCmd.AddCommand(teamDeleteCmd)
	teamCmd.AddCommand(teamRemoveMemberCmd)
}
