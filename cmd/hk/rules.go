package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/spf13/cobra"
)

// readJSONFile decodes the JSON document at path into v. A path of "-"
// reads the command's stdin.
func readJSONFile(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

var formCmd = &cobra.Command{
	Use:     "form",
	Short:   "Manage a hackathon's registration form",
	GroupID: "hackathons",
}

var formGetCmd = &cobra.Command{
	Use:   "get <hackathon-id>",
	Short: "Print the form fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := hkClient.GetFormFields(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), fields)
	},
}

var formSetCmd = &cobra.Command{
	Use:   "set <hackathon-id> <file>",
	Short: "Replace the form fields from a JSON array (- for stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fields []model.FormField
		if err := readJSONFile(cmd, args[1], &fields); err != nil {
			return err
		}
		saved, err := hkClient.SetFormFields(cmd.Context(), args[0], fields)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), saved)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d form fields\n", len(saved))
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:     "rules",
	Short:   "Manage a hackathon's classification rules",
	GroupID: "review",
}

var rulesGetCmd = &cobra.Command{
	Use:   "get <hackathon-id>",
	Short: "Show the rule set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := hkClient.GetRuleSet(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rs)
		}
		return printRuleSet(cmd.OutOrStdout(), rs)
	},
}

var rulesSetCmd = &cobra.Command{
	Use:   "set <hackathon-id> <file>",
	Short: "Replace the rule set from a JSON document (- for stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rs model.RuleSet
		if err := readJSONFile(cmd, args[1], &rs); err != nil {
			return err
		}
		return saveRuleSet(cmd, args[0], &rs)
	},
}

// toggleCommand builds a command that flips the rule set's enabled flag
// without touching its rules.
func toggleCommand(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <hackathon-id>",
		Short: fmt.Sprintf("Set rules enabled=%t", enabled),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := hkClient.GetRuleSet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rs.Enabled = enabled
			return saveRuleSet(cmd, args[0], rs)
		},
	}
}

func saveRuleSet(cmd *cobra.Command, hackathonID string, rs *model.RuleSet) error {
	saved, err := hkClient.SetRuleSet(cmd.Context(), hackathonID, rs)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), saved)
	}
	return printRuleSet(cmd.OutOrStdout(), saved)
}

var classifyCmd = &cobra.Command{
	Use:     "classify <hackathon-id>",
	Short:   "Preview rule outcomes, or apply one outcome as a bulk status change",
	GroupID: "review",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, _ := cmd.Flags().GetString("apply")
		if action == "" {
			c, err := hkClient.Classify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), c)
			}
			return printClassification(cmd.OutOrStdout(), c)
		}

		to, _ := cmd.Flags().GetString("to")
		res, err := hkClient.ApplyClassification(cmd.Context(), args[0], model.Action(action), model.Status(to))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		w := cmd.OutOrStdout()
		if res.NothingToDo {
			fmt.Fprintf(w, "no pending participants classified %q\n", action)
			return nil
		}
		fmt.Fprintf(w, "%d participants set to %s (%d failed)\n",
			res.Updated.SuccessCount, res.Status, res.Updated.FailureCount)
		return printSummary(w, res.Summary)
	},
}

func init() {
	classifyCmd.Flags().String("apply", "", "outcome to act on: accept, reject or highlight")
	classifyCmd.Flags().String("to", string(model.StatusApproved), "target status with --apply: approved or rejected")

	formCmd.AddCommand(formGetCmd)
	formCmd.AddCommand(formSetCmd)

	rulesCmd.AddCommand(rulesGetCmd)
	rulesCmd.AddCommand(rulesSetCmd)
	rulesCmd.AddCommand(toggleCommand("enable", true))
	rulesCmd.AddCommand(toggleCommand("disable", false))
}
