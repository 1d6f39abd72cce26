package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/hackops/internal/classify"
	"github.com/alfredjeanlab/hackops/internal/client"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printHackathonTable(w io.Writer, hs []*model.Hackathon) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTEAM SIZE\tCREATED")
	for _, h := range hs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", h.ID, truncate(h.Name, 40), h.TeamSize, h.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func printHackathonView(w io.Writer, v *model.HackathonView) error {
	h := v.Hackathon
	fmt.Fprintf(w, "ID:          %s\n", h.ID)
	fmt.Fprintf(w, "Name:        %s\n", h.Name)
	fmt.Fprintf(w, "Team size:   %d\n", h.TeamSize)
	st := v.Stats
	fmt.Fprintf(w, "Participants: %d (%d pending, %d approved, %d rejected)\n",
		st.Total, st.Pending, st.Approved, st.Rejected)
	fmt.Fprintf(w, "Teams:       %d (%d approved unassigned)\n", st.Teams, st.Unassigned)
	return nil
}

func printParticipantTable(w io.Writer, ps []*model.Participant, total int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tNAME\tEMAIL\tROLE\tTEAM")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			ui.RenderStatus(p.Status),
			truncate(p.Profile.Name, 30),
			p.Profile.Email,
			p.PreferredRole,
			p.TeamID,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d participants (%d total)\n", len(ps), total)
	return err
}

func printParticipant(w io.Writer, p *model.Participant) error {
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "Hackathon:   %s\n", p.HackathonID)
	fmt.Fprintf(w, "Status:      %s\n", ui.RenderStatus(p.Status))
	fmt.Fprintf(w, "Name:        %s\n", p.Profile.Name)
	fmt.Fprintf(w, "Email:       %s\n", p.Profile.Email)
	if p.Profile.Phone != "" {
		fmt.Fprintf(w, "Phone:       %s\n", p.Profile.Phone)
	}
	if p.Profile.City != "" {
		fmt.Fprintf(w, "City:        %s\n", p.Profile.City)
	}
	if p.Profile.Nationality != "" {
		fmt.Fprintf(w, "Nationality: %s\n", p.Profile.Nationality)
	}
	fmt.Fprintf(w, "Role:        %s\n", p.Role())
	if p.HasTeam() {
		fmt.Fprintf(w, "Team:        %s\n", p.TeamID)
	}
	if len(p.Answers) > 0 {
		data, err := json.Marshal(p.Answers)
		if err != nil {
			return fmt.Errorf("marshaling answers: %w", err)
		}
		fmt.Fprintf(w, "Answers:     %s\n", data)
	}
	return nil
}

func printClassification(w io.Writer, c *client.Classification) error {
	if !c.Enabled {
		fmt.Fprintln(w, ui.RenderMuted("rules are disabled; no outcomes"))
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tNAME\tOUTCOME\tRULE")
	for _, a := range c.Participants {
		p := a.Participant
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, ui.RenderStatus(p.Status), truncate(p.Profile.Name, 30), ui.RenderOutcome(a.Outcome), a.RuleID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return printSummary(w, c.Summary)
}

func printSummary(w io.Writer, s classify.Summary) error {
	_, err := fmt.Fprintf(w, "\naccept %d  reject %d  highlight %d  unmatched %d\n",
		s.Accept, s.Reject, s.Highlight, s.None)
	return err
}

func printRuleSet(w io.Writer, rs *model.RuleSet) error {
	state := "enabled"
	if !rs.Enabled {
		state = "disabled"
	}
	fmt.Fprintf(w, "Rules (%s):\n", state)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tFIELD\tOPERATOR\tVALUE\tACTION")
	for _, r := range rs.Rules {
		value, err := json.Marshal(r.Value)
		if err != nil {
			return fmt.Errorf("marshaling rule %s: %w", r.ID, err)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", r.ID, r.FieldID, r.Operator, value, ui.RenderOutcome(r.Action))
	}
	return tw.Flush()
}

func printTeamTable(w io.Writer, teams []*model.Team) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tMEMBERS")
	for _, t := range teams {
		names := make([]string, len(t.Members))
		for i, m := range t.Members {
			names[i] = m.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.ID, t.Name, len(t.Members), truncate(strings.Join(names, ", "), 60))
	}
	return tw.Flush()
}

func printTeam(w io.Writer, t *model.Team) error {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Name:        %s\n", t.Name)
	fmt.Fprintf(w, "Hackathon:   %s\n", t.HackathonID)
	links := []struct{ label, url string }{
		{"Submission", t.Links.Submission},
		{"Demo", t.Links.Demo},
		{"Repository", t.Links.Repository},
		{"Presentation", t.Links.Presentation},
	}
	for _, l := range links {
		if l.url != "" {
			fmt.Fprintf(w, "%-13s%s\n", l.label+":", l.url)
		}
	}
	fmt.Fprintf(w, "Members (%d):\n", len(t.Members))
	for _, m := range t.Members {
		role := m.Role
		if role == "" {
			role = model.DefaultRole
		}
		fmt.Fprintf(w, "  %s  %s <%s>  %s\n", m.ParticipantID, m.Name, m.Email, ui.RenderMuted(role))
	}
	return nil
}

func printPlan(w io.Writer, plan *model.TeamPlan) error {
	if plan.IsEmpty() {
		_, err := fmt.Fprintln(w, "no approved, unassigned participants to place")
		return err
	}
	for _, t := range plan.Teams {
		fmt.Fprintf(w, "%s (%d)\n", ui.RenderAccent(t.Name), len(t.Members))
		for _, p := range t.Members {
			fmt.Fprintf(w, "  %s  %s  %s\n", p.ID, p.Profile.Name, ui.RenderMuted(p.Role()))
		}
	}
	_, err := fmt.Fprintf(w, "\n%d teams, %d participants\n", len(plan.Teams), plan.Size())
	return err
}

func printTransferQueue(w io.Writer, q *client.TransferQueue) error {
	fmt.Fprintf(w, "State: %s\n", q.State)
	if len(q.Transfers) == 0 {
		_, err := fmt.Fprintln(w, "no pending transfers")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTICIPANT\tNAME\tFROM\tTO")
	for _, t := range q.Transfers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ParticipantID, t.Name, t.FromTeamName, t.ToTeamName)
	}
	return tw.Flush()
}

func printSessionTable(w io.Writer, sessions []client.Session) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATOR\tHACKATHON\tSTATE\tPENDING\tIDLE")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0fs\n", s.Operator, s.HackathonID, s.State, s.Pending, s.IdleSecs)
	}
	return tw.Flush()
}
