package export

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/alfredjeanlab/hackops/internal/model"
)

const (
	SheetParticipants = "Participants"
	SheetTeams        = "Teams"
)

var (
	participantHeader = []any{"Hackathon", "ID", "Name", "Email", "Phone", "City", "Nationality", "Role", "Status", "Team"}
	teamHeader        = []any{"Hackathon", "ID", "Name", "Size", "Members", "Submission", "Demo", "Repository", "Presentation"}
)

// SheetsDestination replaces the Participants and Teams tabs of a
// spreadsheet with the snapshot's rows.
type SheetsDestination struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

// NewSheetsDestination creates a Sheets destination. Pass
// option.WithCredentialsFile for a service account.
func NewSheetsDestination(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsDestination, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheetsv4.SpreadsheetsScope)}, opts...)
	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsDestination{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (d *SheetsDestination) Name() string { return "sheets:" + d.spreadsheetID }

// Write clears each tab and writes the header row plus one row per record.
func (d *SheetsDestination) Write(ctx context.Context, snap *Snapshot) error {
	pRows, tRows := Rows(snap)
	if err := d.replace(ctx, SheetParticipants, pRows); err != nil {
		return err
	}
	return d.replace(ctx, SheetTeams, tRows)
}

func (d *SheetsDestination) replace(ctx context.Context, sheet string, rows [][]any) error {
	_, err := d.srv.Spreadsheets.Values.Clear(d.spreadsheetID, sheet+"!A:Z", &sheetsv4.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	vr := &sheetsv4.ValueRange{Values: rows}
	_, err = d.srv.Spreadsheets.Values.Update(d.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", sheet, err)
	}
	return nil
}

// Rows flattens a snapshot into participant and team rows, each with a
// leading header row.
func Rows(snap *Snapshot) (participants, teams [][]any) {
	participants = [][]any{participantHeader}
	teams = [][]any{teamHeader}
	for _, v := range snap.Views {
		teamNames := make(map[string]string, len(v.Teams))
		for _, t := range v.Teams {
			teamNames[t.ID] = t.Name
		}
		for _, p := range v.Participants {
			participants = append(participants, participantRow(v.Hackathon, p, teamNames[p.TeamID]))
		}
		for _, t := range v.Teams {
			teams = append(teams, teamRow(v.Hackathon, t))
		}
	}
	return participants, teams
}

func participantRow(h *model.Hackathon, p *model.Participant, team string) []any {
	return []any{
		h.Name, p.ID, p.Profile.Name, p.Profile.Email, p.Profile.Phone,
		p.Profile.City, p.Profile.Nationality, p.Role(), string(p.Status), team,
	}
}

func teamRow(h *model.Hackathon, t *model.Team) []any {
	names := make([]string, len(t.Members))
	for i, m := range t.Members {
		names[i] = m.Name
	}
	return []any{
		h.Name, t.ID, t.Name, len(t.Members), strings.Join(names, ", "),
		t.Links.Submission, t.Links.Demo, t.Links.Repository, t.Links.Presentation,
	}
}
