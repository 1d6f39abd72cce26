// Package export writes roster snapshots of hackathons to external
// destinations: JSONL objects in S3 and tabs of a Google spreadsheet.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// Source is the read side of the store that a snapshot is taken from.
type Source interface {
	ListHackathons(ctx context.Context) ([]*model.Hackathon, error)
	GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error)
}

// Snapshot is a point-in-time copy of one or more hackathon rosters.
// Participants are ordered by ID and teams by name.
type Snapshot struct {
	Taken time.Time
	Views []*model.HackathonView
}

// Collect reads the given hackathons from src, or every hackathon when no
// IDs are given.
func Collect(ctx context.Context, src Source, hackathonIDs ...string) (*Snapshot, error) {
	if len(hackathonIDs) == 0 {
		all, err := src.ListHackathons(ctx)
		if err != nil {
			return nil, fmt.Errorf("list hackathons: %w", err)
		}
		for _, h := range all {
			hackathonIDs = append(hackathonIDs, h.ID)
		}
	}

	snap := &Snapshot{Taken: time.Now().UTC()}
	for _, id := range hackathonIDs {
		view, err := src.GetHackathonView(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch hackathon %s: %w", id, err)
		}
		sort.Slice(view.Participants, func(i, j int) bool {
			return view.Participants[i].ID < view.Participants[j].ID
		})
		sort.SliceStable(view.Teams, func(i, j int) bool {
			return view.Teams[i].Name < view.Teams[j].Name
		})
		snap.Views = append(snap.Views, view)
	}
	return snap, nil
}

// header is the first JSONL record written by WriteJSONL.
type header struct {
	Version          string    `json:"version"`
	Type             string    `json:"type"`
	Timestamp        time.Time `json:"timestamp"`
	HackathonCount   int       `json:"hackathon_count"`
	ParticipantCount int       `json:"participant_count"`
	TeamCount        int       `json:"team_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WriteJSONL writes the snapshot as JSONL: a header, then for each
// hackathon its record followed by its participants and teams.
func (s *Snapshot) WriteJSONL(w io.Writer) error {
	h := header{Version: "1", Type: "header", Timestamp: s.Taken, HackathonCount: len(s.Views)}
	for _, v := range s.Views {
		h.ParticipantCount += len(v.Participants)
		h.TeamCount += len(v.Teams)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, v := range s.Views {
		if err := enc.Encode(record{Type: "hackathon", Data: v.Hackathon}); err != nil {
			return fmt.Errorf("encode hackathon %s: %w", v.Hackathon.ID, err)
		}
		for _, p := range v.Participants {
			if err := enc.Encode(record{Type: "participant", Data: p}); err != nil {
				return fmt.Errorf("encode participant %s: %w", p.ID, err)
			}
		}
		for _, t := range v.Teams {
			if err := enc.Encode(record{Type: "team", Data: t}); err != nil {
				return fmt.Errorf("encode team %s: %w", t.ID, err)
			}
		}
	}
	return nil
}
