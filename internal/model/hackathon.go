package model

import "time"

// DefaultTeamSize is used when a hackathon does not configure one.
const DefaultTeamSize = 4

// Hackathon is an event that participants register for.
type Hackathon struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeamSize  int       `json:"team_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarises a hackathon's participants and teams.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Teams      int `json:"teams"`
	Unassigned int `json:"unassigned"` // approved participants without a team
}

// HackathonView is the read model that drives classification and planning.
type HackathonView struct {
	Hackathon    *Hackathon     `json:"hackathon"`
	Participants []*Participant `json:"participants"`
	Teams        []*Team        `json:"teams"`
	Stats        Stats          `json:"stats"`
}

// ComputeStats derives the summary counts for a set of participants and teams.
func ComputeStats(participants []*Participant, teams []*Team) Stats {
	st := Stats{Total: len(participants), Teams: len(teams)}
	for _, p := range participants {
		switch p.Status {
		case StatusPending:
			st.Pending++
		case StatusApproved:
			st.Approved++
			if !p.HasTeam() {
				st.Unassigned++
			}
		case StatusRejected:
			st.Rejected++
		}
	}
	return st
}
