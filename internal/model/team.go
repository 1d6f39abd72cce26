package model

import "time"

// TeamMember is a participant's entry on a team roster.
type TeamMember struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role,omitempty"`
}

// TeamLinks holds the project links a team submits.
type TeamLinks struct {
	Submission   string `json:"submission,omitempty"`
	Demo         string `json:"demo,omitempty"`
	Repository   string `json:"repository,omitempty"`
	Presentation string `json:"presentation,omitempty"`
}

// Team is a persisted team with an ordered member list.
type Team struct {
	ID          string       `json:"id"`
	HackathonID string       `json:"hackathon_id"`
	Name        string       `json:"name"`
	Members     []TeamMember `json:"members"`
	Links       TeamLinks    `json:"links"`
	CreatedAt   time.Time    `json:"created_at"`
}

// HasMember reports whether the participant is on the team's roster.
func (t *Team) HasMember(participantID string) bool {
	for _, m := range t.Members {
		if m.ParticipantID == participantID {
			return true
		}
	}
	return false
}

// MemberFor builds the roster entry for a participant.
func MemberFor(p *Participant) TeamMember {
	return TeamMember{
		ParticipantID: p.ID,
		Name:          p.Profile.Name,
		Email:         p.Profile.Email,
		Role:          p.PreferredRole,
	}
}

// PlannedTeam is one proposed team of a TeamPlan.
type PlannedTeam struct {
	Name    string         `json:"name"`
	Members []*Participant `json:"members"`
}

// TeamPlan is a proposed partition of participants into teams. It is a
// preview only; nothing is persisted until the plan is materialised.
type TeamPlan struct {
	Teams []PlannedTeam `json:"teams"`
}

// IsEmpty reports whether the plan proposes no teams.
func (p *TeamPlan) IsEmpty() bool {
	return p == nil || len(p.Teams) == 0
}

// Size returns the number of participants placed by the plan.
func (p *TeamPlan) Size() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, t := range p.Teams {
		n += len(t.Members)
	}
	return n
}

// PendingTransfer describes a team move that has already been applied and
// whose notification is still queued.
type PendingTransfer struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	FromTeamID    string    `json:"from_team_id"`
	FromTeamName  string    `json:"from_team_name"`
	ToTeamID      string    `json:"to_team_id"`
	ToTeamName    string    `json:"to_team_name"`
	CreatedAt     time.Time `json:"created_at"`
}
