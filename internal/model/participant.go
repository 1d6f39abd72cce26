package model

import "time"

// Status is the approval state of a participant.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// DefaultRole is the role group used for participants without a declared role.
const DefaultRole = "Unassigned Role"

// Profile holds the structured registration fields every hackathon collects.
type Profile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	City        string `json:"city,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// Participant is a registrant of a hackathon.
type Participant struct {
	ID            string            `json:"id"`
	HackathonID   string            `json:"hackathon_id"`
	Status        Status            `json:"status"`
	TeamID        string            `json:"team_id,omitempty"`
	PreferredRole string            `json:"preferred_role,omitempty"`
	Profile       Profile           `json:"profile"`
	Answers       map[string]Answer `json:"answers,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// HasTeam reports whether the participant is currently on a team.
func (p *Participant) HasTeam() bool {
	return p.TeamID != ""
}

// Role returns the declared role, or DefaultRole when none was given.
func (p *Participant) Role() string {
	if p.PreferredRole == "" {
		return DefaultRole
	}
	return p.PreferredRole
}
