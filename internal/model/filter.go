package model

// ParticipantFilter holds criteria for querying participants.
type ParticipantFilter struct {
	HackathonID string   `json:"hackathon_id"`
	Status      []Status `json:"status,omitempty"`
	TeamID      string   `json:"team_id,omitempty"`
	Unassigned  bool     `json:"unassigned,omitempty"` // only participants without a team
	Search      string   `json:"search,omitempty"`     // name/email substring
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
}
