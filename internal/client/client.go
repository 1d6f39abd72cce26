// Package client provides a transport-agnostic interface for the hackops
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"time"

	"github.com/alfredjeanlab/hackops/internal/bulk"
	"github.com/alfredjeanlab/hackops/internal/classify"
	"github.com/alfredjeanlab/hackops/internal/model"
)

// HackopsClient is the interface the hk CLI commands use to talk to the
// hackops server.
type HackopsClient interface {
	// Hackathons
	CreateHackathon(ctx context.Context, name string, teamSize int) (*model.Hackathon, error)
	ListHackathons(ctx context.Context) ([]*model.Hackathon, error)
	GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error)
	ListEvents(ctx context.Context, hackathonID string, limit int) ([]*model.Event, error)

	// Participants
	RegisterParticipant(ctx context.Context, hackathonID string, req *RegisterRequest) (*model.Participant, error)
	ListParticipants(ctx context.Context, hackathonID string, req *ListParticipantsRequest) (*ListParticipantsResponse, error)
	GetParticipant(ctx context.Context, id string) (*model.Participant, error)
	SetParticipantStatus(ctx context.Context, id string, status model.Status) (*model.Participant, error)

	// Registration form and filter rules
	GetFormFields(ctx context.Context, hackathonID string) ([]model.FormField, error)
	SetFormFields(ctx context.Context, hackathonID string, fields []model.FormField) ([]model.FormField, error)
	GetRuleSet(ctx context.Context, hackathonID string) (*model.RuleSet, error)
	SetRuleSet(ctx context.Context, hackathonID string, rs *model.RuleSet) (*model.RuleSet, error)
	Classify(ctx context.Context, hackathonID string) (*Classification, error)
	ApplyClassification(ctx context.Context, hackathonID string, action model.Action, status model.Status) (*BulkResult, error)

	// Teams
	PlanTeams(ctx context.Context, hackathonID string, teamSize int) (*model.TeamPlan, error)
	ApplyPlan(ctx context.Context, hackathonID string, teamSize int) ([]*model.Team, error)
	ListTeams(ctx context.Context, hackathonID string) ([]*model.Team, error)
	CreateTeam(ctx context.Context, hackathonID string, req *TeamRequest) (*model.Team, error)
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	UpdateTeam(ctx context.Context, id string, req *TeamRequest) (*model.Team, error)
	DeleteTeam(ctx context.Context, id string) error
	RemoveMember(ctx context.Context, teamID, participantID string) error

	// Transfers, scoped to the client's operator
	StageTransfer(ctx context.Context, hackathonID, participantID, toTeamID string) (*model.PendingTransfer, error)
	ListTransfers(ctx context.Context, hackathonID string) (*TransferQueue, error)
	ConfirmTransfers(ctx context.Context, hackathonID string) (*model.DispatchResult, error)
	CancelTransfers(ctx context.Context, hackathonID string) ([]model.PendingTransfer, error)
	RevertTransfers(ctx context.Context, hackathonID string) (int, error)
	ListSessions(ctx context.Context, hackathonID string) ([]Session, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// RegisterRequest is a participant registration.
type RegisterRequest struct {
	Profile       model.Profile           `json:"profile"`
	PreferredRole string                  `json:"preferred_role,omitempty"`
	Answers       map[string]model.Answer `json:"answers,omitempty"`
}

// ListParticipantsRequest holds parameters for listing participants.
type ListParticipantsRequest struct {
	Status     []string
	TeamID     string
	Search     string
	Unassigned bool
	Limit      int
	Offset     int
}

// ListParticipantsResponse is the response from ListParticipants.
type ListParticipantsResponse struct {
	Participants []*model.Participant `json:"participants"`
	Total        int                  `json:"total"`
}

// Classification is the result of a classification pass.
type Classification struct {
	Enabled      bool                            `json:"enabled"`
	Participants []classify.AnnotatedParticipant `json:"participants"`
	Summary      classify.Summary                `json:"summary"`
}

// BulkResult is the response from ApplyClassification.
type BulkResult struct {
	bulk.Result
	Summary classify.Summary `json:"summary"`
}

// TeamRequest creates or updates a team. Nil fields mean "don't change".
type TeamRequest struct {
	Name  *string          `json:"name,omitempty"`
	Links *model.TeamLinks `json:"links,omitempty"`
}

// TransferQueue is an operator's queued transfer notifications.
type TransferQueue struct {
	State     string                  `json:"state"`
	Transfers []model.PendingTransfer `json:"transfers"`
}

// Session describes one operator's transfer session.
type Session struct {
	Operator    string    `json:"operator"`
	HackathonID string    `json:"hackathon_id"`
	State       string    `json:"state"`
	Pending     int       `json:"pending"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IdleSecs    float64   `json:"idle_secs"`
}
