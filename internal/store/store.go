package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// ErrConflict is returned when a write would break a uniqueness constraint,
// such as adding a participant who is already on a team.
var ErrConflict = errors.New("conflict")

// Store defines the persistence interface for hackathons, participants and
// teams. Lookups of missing records return sql.ErrNoRows.
type Store interface {
	// Hackathons
	CreateHackathon(ctx context.Context, h *model.Hackathon) error
	GetHackathon(ctx context.Context, id string) (*model.Hackathon, error)
	ListHackathons(ctx context.Context) ([]*model.Hackathon, error)
	GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error)

	// Participants
	CreateParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, id string) (*model.Participant, error)
	ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, int, error) // returns participants, total count, error
	UpdateParticipantStatus(ctx context.Context, id string, status model.Status) (*model.Participant, error)
	BulkUpdateStatus(ctx context.Context, ids []string, status model.Status) (*model.BulkResult, error)

	// Registration form and filter rules
	ListFormFields(ctx context.Context, hackathonID string) ([]model.FormField, error)
	SetFormFields(ctx context.Context, hackathonID string, fields []model.FormField) error
	GetRuleSet(ctx context.Context, hackathonID string) (*model.RuleSet, error)
	SetRuleSet(ctx context.Context, rs *model.RuleSet) error

	// Teams
	CreateTeam(ctx context.Context, t *model.Team) error
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context, hackathonID string) ([]*model.Team, error)
	UpdateTeam(ctx context.Context, t *model.Team) error
	DeleteTeam(ctx context.Context, id string) error
	AddMember(ctx context.Context, teamID, participantID string) error
	MoveMember(ctx context.Context, fromTeamID, participantID, toTeamID string) error
	RemoveMember(ctx context.Context, teamID, participantID string) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, hackathonID string, limit int) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
