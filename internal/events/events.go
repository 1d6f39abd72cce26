package events

import (
	"context"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// Event topic constants
const (
	TopicHackathonCreated = "hackops.hackathon.created"

	TopicParticipantRegistered = "hackops.participant.registered"
	TopicParticipantStatus     = "hackops.participant.status"
	TopicBulkStatusApplied     = "hackops.participant.bulk_status"

	TopicRulesUpdated      = "hackops.rules.updated"
	TopicFormFieldsUpdated = "hackops.form_fields.updated"

	TopicTeamCreated       = "hackops.team.created"
	TopicTeamUpdated       = "hackops.team.updated"
	TopicTeamDeleted       = "hackops.team.deleted"
	TopicTeamMemberRemoved = "hackops.team.member_removed"

	// Transfer workflow events. A staged transfer is already applied; the
	// confirmed event marks the notification batch being sent.
	TopicTransferStaged    = "hackops.transfer.staged"
	TopicTransferConfirmed = "hackops.transfer.confirmed"
	TopicTransferCancelled = "hackops.transfer.cancelled"
	TopicTransferReverted  = "hackops.transfer.reverted"
)

// AllTopics matches every hackops subject.
const AllTopics = "hackops.>"

// Event types

type HackathonCreated struct {
	Hackathon *model.Hackathon `json:"hackathon"`
}

type ParticipantRegistered struct {
	Participant *model.Participant `json:"participant"`
}

type ParticipantStatusChanged struct {
	ParticipantID string       `json:"participant_id"`
	HackathonID   string       `json:"hackathon_id"`
	Status        model.Status `json:"status"`
}

type BulkStatusApplied struct {
	HackathonID    string       `json:"hackathon_id"`
	Action         model.Action `json:"action"`
	Status         model.Status `json:"status"`
	ParticipantIDs []string     `json:"participant_ids"`
	SuccessCount   int          `json:"success_count"`
	FailureCount   int          `json:"failure_count"`
}

type RulesUpdated struct {
	RuleSet *model.RuleSet `json:"rule_set"`
}

type FormFieldsUpdated struct {
	HackathonID string            `json:"hackathon_id"`
	Fields      []model.FormField `json:"fields"`
}

type TeamCreated struct {
	Team *model.Team `json:"team"`
}

type TeamUpdated struct {
	Team *model.Team `json:"team"`
}

type TeamDeleted struct {
	TeamID      string `json:"team_id"`
	HackathonID string `json:"hackathon_id"`
}

type TeamMemberRemoved struct {
	TeamID        string `json:"team_id"`
	ParticipantID string `json:"participant_id"`
}

type TransferStaged struct {
	HackathonID string                 `json:"hackathon_id"`
	Operator    string                 `json:"operator"`
	Transfer    *model.PendingTransfer `json:"transfer"`
}

type TransfersSettled struct {
	HackathonID string                  `json:"hackathon_id"`
	Operator    string                  `json:"operator"`
	Transfers   []model.PendingTransfer `json:"transfers,omitempty"`
	Count       int                     `json:"count"`
	Message     string                  `json:"message,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
