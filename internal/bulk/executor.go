// Package bulk applies an approve/reject decision to every pending
// participant that carries a given classification outcome.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/hackops/internal/classify"
	"github.com/alfredjeanlab/hackops/internal/model"
)

// ErrInvalidTarget is returned when the target status is not approved or
// rejected.
var ErrInvalidTarget = errors.New("target status must be approved or rejected")

// StatusUpdater transitions many participants to one status in a single call.
type StatusUpdater interface {
	BulkUpdateStatus(ctx context.Context, participantIDs []string, status model.Status) (*model.BulkResult, error)
}

// Result is the outcome of Apply.
type Result struct {
	NothingToDo    bool             `json:"nothing_to_do"`
	ParticipantIDs []string         `json:"participant_ids,omitempty"`
	Status         model.Status     `json:"status"`
	Action         model.Action     `json:"action"`
	Updated        model.BulkResult `json:"updated"`
}

// Executor runs bulk status transitions.
type Executor struct {
	updater StatusUpdater
}

// NewExecutor returns an Executor writing through updater.
func NewExecutor(updater StatusUpdater) *Executor {
	return &Executor{updater: updater}
}

// Apply moves every pending participant whose outcome is action to
// target. An empty subset makes no call and reports NothingToDo. The batch
// passes or fails as a whole.
func (e *Executor) Apply(ctx context.Context, annotated []classify.AnnotatedParticipant, action model.Action, target model.Status) (*Result, error) {
	if target != model.StatusApproved && target != model.StatusRejected {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidTarget, target)
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid action %q", action)
	}

	ids := Select(annotated, action)
	res := &Result{Status: target, Action: action, ParticipantIDs: ids}
	if len(ids) == 0 {
		res.NothingToDo = true
		return res, nil
	}

	updated, err := e.updater.BulkUpdateStatus(ctx, ids, target)
	if err != nil {
		return nil, fmt.Errorf("bulk update %d participants to %s: %w", len(ids), target, err)
	}
	if updated != nil {
		res.Updated = *updated
	}
	slog.Info("bulk status applied",
		"action", action,
		"status", target,
		"count", len(ids),
		"failed", res.Updated.FailureCount)
	return res, nil
}

// Select returns the IDs of pending participants annotated with action,
// in input order.
func Select(annotated []classify.AnnotatedParticipant, action model.Action) []string {
	var ids []string
	for _, a := range annotated {
		if a.Participant == nil || a.Participant.Status != model.StatusPending {
			continue
		}
		if a.Outcome != action {
			continue
		}
		ids = append(ids, a.Participant.ID)
	}
	return ids
}
