// Package transfer implements the staged team-transfer workflow.
//
// A staged move is applied to the membership store immediately; only the
// notification to the moved participants is deferred until ConfirmAll. The
// queue is therefore a notification batch, not an undo log: CancelAll drops
// the queued notifications and leaves the moves in place. RevertAll is the
// explicit undo and moves queued participants back to their source teams.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/hackops/internal/idgen"
	"github.com/alfredjeanlab/hackops/internal/model"
)

var (
	// ErrSameTeam is returned when the source and destination teams match.
	ErrSameTeam = errors.New("source and destination team are the same")
	// ErrNotMember is returned when the participant is not on the source team.
	ErrNotMember = errors.New("participant is not a member of the source team")
	// ErrMissingInput is returned when the participant or a team is not given.
	ErrMissingInput = errors.New("participant, source team and destination team are required")
)

// TeamMover applies a membership move to the team store.
type TeamMover interface {
	MoveMember(ctx context.Context, fromTeamID, participantID, toTeamID string) error
}

// Notifier delivers a batch of transfer notifications.
type Notifier interface {
	DispatchTransferNotifications(ctx context.Context, transfers []model.PendingTransfer) (*model.DispatchResult, error)
}

// State is the workflow state.
type State int

const (
	// Idle means no transfers are queued.
	Idle State = iota
	// Staged means one or more applied transfers await notification.
	Staged
)

func (s State) String() string {
	if s == Staged {
		return "staged"
	}
	return "idle"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Workflow queues applied team moves for one operator session. It is safe
// for concurrent use.
type Workflow struct {
	mover    TeamMover
	notifier Notifier

	mu    sync.Mutex
	queue []model.PendingTransfer

	newID func() (string, error)
	now   func() time.Time
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock sets the clock used to stamp queued transfers.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithIDFunc sets the generator for transfer IDs.
func WithIDFunc(fn func() (string, error)) Option {
	return func(w *Workflow) { w.newID = fn }
}

// New creates an idle workflow.
func New(mover TeamMover, notifier Notifier, opts ...Option) *Workflow {
	w := &Workflow{
		mover:    mover,
		notifier: notifier,
		newID:    idgen.Transfer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// StageMove moves p from one team to another right away and queues a
// notification for the move. Nothing is queued when the move fails.
func (w *Workflow) StageMove(ctx context.Context, p *model.Participant, from, to *model.Team) (*model.PendingTransfer, error) {
	if p == nil || from == nil || to == nil || p.ID == "" || from.ID == "" || to.ID == "" {
		return nil, ErrMissingInput
	}
	if from.ID == to.ID {
		return nil, ErrSameTeam
	}
	if !from.HasMember(p.ID) {
		return nil, fmt.Errorf("%w: %s not on %s", ErrNotMember, p.ID, from.ID)
	}

	id, err := w.newID()
	if err != nil {
		return nil, fmt.Errorf("stage move: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mover.MoveMember(ctx, from.ID, p.ID, to.ID); err != nil {
		return nil, fmt.Errorf("move %s to %s: %w", p.ID, to.Name, err)
	}

	pt := model.PendingTransfer{
		ID:            id,
		ParticipantID: p.ID,
		Name:          p.Profile.Name,
		Email:         p.Profile.Email,
		FromTeamID:    from.ID,
		FromTeamName:  from.Name,
		ToTeamID:      to.ID,
		ToTeamName:    to.Name,
		CreatedAt:     w.now().UTC(),
	}
	w.queue = append(w.queue, pt)
	return &pt, nil
}

// ConfirmAll sends every queued transfer to the notifier in one call and
// clears the queue on success. On failure the queue is left intact so the
// caller can retry. An empty queue is a successful no-op.
func (w *Workflow) ConfirmAll(ctx context.Context) (*model.DispatchResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return &model.DispatchResult{Message: "no pending transfers"}, nil
	}

	batch := make([]model.PendingTransfer, len(w.queue))
	copy(batch, w.queue)

	res, err := w.notifier.DispatchTransferNotifications(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("dispatch %d transfer notifications: %w", len(batch), err)
	}
	w.queue = nil
	if res == nil {
		res = &model.DispatchResult{}
	}
	return res, nil
}

// CancelAll discards the queued notifications and returns them. Moves that
// were already applied stay in place.
func (w *Workflow) CancelAll() []model.PendingTransfer {
	w.mu.Lock()
	defer w.mu.Unlock()

	dropped := w.queue
	w.queue = nil
	return dropped
}

// RevertAll moves queued participants back to their source teams, newest
// first, dropping each entry once it is reverted. It stops at the first
// failure and leaves the remaining entries queued. It returns the number of
// reverted moves.
func (w *Workflow) RevertAll(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	reverted := 0
	for len(w.queue) > 0 {
		last := w.queue[len(w.queue)-1]
		if err := w.mover.MoveMember(ctx, last.ToTeamID, last.ParticipantID, last.FromTeamID); err != nil {
			return reverted, fmt.Errorf("revert %s to %s: %w", last.ParticipantID, last.FromTeamName, err)
		}
		w.queue = w.queue[:len(w.queue)-1]
		reverted++
		slog.Debug("transfer reverted", "participant", last.ParticipantID, "team", last.FromTeamID)
	}
	w.queue = nil
	return reverted, nil
}

// Pending returns a copy of the queued transfers, oldest first.
func (w *Workflow) Pending() []model.PendingTransfer {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]model.PendingTransfer, len(w.queue))
	copy(out, w.queue)
	return out
}

// State reports whether any transfers are queued.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) > 0 {
		return Staged
	}
	return Idle
}
