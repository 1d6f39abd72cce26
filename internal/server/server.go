package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/hackops/internal/bulk"
	"github.com/alfredjeanlab/hackops/internal/events"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/session"
	"github.com/alfredjeanlab/hackops/internal/store"
	"github.com/alfredjeanlab/hackops/internal/teamplan"
	"github.com/alfredjeanlab/hackops/internal/transfer"
)

// HackopsServer serves the operator console API over HTTP and exposes
// health over gRPC.
type HackopsServer struct {
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	bulk      *bulk.Executor

	// Sessions holds each operator's transfer workflow per hackathon.
	Sessions *session.Registry
}

// NewHackopsServer returns a server backed by the given store and publisher.
// Transfer notifications are dispatched through notifier.
func NewHackopsServer(s store.Store, p events.Publisher, notifier transfer.Notifier) *HackopsServer {
	return &HackopsServer{
		store:     s,
		publisher: p,
		sseHub:    newSSEHub(),
		bulk:      bulk.NewExecutor(s),
		Sessions: session.New(func() *transfer.Workflow {
			return transfer.New(s, notifier)
		}),
	}
}

// recordAndPublish persists an event to the store, publishes it to NATS and
// fans it out to SSE clients. All three are best-effort; failures are logged
// but do not fail the caller.
func (s *HackopsServer) recordAndPublish(ctx context.Context, topic, hackathonID, subjectID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "subject_id", subjectID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:       topic,
		HackathonID: hackathonID,
		SubjectID:   subjectID,
		Actor:       actor,
		Payload:     payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "subject_id", subjectID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "subject_id", subjectID, "error", err)
	}
	s.sseHub.broadcast(topic, hackathonID, payload)
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// httpStatus maps an operation error to its HTTP status code.
func httpStatus(err error) int {
	var ie inputError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ie), errors.As(err, &ve),
		errors.Is(err, transfer.ErrSameTeam),
		errors.Is(err, transfer.ErrNotMember),
		errors.Is(err, transfer.ErrMissingInput),
		errors.Is(err, teamplan.ErrInvalidTeamSize),
		errors.Is(err, bulk.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeOpError writes err with the status httpStatus assigns. Validation
// errors carry their field list.
func writeOpError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		fields := make([]map[string]string, len(ve.Errors))
		for i, fe := range ve.Errors {
			fields[i] = map[string]string{"field": fe.Field, "message": fe.Message}
		}
		writeJSON(w, code, map[string]any{"error": ve.Error(), "fields": fields})
		return
	}
	if code == http.StatusNotFound {
		writeError(w, code, "not found")
		return
	}
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeError(w, code, err.Error())
}
