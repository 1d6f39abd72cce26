package server

import (
	"net/http"

	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/session"
)

// transferQueue is the operator's queue as returned by the transfer
// endpoints.
type transferQueue struct {
	State     string                  `json:"state"`
	Transfers []model.PendingTransfer `json:"transfers"`
}

func (s *HackopsServer) queueOf(operator, hackathonID string) transferQueue {
	wf := s.Sessions.Workflow(operator, hackathonID)
	pending := wf.Pending()
	if pending == nil {
		pending = []model.PendingTransfer{}
	}
	return transferQueue{State: wf.State().String(), Transfers: pending}
}

// handleStageTransfer handles POST /v1/hackathons/{id}/transfers. The move
// is applied immediately; its notification waits for confirm.
func (s *HackopsServer) handleStageTransfer(w http.ResponseWriter, r *http.Request) {
	operator, err := operatorOf(r.Header.Get(headerOperator))
	if err != nil {
		writeOpError(w, err)
		return
	}
	var in stageTransferInput
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	pt, err := s.stageTransfer(r.Context(), operator, r.PathValue("id"), in)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pt)
}

// handleListTransfers handles GET /v1/hackathons/{id}/transfers.
func (s *HackopsServer) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	operator, err := operatorOf(r.Header.Get(headerOperator))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.queueOf(operator, r.PathValue("id")))
}

// handleConfirmTransfers handles POST /v1/hackathons/{id}/transfers/confirm.
func (s *HackopsServer) handleConfirmTransfers(w http.ResponseWriter, r *http.Request) {
	operator, err := operatorOf(r.Header.Get(headerOperator))
	if err != nil {
		writeOpError(w, err)
		return
	}
	res, err := s.confirmTransfers(r.Context(), operator, r.PathValue("id"))
	if err != nil {
		// The queue is kept; report it so the operator can retry.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"queue": s.queueOf(operator, r.PathValue("id")),
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCancelTransfers handles POST /v1/hackathons/{id}/transfers/cancel.
// Queued notifications are dropped; the moves stay in place.
func (s *HackopsServer) handleCancelTransfers(w http.ResponseWriter, r *http.Request) {
	operator, err := operatorOf(r.Header.Get(headerOperator))
	if err != nil {
		writeOpError(w, err)
		return
	}
	discarded := s.cancelTransfers(r.Context(), operator, r.PathValue("id"))
	if discarded == nil {
		discarded = []model.PendingTransfer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"discarded": discarded})
}

// handleRevertTransfers handles POST /v1/hackathons/{id}/transfers/revert.
func (s *HackopsServer) handleRevertTransfers(w http.ResponseWriter, r *http.Request) {
	operator, err := operatorOf(r.Header.Get(headerOperator))
	if err != nil {
		writeOpError(w, err)
		return
	}
	n, err := s.revertTransfers(r.Context(), operator, r.PathValue("id"))
	if err != nil {
		writeJSON(w, httpStatus(err), map[string]any{
			"error":    err.Error(),
			"reverted": n,
			"queue":    s.queueOf(operator, r.PathValue("id")),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reverted": n})
}

// handleListSessions handles GET /v1/sessions.
func (s *HackopsServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	entries := s.Sessions.List(r.URL.Query().Get("hackathon"))
	if entries == nil {
		entries = []session.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": entries})
}
