package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// handleRegisterParticipant handles POST /v1/hackathons/{id}/participants.
func (s *HackopsServer) handleRegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var in registerParticipantInput
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	p, err := s.registerParticipant(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleListParticipants handles GET /v1/hackathons/{id}/participants.
func (s *HackopsServer) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ParticipantFilter{
		HackathonID: r.PathValue("id"),
		TeamID:      q.Get("team"),
		Search:      q.Get("search"),
		Unassigned:  q.Get("unassigned") == "true",
	}
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			status := model.Status(strings.TrimSpace(st))
			if !status.IsValid() {
				writeError(w, http.StatusBadRequest, "invalid status "+strconv.Quote(st))
				return
			}
			filter.Status = append(filter.Status, status)
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	participants, total, err := s.store.ListParticipants(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participants": participants,
		"total":        total,
	})
}

// handleGetParticipant handles GET /v1/participants/{id}.
func (s *HackopsServer) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetParticipant(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSetParticipantStatus handles PATCH /v1/participants/{id}/status.
func (s *HackopsServer) handleSetParticipantStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status model.Status `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	p, err := s.setParticipantStatus(r.Context(), r.PathValue("id"), in.Status, actorOf(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
