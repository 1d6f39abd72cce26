package server

import (
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// handleCreateHackathon handles POST /v1/hackathons.
func (s *HackopsServer) handleCreateHackathon(w http.ResponseWriter, r *http.Request) {
	var in createHackathonInput
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	h, err := s.createHackathon(r.Context(), in, actorOf(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

// handleListHackathons handles GET /v1/hackathons.
func (s *HackopsServer) handleListHackathons(w http.ResponseWriter, r *http.Request) {
	hs, err := s.store.ListHackathons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list hackathons")
		return
	}
	if hs == nil {
		hs = []*model.Hackathon{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hackathons": hs})
}

// handleGetHackathon handles GET /v1/hackathons/{id}. The response is the
// full view: participants, teams and stats.
func (s *HackopsServer) handleGetHackathon(w http.ResponseWriter, r *http.Request) {
	view, err := s.store.GetHackathonView(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListEvents handles GET /v1/hackathons/{id}/events.
func (s *HackopsServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	evts, err := s.store.ListEvents(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
