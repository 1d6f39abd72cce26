package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// decodePlanInput reads an optional plan body; an empty body keeps the
// hackathon's team size.
func decodePlanInput(r *http.Request) (planInput, error) {
	var in planInput
	if r.Body == nil {
		return in, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return in, inputError("unreadable body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, inputError("invalid JSON body")
	}
	return in, nil
}

// handlePlanTeams handles POST /v1/hackathons/{id}/plan. The plan is a
// preview; nothing is written.
func (s *HackopsServer) handlePlanTeams(w http.ResponseWriter, r *http.Request) {
	in, err := decodePlanInput(r)
	if err != nil {
		writeOpError(w, err)
		return
	}
	plan, err := s.planTeams(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeOpError(w, err)
		return
	}
	if plan.Teams == nil {
		plan.Teams = []model.PlannedTeam{}
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleApplyPlan handles POST /v1/hackathons/{id}/plan/apply.
func (s *HackopsServer) handleApplyPlan(w http.ResponseWriter, r *http.Request) {
	in, err := decodePlanInput(r)
	if err != nil {
		writeOpError(w, err)
		return
	}
	teams, err := s.applyPlan(r.Context(), r.PathValue("id"), in, actorOf(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"teams": teams})
}

// handleListTeams handles GET /v1/hackathons/{id}/teams.
func (s *HackopsServer) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.store.ListTeams(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	if teams == nil {
		teams = []*model.Team{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// handleCreateTeam handles POST /v1/hackathons/{id}/teams.
func (s *HackopsServer) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var in teamInput
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	t, err := s.createTeam(r.Context(), r.PathValue("id"), in, actorOf(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// handleGetTeam handles GET /v1/teams/{id}.
func (s *HackopsServer) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTeam(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUpdateTeam handles PATCH /v1/teams/{id}.
func (s *HackopsServer) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	var in teamInput
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	t, err := s.updateTeam(r.Context(), r.PathValue("id"), in, actorOf(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleDeleteTeam handles DELETE /v1/teams/{id}.
func (s *HackopsServer) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteTeam(r.Context(), r.PathValue("id"), actorOf(r)); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveMember handles DELETE /v1/teams/{id}/members/{participant_id}.
func (s *HackopsServer) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.removeMember(r.Context(), r.PathValue("id"), r.PathValue("participant_id"), actorOf(r)); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
