package server

import (
	"encoding/json"
	"net/http"
)

// headerOperator identifies the operator making a request. Transfer
// endpoints require it; elsewhere it is recorded as the event actor.
const headerOperator = "X-Operator"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *HackopsServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	mux.HandleFunc("POST /v1/hackathons", s.handleCreateHackathon)
	mux.HandleFunc("GET /v1/hackathons", s.handleListHackathons)
	mux.HandleFunc("GET /v1/hackathons/{id}", s.handleGetHackathon)
	mux.HandleFunc("GET /v1/hackathons/{id}/events", s.handleListEvents)

	mux.HandleFunc("POST /v1/hackathons/{id}/participants", s.handleRegisterParticipant)
	mux.HandleFunc("GET /v1/hackathons/{id}/participants", s.handleListParticipants)
	mux.HandleFunc("GET /v1/participants/{id}", s.handleGetParticipant)
	mux.HandleFunc("PATCH /v1/participants/{id}/status", s.handleSetParticipantStatus)

	mux.HandleFunc("GET /v1/hackathons/{id}/form-fields", s.handleGetFormFields)
	mux.HandleFunc("PUT /v1/hackathons/{id}/form-fields", s.handleSetFormFields)
	mux.HandleFunc("GET /v1/hackathons/{id}/rules", s.handleGetRules)
	mux.HandleFunc("PUT /v1/hackathons/{id}/rules", s.handleSetRules)
	mux.HandleFunc("POST /v1/hackathons/{id}/classify", s.handleClassify)
	mux.HandleFunc("POST /v1/hackathons/{id}/classify/apply", s.handleApplyClassification)

	mux.HandleFunc("POST /v1/hackathons/{id}/plan", s.handlePlanTeams)
	mux.HandleFunc("POST /v1/hackathons/{id}/plan/apply", s.handleApplyPlan)
	mux.HandleFunc("GET /v1/hackathons/{id}/teams", s.handleListTeams)
	mux.HandleFunc("POST /v1/hackathons/{id}/teams", s.handleCreateTeam)
	mux.HandleFunc("GET /v1/teams/{id}", s.handleGetTeam)
	mux.HandleFunc("PATCH /v1/teams/{id}", s.handleUpdateTeam)
	mux.HandleFunc("DELETE /v1/teams/{id}", s.handleDeleteTeam)
	mux.HandleFunc("DELETE /v1/teams/{id}/members/{participant_id}", s.handleRemoveMember)

	mux.HandleFunc("POST /v1/hackathons/{id}/transfers", s.handleStageTransfer)
	mux.HandleFunc("GET /v1/hackathons/{id}/transfers", s.handleListTransfers)
	mux.HandleFunc("POST /v1/hackathons/{id}/transfers/confirm", s.handleConfirmTransfers)
	mux.HandleFunc("POST /v1/hackathons/{id}/transfers/cancel", s.handleCancelTransfers)
	mux.HandleFunc("POST /v1/hackathons/{id}/transfers/revert", s.handleRevertTransfers)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)

	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *HackopsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return inputError("invalid JSON body")
	}
	return nil
}

// actorOf returns the operator named by the request, if any.
func actorOf(r *http.Request) string {
	return r.Header.Get(headerOperator)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
