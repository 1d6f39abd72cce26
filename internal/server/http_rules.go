package server

import (
	"net/http"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// handleGetFormFields handles GET /v1/hackathons/{id}/form-fields.
func (s *HackopsServer) handleGetFormFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.store.ListFormFields(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	if fields == nil {
		fields = []model.FormField{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":         fields,
		"profile_fields": model.ProfileFields,
	})
}

// handleSetFormFields handles PUT /v1/hackathons/{id}/form-fields.
func (s *HackopsServer) handleSetFormFields(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Fields []model.FormField `json:"fields"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	if in.Fields == nil {
		in.Fields = []model.FormField{}
	}
	if err := s.setFormFields(r.Context(), r.PathValue("id"), in.Fields, actorOf(r)); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": in.Fields})
}

// handleGetRules handles GET /v1/hackathons/{id}/rules.
func (s *HackopsServer) handleGetRules(w http.ResponseWriter, r *http.Request) {
	rs, err := s.store.GetRuleSet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	if rs.Rules == nil {
		rs.Rules = []model.FilterRule{}
	}
	writeJSON(w, http.StatusOK, rs)
}

// handleSetRules handles PUT /v1/hackathons/{id}/rules. The whole rule set
// is replaced.
func (s *HackopsServer) handleSetRules(w http.ResponseWriter, r *http.Request) {
	var rs model.RuleSet
	if err := decodeBody(r, &rs); err != nil {
		writeOpError(w, err)
		return
	}
	rs.HackathonID = r.PathValue("id")
	if rs.Rules == nil {
		rs.Rules = []model.FilterRule{}
	}
	if err := s.setRuleSet(r.Context(), &rs, actorOf(r)); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// handleClassify handles POST /v1/hackathons/{id}/classify.
func (s *HackopsServer) handleClassify(w http.ResponseWriter, r *http.Request) {
	c, err := s.classifyHackathon(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleApplyClassification handles POST /v1/hackathons/{id}/classify/apply.
func (s *HackopsServer) handleApplyClassification(w http.ResponseWriter, r *http.Request) {
	var in applyClassificationInput
	if err := decodeBody(r, &in); err != nil {
		writeOpError(w, err)
		return
	}
	res, err := s.applyClassification(r.Context(), r.PathValue("id"), in, actorOf(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
