package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/hackops/internal/events"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/store"
)

// mockStore is an in-memory store.Store. Team rosters are derived from the
// participants' TeamID, in registration order.
type mockStore struct {
	mu           sync.Mutex
	hackathons   map[string]*model.Hackathon
	hackOrder    []string
	participants map[string]*model.Participant
	partOrder    []string
	teams        map[string]*model.Team
	teamOrder    []string
	fields       map[string][]model.FormField
	rules        map[string]*model.RuleSet
	events       []*model.Event

	// moveErr, when set, is consulted before every MoveMember.
	moveErr func(fromTeamID, participantID, toTeamID string) error
}

func newMockStore() *mockStore {
	return &mockStore{
		hackathons:   make(map[string]*model.Hackathon),
		participants: make(map[string]*model.Participant),
		teams:        make(map[string]*model.Team),
		fields:       make(map[string][]model.FormField),
		rules:        make(map[string]*model.RuleSet),
	}
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) CreateHackathon(_ context.Context, h *model.Hackathon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hackathons[h.ID] = h
	m.hackOrder = append(m.hackOrder, h.ID)
	return nil
}

func (m *mockStore) GetHackathon(_ context.Context, id string) (*model.Hackathon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hackathons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *h
	return &clone, nil
}

func (m *mockStore) ListHackathons(_ context.Context) ([]*model.Hackathon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Hackathon
	for _, id := range m.hackOrder {
		out = append(out, m.hackathons[id])
	}
	return out, nil
}

func (m *mockStore) GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error) {
	h, err := m.GetHackathon(ctx, id)
	if err != nil {
		return nil, err
	}
	ps, _, _ := m.ListParticipants(ctx, model.ParticipantFilter{HackathonID: id})
	ts, _ := m.ListTeams(ctx, id)
	return &model.HackathonView{
		Hackathon:    h,
		Participants: ps,
		Teams:        ts,
		Stats:        model.ComputeStats(ps, ts),
	}, nil
}

func (m *mockStore) CreateParticipant(_ context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.partOrder {
		other := m.participants[id]
		if other.HackathonID == p.HackathonID && other.Profile.Email == p.Profile.Email {
			return store.ErrConflict
		}
	}
	m.participants[p.ID] = p
	m.partOrder = append(m.partOrder, p.ID)
	return nil
}

func (m *mockStore) GetParticipant(_ context.Context, id string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *mockStore) ListParticipants(_ context.Context, f model.ParticipantFilter) ([]*model.Participant, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Participant
	for _, id := range m.partOrder {
		p := m.participants[id]
		if f.HackathonID != "" && p.HackathonID != f.HackathonID {
			continue
		}
		if len(f.Status) > 0 && !slices.Contains(f.Status, p.Status) {
			continue
		}
		if f.TeamID != "" && p.TeamID != f.TeamID {
			continue
		}
		if f.Unassigned && p.HasTeam() {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Profile.Name), q) && !strings.Contains(p.Profile.Email, q) {
				continue
			}
		}
		clone := *p
		out = append(out, &clone)
	}
	total := len(out)
	if f.Offset > 0 {
		out = out[min(f.Offset, len(out)):]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *mockStore) UpdateParticipantStatus(_ context.Context, id string, status model.Status) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	return &clone, nil
}

func (m *mockStore) BulkUpdateStatus(_ context.Context, ids []string, status model.Status) (*model.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := &model.BulkResult{}
	for _, id := range ids {
		p, ok := m.participants[id]
		if !ok {
			res.FailureCount++
			continue
		}
		p.Status = status
		res.SuccessCount++
	}
	return res, nil
}

func (m *mockStore) ListFormFields(_ context.Context, hackathonID string) ([]model.FormField, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.fields[hackathonID]), nil
}

func (m *mockStore) SetFormFields(_ context.Context, hackathonID string, fields []model.FormField) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[hackathonID] = slices.Clone(fields)
	return nil
}

func (m *mockStore) GetRuleSet(_ context.Context, hackathonID string) (*model.RuleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, ok := m.rules[hackathonID]
	if !ok {
		return &model.RuleSet{HackathonID: hackathonID, Enabled: true, Rules: []model.FilterRule{}}, nil
	}
	clone := *rs
	clone.Rules = slices.Clone(rs.Rules)
	return &clone, nil
}

func (m *mockStore) SetRuleSet(_ context.Context, rs *model.RuleSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *rs
	clone.Rules = slices.Clone(rs.Rules)
	m.rules[rs.HackathonID] = &clone
	return nil
}

func (m *mockStore) CreateTeam(_ context.Context, t *model.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.teamOrder {
		other := m.teams[id]
		if other.HackathonID == t.HackathonID && other.Name == t.Name {
			return store.ErrConflict
		}
	}
	clone := *t
	clone.Members = nil
	m.teams[t.ID] = &clone
	m.teamOrder = append(m.teamOrder, t.ID)
	return nil
}

// roster must be called with mu held.
func (m *mockStore) roster(t *model.Team) *model.Team {
	clone := *t
	clone.Members = []model.TeamMember{}
	for _, id := range m.partOrder {
		if p := m.participants[id]; p.TeamID == t.ID {
			clone.Members = append(clone.Members, model.MemberFor(p))
		}
	}
	return &clone
}

func (m *mockStore) GetTeam(_ context.Context, id string) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.roster(t), nil
}

func (m *mockStore) ListTeams(_ context.Context, hackathonID string) ([]*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Team
	for _, id := range m.teamOrder {
		if t := m.teams[id]; t.HackathonID == hackathonID {
			out = append(out, m.roster(t))
		}
	}
	return out, nil
}

func (m *mockStore) UpdateTeam(_ context.Context, t *model.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.teams[t.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cur.Name = t.Name
	cur.Links = t.Links
	return nil
}

func (m *mockStore) DeleteTeam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teams, id)
	m.teamOrder = slices.DeleteFunc(m.teamOrder, func(s string) bool { return s == id })
	for _, p := range m.participants {
		if p.TeamID == id {
			p.TeamID = ""
		}
	}
	return nil
}

func (m *mockStore) AddMember(_ context.Context, teamID, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return sql.ErrNoRows
	}
	if _, ok := m.teams[teamID]; !ok {
		return sql.ErrNoRows
	}
	if p.HasTeam() {
		return store.ErrConflict
	}
	p.TeamID = teamID
	return nil
}

func (m *mockStore) MoveMember(_ context.Context, fromTeamID, participantID, toTeamID string) error {
	if m.moveErr != nil {
		if err := m.moveErr(fromTeamID, participantID, toTeamID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok || p.TeamID != fromTeamID {
		return sql.ErrNoRows
	}
	if _, ok := m.teams[toTeamID]; !ok {
		return sql.ErrNoRows
	}
	p.TeamID = toTeamID
	return nil
}

func (m *mockStore) RemoveMember(_ context.Context, teamID, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok || p.TeamID != teamID {
		return sql.ErrNoRows
	}
	p.TeamID = ""
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, hackathonID string, limit int) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].HackathonID == hackathonID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *mockStore) topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Topic
	}
	return out
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

// recordingNotifier captures dispatched batches.
type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]model.PendingTransfer
	err     error
}

func (n *recordingNotifier) DispatchTransferNotifications(_ context.Context, ts []model.PendingTransfer) (*model.DispatchResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	n.batches = append(n.batches, slices.Clone(ts))
	return &model.DispatchResult{Message: fmt.Sprintf("%d transfer notification(s) sent", len(ts))}, nil
}

func newTestServer() (*HackopsServer, *mockStore, http.Handler) {
	srv, ms, _, h := newTestServerWithNotifier()
	return srv, ms, h
}

func newTestServerWithNotifier() (*HackopsServer, *mockStore, *recordingNotifier, http.Handler) {
	ms := newMockStore()
	n := &recordingNotifier{}
	s := NewHackopsServer(ms, &events.NoopPublisher{}, n)
	return s, ms, n, s.NewHTTPHandler("")
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doAs(t, handler, "", method, path, body)
}

// doAs is doJSON with an X-Operator header.
func doAs(t *testing.T, handler http.Handler, operator, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if operator != "" {
		req.Header.Set(headerOperator, operator)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// seedHackathon creates a hackathon through the API and returns its ID.
func seedHackathon(t *testing.T, h http.Handler, name string, teamSize int) string {
	t.Helper()
	rec := doJSON(t, h, "POST", "/v1/hackathons", map[string]any{"name": name, "team_size": teamSize})
	requireStatus(t, rec, http.StatusCreated)
	var out model.Hackathon
	decodeJSON(t, rec, &out)
	return out.ID
}

// seedParticipant registers a participant and returns it.
func seedParticipant(t *testing.T, h http.Handler, hackathonID, name, role string, answers map[string]any) model.Participant {
	t.Helper()
	body := map[string]any{
		"profile":        map[string]any{"name": name, "email": strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"},
		"preferred_role": role,
	}
	if answers != nil {
		body["answers"] = answers
	}
	rec := doJSON(t, h, "POST", "/v1/hackathons/"+hackathonID+"/participants", body)
	requireStatus(t, rec, http.StatusCreated)
	var p model.Participant
	decodeJSON(t, rec, &p)
	return p
}

func TestHandleHealth(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, "GET", "/v1/health", nil)
	requireStatus(t, rec, http.StatusOK)
	var out map[string]string
	decodeJSON(t, rec, &out)
	if out["status"] != "ok" {
		t.Fatalf("status = %q", out["status"])
	}
}

func TestHandleHTTPErrors(t *testing.T) {
	_, _, h := newTestServer()
	hid := seedHackathon(t, h, "Errors", 3)

	for _, tc := range []struct {
		name      string
		method    string
		path      string
		body      any
		code      int
		wantError string
	}{
		{"CreateHackathon/MissingName", "POST", "/v1/hackathons", map[string]any{"team_size": 3}, 400, "name"},
		{"CreateHackathon/BadTeamSize", "POST", "/v1/hackathons", map[string]any{"name": "x", "team_size": -1}, 400, "team_size"},
		{"CreateHackathon/BadJSON", "POST", "/v1/hackathons", "not-an-object", 400, "invalid JSON body"},
		{"GetHackathon/NotFound", "GET", "/v1/hackathons/hk-nope", nil, 404, "not found"},
		{"Register/UnknownHackathon", "POST", "/v1/hackathons/hk-nope/participants", map[string]any{"profile": map[string]any{"name": "A", "email": "a@example.com"}}, 404, ""},
		{"Register/MissingEmail", "POST", "/v1/hackathons/" + hid + "/participants", map[string]any{"profile": map[string]any{"name": "A"}}, 400, "email"},
		{"Register/UnknownAnswer", "POST", "/v1/hackathons/" + hid + "/participants", map[string]any{"profile": map[string]any{"name": "A", "email": "a@example.com"}, "answers": map[string]any{"age": 30}}, 400, "unknown field"},
		{"GetParticipant/NotFound", "GET", "/v1/participants/pt-nope", nil, 404, ""},
		{"SetStatus/Invalid", "PATCH", "/v1/participants/pt-nope/status", map[string]any{"status": "maybe"}, 400, "invalid status"},
		{"SetStatus/NotFound", "PATCH", "/v1/participants/pt-nope/status", map[string]any{"status": "approved"}, 404, ""},
		{"ListParticipants/BadStatus", "GET", "/v1/hackathons/" + hid + "/participants?status=maybe", nil, 400, "invalid status"},
		{"SetRules/BadOperator", "PUT", "/v1/hackathons/" + hid + "/rules", map[string]any{"enabled": true, "rules": []any{map[string]any{"field_id": "age", "operator": "between", "value": "1", "action": "accept"}}}, 400, "operator"},
		{"SetRules/OrderingNotNumber", "PUT", "/v1/hackathons/" + hid + "/rules", map[string]any{"enabled": true, "rules": []any{map[string]any{"field_id": "age", "operator": "greater_than", "value": "old", "action": "accept"}}}, 400, "value"},
		{"SetRules/EqualsMissingValue", "PUT", "/v1/hackathons/" + hid + "/rules", map[string]any{"enabled": true, "rules": []any{map[string]any{"field_id": "city", "operator": "equals", "action": "accept"}}}, 400, "rules[0].value: is required"},
		{"SetRules/OrderingNaN", "PUT", "/v1/hackathons/" + hid + "/rules", map[string]any{"enabled": true, "rules": []any{map[string]any{"field_id": "age", "operator": "greater_than", "value": "NaN", "action": "accept"}}}, 400, "finite"},
		{"SetFormFields/BadType", "PUT", "/v1/hackathons/" + hid + "/form-fields", map[string]any{"fields": []any{map[string]any{"id": "x", "label": "X", "type": "colour"}}}, 400, "type"},
		{"ApplyClassification/BadAction", "POST", "/v1/hackathons/" + hid + "/classify/apply", map[string]any{"action": "maybe", "status": "approved"}, 400, "invalid action"},
		{"ApplyClassification/PendingTarget", "POST", "/v1/hackathons/" + hid + "/classify/apply", map[string]any{"action": "accept", "status": "pending"}, 400, ""},
		{"Plan/NotFound", "POST", "/v1/hackathons/hk-nope/plan", nil, 404, ""},
		{"CreateTeam/MissingName", "POST", "/v1/hackathons/" + hid + "/teams", map[string]any{}, 400, "name is required"},
		{"GetTeam/NotFound", "GET", "/v1/teams/tm-nope", nil, 404, ""},
		{"DeleteTeam/NotFound", "DELETE", "/v1/teams/tm-nope", nil, 404, ""},
		{"StageTransfer/NoOperator", "POST", "/v1/hackathons/" + hid + "/transfers", map[string]any{"participant_id": "pt-x", "to_team_id": "tm-x"}, 400, "X-Operator"},
		{"ConfirmTransfers/NoOperator", "POST", "/v1/hackathons/" + hid + "/transfers/confirm", nil, 400, "X-Operator"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, tc.method, tc.path, tc.body)
			requireStatus(t, rec, tc.code)
			if tc.wantError != "" {
				var resp map[string]any
				decodeJSON(t, rec, &resp)
				if msg, _ := resp["error"].(string); !strings.Contains(msg, tc.wantError) {
					t.Fatalf("error = %q, want it to contain %q", msg, tc.wantError)
				}
			}
		})
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"input", inputError("bad"), 400},
		{"validation", &model.ValidationError{Errors: []model.FieldError{{Field: "name", Message: "is required"}}}, 400},
		{"not found", fmt.Errorf("team x: %w", sql.ErrNoRows), 404},
		{"conflict", fmt.Errorf("add: %w", store.ErrConflict), 409},
		{"other", errors.New("boom"), 500},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := httpStatus(tc.err); got != tc.want {
				t.Fatalf("httpStatus = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHandleCreateHackathon_DefaultsTeamSize(t *testing.T) {
	_, ms, h := newTestServer()
	rec := doAs(t, h, "amal", "POST", "/v1/hackathons", map[string]any{"name": "  Riyadh Hack  "})
	requireStatus(t, rec, http.StatusCreated)

	var out model.Hackathon
	decodeJSON(t, rec, &out)
	if out.Name != "Riyadh Hack" || out.TeamSize != model.DefaultTeamSize {
		t.Fatalf("got %+v", out)
	}
	if !strings.HasPrefix(out.ID, "hk-") {
		t.Fatalf("id = %q, want hk- prefix", out.ID)
	}
	if len(ms.events) != 1 || ms.events[0].Topic != events.TopicHackathonCreated || ms.events[0].Actor != "amal" {
		t.Fatalf("events = %+v", ms.events)
	}

	rec = doJSON(t, h, "GET", "/v1/hackathons", nil)
	requireStatus(t, rec, http.StatusOK)
	var list struct {
		Hackathons []model.Hackathon `json:"hackathons"`
	}
	decodeJSON(t, rec, &list)
	if len(list.Hackathons) != 1 || list.Hackathons[0].ID != out.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestHandleRegisterParticipant(t *testing.T) {
	_, ms, h := newTestServer()
	hid := seedHackathon(t, h, "Reg", 3)

	rec := doJSON(t, h, "PUT", "/v1/hackathons/"+hid+"/form-fields", map[string]any{
		"fields": []any{
			map[string]any{"id": "age", "label": "Age", "type": "number", "required": true},
			map[string]any{"id": "track", "label": "Track", "type": "select", "options": []string{"AI", "Web"}},
		},
	})
	requireStatus(t, rec, http.StatusOK)

	t.Run("missing required answer", func(t *testing.T) {
		rec := doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/participants", map[string]any{
			"profile": map[string]any{"name": "Sara", "email": "sara@example.com"},
		})
		requireStatus(t, rec, http.StatusBadRequest)
		var resp struct {
			Fields []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"fields"`
		}
		decodeJSON(t, rec, &resp)
		if len(resp.Fields) != 1 || resp.Fields[0].Field != "age" {
			t.Fatalf("fields = %+v", resp.Fields)
		}
	})

	t.Run("option outside the list", func(t *testing.T) {
		rec := doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/participants", map[string]any{
			"profile": map[string]any{"name": "Sara", "email": "sara@example.com"},
			"answers": map[string]any{"age": 30, "track": "Games"},
		})
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("ok", func(t *testing.T) {
		rec := doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/participants", map[string]any{
			"profile":        map[string]any{"name": "Sara", "email": " Sara@Example.com "},
			"preferred_role": "Designer",
			"answers":        map[string]any{"age": map[string]any{"label": "Age", "value": 30}, "track": "AI"},
		})
		requireStatus(t, rec, http.StatusCreated)
		var p model.Participant
		decodeJSON(t, rec, &p)
		if p.Status != model.StatusPending || p.Profile.Email != "sara@example.com" || p.PreferredRole != "Designer" {
			t.Fatalf("got %+v", p)
		}
		if got := p.Answers["track"].Value.String(); got != "AI" {
			t.Fatalf("track = %q", got)
		}
		if ms.participants[p.ID] == nil {
			t.Fatal("participant not stored")
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/participants", map[string]any{
			"profile": map[string]any{"name": "Sara Again", "email": "sara@example.com"},
			"answers": map[string]any{"age": 31},
		})
		requireStatus(t, rec, http.StatusConflict)
	})
}

func TestHandleListParticipants_Filters(t *testing.T) {
	_, _, h := newTestServer()
	hid := seedHackathon(t, h, "List", 3)
	a := seedParticipant(t, h, hid, "Ali", "", nil)
	seedParticipant(t, h, hid, "Badr", "", nil)
	seedParticipant(t, h, hid, "Ceren", "", nil)

	requireStatus(t, doJSON(t, h, "PATCH", "/v1/participants/"+a.ID+"/status", map[string]any{"status": "approved"}), http.StatusOK)

	for _, tc := range []struct {
		query string
		want  int
		total int
	}{
		{"", 3, 3},
		{"?status=approved", 1, 1},
		{"?status=pending,rejected", 2, 2},
		{"?search=bad", 1, 1},
		{"?limit=2", 2, 3},
		{"?limit=2&offset=2", 1, 3},
		{"?unassigned=true", 3, 3},
	} {
		t.Run(tc.query, func(t *testing.T) {
			rec := doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/participants"+tc.query, nil)
			requireStatus(t, rec, http.StatusOK)
			var out struct {
				Participants []model.Participant `json:"participants"`
				Total        int                 `json:"total"`
			}
			decodeJSON(t, rec, &out)
			if len(out.Participants) != tc.want || out.Total != tc.total {
				t.Fatalf("got %d participants (total %d), want %d (total %d)", len(out.Participants), out.Total, tc.want, tc.total)
			}
		})
	}
}

func TestHandleSetParticipantStatus_RecordsEvent(t *testing.T) {
	_, ms, h := newTestServer()
	hid := seedHackathon(t, h, "Status", 3)
	p := seedParticipant(t, h, hid, "Dana", "", nil)

	rec := doAs(t, h, "omar", "PATCH", "/v1/participants/"+p.ID+"/status", map[string]any{"status": "rejected"})
	requireStatus(t, rec, http.StatusOK)
	var out model.Participant
	decodeJSON(t, rec, &out)
	if out.Status != model.StatusRejected {
		t.Fatalf("status = %q", out.Status)
	}

	last := ms.events[len(ms.events)-1]
	if last.Topic != events.TopicParticipantStatus || last.SubjectID != p.ID || last.Actor != "omar" {
		t.Fatalf("last event = %+v", last)
	}

	rec = doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/events?limit=1", nil)
	requireStatus(t, rec, http.StatusOK)
	var evts struct {
		Events []model.Event `json:"events"`
	}
	decodeJSON(t, rec, &evts)
	if len(evts.Events) != 1 || evts.Events[0].Topic != events.TopicParticipantStatus {
		t.Fatalf("events = %+v", evts.Events)
	}
}

func TestHandleRules_MissingValueNotStored(t *testing.T) {
	_, _, h := newTestServer()
	hid := seedHackathon(t, h, "Rules", 3)

	rec := doJSON(t, h, "PUT", "/v1/hackathons/"+hid+"/rules", map[string]any{
		"enabled": true,
		"rules": []any{
			map[string]any{"field_id": "city", "operator": "equals", "value": "Riyadh", "action": "accept"},
			map[string]any{"field_id": "city", "operator": "not_equals", "value": nil, "action": "reject"},
		},
	})
	requireStatus(t, rec, http.StatusBadRequest)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	if msg, _ := resp["error"].(string); !strings.Contains(msg, "rules[1].value") {
		t.Fatalf("error = %q, want it to name rules[1].value", msg)
	}

	rec = doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/rules", nil)
	requireStatus(t, rec, http.StatusOK)
	var rs model.RuleSet
	decodeJSON(t, rec, &rs)
	if len(rs.Rules) != 0 {
		t.Fatalf("rejected rule set was stored: %+v", rs.Rules)
	}
}

func TestHandleRules_RoundTrip(t *testing.T) {
	_, _, h := newTestServer()
	hid := seedHackathon(t, h, "Rules", 3)

	rec := doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/rules", nil)
	requireStatus(t, rec, http.StatusOK)
	var rs model.RuleSet
	decodeJSON(t, rec, &rs)
	if !rs.Enabled || len(rs.Rules) != 0 {
		t.Fatalf("default rule set = %+v", rs)
	}

	rec = doJSON(t, h, "PUT", "/v1/hackathons/"+hid+"/rules", map[string]any{
		"enabled": true,
		"rules": []any{
			map[string]any{"field_id": "city", "operator": "in", "value": []string{"Riyadh", "Jeddah"}, "action": "accept"},
			map[string]any{"id": "young", "field_id": "age", "operator": "less_than", "value": "18", "action": "reject"},
		},
	})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/rules", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &rs)
	if len(rs.Rules) != 2 || rs.Rules[0].ID != "rule-1" || rs.Rules[1].ID != "young" {
		t.Fatalf("rules = %+v", rs.Rules)
	}
	if !rs.Rules[0].Value.IsSet || len(rs.Rules[0].Value.Set) != 2 {
		t.Fatalf("set value lost: %+v", rs.Rules[0].Value)
	}

	rec = doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/form-fields", nil)
	requireStatus(t, rec, http.StatusOK)
	var ff struct {
		Fields        []model.FormField `json:"fields"`
		ProfileFields []model.FormField `json:"profile_fields"`
	}
	decodeJSON(t, rec, &ff)
	if len(ff.Fields) != 0 || len(ff.ProfileFields) != len(model.ProfileFields) {
		t.Fatalf("form fields = %+v", ff)
	}
}

func TestHandleTeams_CRUD(t *testing.T) {
	_, ms, h := newTestServer()
	hid := seedHackathon(t, h, "Teams", 3)
	p := seedParticipant(t, h, hid, "Eda", "", nil)

	rec := doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/teams", map[string]any{"name": "Falcons"})
	requireStatus(t, rec, http.StatusCreated)
	var team model.Team
	decodeJSON(t, rec, &team)
	if !strings.HasPrefix(team.ID, "tm-") || team.Name != "Falcons" {
		t.Fatalf("team = %+v", team)
	}

	requireStatus(t, doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/teams", map[string]any{"name": "Falcons"}), http.StatusConflict)

	rec = doJSON(t, h, "PATCH", "/v1/teams/"+team.ID, map[string]any{
		"links": map[string]any{"repository": "https://example.com/falcons"},
	})
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &team)
	if team.Name != "Falcons" || team.Links.Repository != "https://example.com/falcons" {
		t.Fatalf("patched team = %+v", team)
	}

	if err := ms.AddMember(context.Background(), team.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	rec = doJSON(t, h, "GET", "/v1/teams/"+team.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &team)
	if len(team.Members) != 1 || team.Members[0].ParticipantID != p.ID {
		t.Fatalf("members = %+v", team.Members)
	}

	requireStatus(t, doJSON(t, h, "DELETE", "/v1/teams/"+team.ID+"/members/pt-other", nil), http.StatusBadRequest)
	requireStatus(t, doJSON(t, h, "DELETE", "/v1/teams/"+team.ID+"/members/"+p.ID, nil), http.StatusNoContent)
	if ms.participants[p.ID].HasTeam() {
		t.Fatal("participant still on a team")
	}

	requireStatus(t, doJSON(t, h, "DELETE", "/v1/teams/"+team.ID, nil), http.StatusNoContent)
	rec = doJSON(t, h, "GET", "/v1/hackathons/"+hid+"/teams", nil)
	requireStatus(t, rec, http.StatusOK)
	var list struct {
		Teams []model.Team `json:"teams"`
	}
	decodeJSON(t, rec, &list)
	if len(list.Teams) != 0 {
		t.Fatalf("teams = %+v", list.Teams)
	}
}

func TestHandlePlanTeams(t *testing.T) {
	_, ms, h := newTestServer()
	hid := seedHackathon(t, h, "Plan", 2)

	rec := doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/plan", nil)
	requireStatus(t, rec, http.StatusOK)
	var plan model.TeamPlan
	decodeJSON(t, rec, &plan)
	if len(plan.Teams) != 0 {
		t.Fatalf("empty hackathon planned %d teams", len(plan.Teams))
	}

	for _, name := range []string{"A1", "A2", "A3"} {
		p := seedParticipant(t, h, hid, name, "", nil)
		requireStatus(t, doJSON(t, h, "PATCH", "/v1/participants/"+p.ID+"/status", map[string]any{"status": "approved"}), http.StatusOK)
	}

	requireStatus(t, doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/plan", map[string]any{"team_size": -1}), http.StatusBadRequest)

	rec = doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/plan", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &plan)
	if len(plan.Teams) != 2 || plan.Size() != 3 {
		t.Fatalf("plan = %+v", plan)
	}
	if len(ms.teams) != 0 {
		t.Fatal("preview persisted teams")
	}

	rec = doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/plan/apply", map[string]any{"team_size": 3})
	requireStatus(t, rec, http.StatusCreated)
	var applied struct {
		Teams []model.Team `json:"teams"`
	}
	decodeJSON(t, rec, &applied)
	if len(applied.Teams) != 1 || applied.Teams[0].Name != "Team 1" || len(applied.Teams[0].Members) != 3 {
		t.Fatalf("applied = %+v", applied.Teams)
	}

	// Everyone is placed; a second apply has nothing left to plan.
	rec = doJSON(t, h, "POST", "/v1/hackathons/"+hid+"/plan/apply", nil)
	requireStatus(t, rec, http.StatusCreated)
	decodeJSON(t, rec, &applied)
	if len(applied.Teams) != 0 {
		t.Fatalf("second apply created %d teams", len(applied.Teams))
	}
}

func TestHandleTransfers_NotifyOnConfirm(t *testing.T) {
	_, ms, notifier, h := newTestServerWithNotifier()
	hid := seedHackathon(t, h, "Moves", 2)
	p := seedParticipant(t, h, hid, "Fatima", "", nil)
	from := createTeam(t, h, hid, "North")
	to := createTeam(t, h, hid, "South")
	if err := ms.AddMember(context.Background(), from, p.ID); err != nil {
		t.Fatal(err)
	}

	rec := doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers", map[string]any{"participant_id": p.ID, "to_team_id": to})
	requireStatus(t, rec, http.StatusCreated)
	var pt model.PendingTransfer
	decodeJSON(t, rec, &pt)
	if pt.FromTeamName != "North" || pt.ToTeamName != "South" || pt.Email != p.Profile.Email {
		t.Fatalf("pending = %+v", pt)
	}
	if ms.participants[p.ID].TeamID != to {
		t.Fatal("move not applied immediately")
	}

	// Same team is refused.
	rec = doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers", map[string]any{"participant_id": p.ID, "to_team_id": to})
	requireStatus(t, rec, http.StatusBadRequest)

	// Another operator's queue is separate.
	rec = doAs(t, h, "omar", "GET", "/v1/hackathons/"+hid+"/transfers", nil)
	requireStatus(t, rec, http.StatusOK)
	var q transferQueue
	decodeJSON(t, rec, &q)
	if q.State != "idle" || len(q.Transfers) != 0 {
		t.Fatalf("omar queue = %+v", q)
	}

	rec = doAs(t, h, "amal", "GET", "/v1/hackathons/"+hid+"/transfers", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &q)
	if q.State != "staged" || len(q.Transfers) != 1 {
		t.Fatalf("amal queue = %+v", q)
	}

	rec = doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/confirm", nil)
	requireStatus(t, rec, http.StatusOK)
	var res model.DispatchResult
	decodeJSON(t, rec, &res)
	if res.Message != "1 transfer notification(s) sent" {
		t.Fatalf("message = %q", res.Message)
	}
	if len(notifier.batches) != 1 || notifier.batches[0][0].ParticipantID != p.ID {
		t.Fatalf("batches = %+v", notifier.batches)
	}

	rec = doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/confirm", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &res)
	if res.Message != "no pending transfers" {
		t.Fatalf("empty confirm message = %q", res.Message)
	}
	if !slices.Contains(ms.topics(), events.TopicTransferConfirmed) {
		t.Fatalf("topics = %v", ms.topics())
	}
}

func TestHandleTransfers_ConfirmFailureKeepsQueue(t *testing.T) {
	_, ms, notifier, h := newTestServerWithNotifier()
	hid := seedHackathon(t, h, "Moves", 2)
	p := seedParticipant(t, h, hid, "Gul", "", nil)
	from := createTeam(t, h, hid, "North")
	to := createTeam(t, h, hid, "South")
	_ = ms.AddMember(context.Background(), from, p.ID)

	requireStatus(t, doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers", map[string]any{"participant_id": p.ID, "to_team_id": to}), http.StatusCreated)

	notifier.err = errors.New("smtp down")
	rec := doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/confirm", nil)
	requireStatus(t, rec, http.StatusBadGateway)
	var resp struct {
		Error string        `json:"error"`
		Queue transferQueue `json:"queue"`
	}
	decodeJSON(t, rec, &resp)
	if !strings.Contains(resp.Error, "smtp down") || len(resp.Queue.Transfers) != 1 {
		t.Fatalf("resp = %+v", resp)
	}

	notifier.err = nil
	requireStatus(t, doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/confirm", nil), http.StatusOK)
	if len(notifier.batches) != 1 {
		t.Fatalf("batches = %d", len(notifier.batches))
	}
}

func TestHandleTransfers_CancelAndRevert(t *testing.T) {
	_, ms, notifier, h := newTestServerWithNotifier()
	hid := seedHackathon(t, h, "Moves", 2)
	p1 := seedParticipant(t, h, hid, "Hana", "", nil)
	p2 := seedParticipant(t, h, hid, "Idris", "", nil)
	north := createTeam(t, h, hid, "North")
	south := createTeam(t, h, hid, "South")
	_ = ms.AddMember(context.Background(), north, p1.ID)
	_ = ms.AddMember(context.Background(), north, p2.ID)

	stage := func(pid string) {
		t.Helper()
		requireStatus(t, doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers", map[string]any{"participant_id": pid, "to_team_id": south}), http.StatusCreated)
	}

	t.Run("cancel keeps moves", func(t *testing.T) {
		stage(p1.ID)
		rec := doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/cancel", nil)
		requireStatus(t, rec, http.StatusOK)
		var out struct {
			Discarded []model.PendingTransfer `json:"discarded"`
		}
		decodeJSON(t, rec, &out)
		if len(out.Discarded) != 1 {
			t.Fatalf("discarded = %+v", out.Discarded)
		}
		if ms.participants[p1.ID].TeamID != south {
			t.Fatal("cancel undid the move")
		}
		if len(notifier.batches) != 0 {
			t.Fatal("cancel sent notifications")
		}
	})

	t.Run("revert restores newest first", func(t *testing.T) {
		stage(p2.ID)
		var order []string
		ms.moveErr = func(_, pid, _ string) error {
			order = append(order, pid)
			return nil
		}
		defer func() { ms.moveErr = nil }()

		rec := doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/revert", nil)
		requireStatus(t, rec, http.StatusOK)
		var out struct {
			Reverted int `json:"reverted"`
		}
		decodeJSON(t, rec, &out)
		if out.Reverted != 1 || ms.participants[p2.ID].TeamID != north {
			t.Fatalf("reverted = %d, team = %s", out.Reverted, ms.participants[p2.ID].TeamID)
		}
		if len(order) != 1 || order[0] != p2.ID {
			t.Fatalf("revert order = %v", order)
		}
	})

	t.Run("revert stops at first failure", func(t *testing.T) {
		stage(p2.ID)
		ms.moveErr = func(_, pid, _ string) error {
			if pid == p2.ID {
				return errors.New("locked")
			}
			return nil
		}
		defer func() { ms.moveErr = nil }()

		rec := doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers/revert", nil)
		requireStatus(t, rec, http.StatusInternalServerError)
		var out struct {
			Reverted int           `json:"reverted"`
			Queue    transferQueue `json:"queue"`
		}
		decodeJSON(t, rec, &out)
		if out.Reverted != 0 || len(out.Queue.Transfers) != 1 {
			t.Fatalf("out = %+v", out)
		}
	})
}

func TestHandleListSessions(t *testing.T) {
	_, ms, h := newTestServer()
	hid := seedHackathon(t, h, "Sessions", 2)
	p := seedParticipant(t, h, hid, "Jana", "", nil)
	from := createTeam(t, h, hid, "North")
	to := createTeam(t, h, hid, "South")
	_ = ms.AddMember(context.Background(), from, p.ID)

	requireStatus(t, doAs(t, h, "amal", "POST", "/v1/hackathons/"+hid+"/transfers", map[string]any{"participant_id": p.ID, "to_team_id": to}), http.StatusCreated)

	rec := doJSON(t, h, "GET", "/v1/sessions?hackathon="+hid, nil)
	requireStatus(t, rec, http.StatusOK)
	var out struct {
		Sessions []struct {
			Operator    string `json:"operator"`
			HackathonID string `json:"hackathon_id"`
			Pending     int    `json:"pending"`
		} `json:"sessions"`
	}
	decodeJSON(t, rec, &out)
	if len(out.Sessions) != 1 || out.Sessions[0].Operator != "amal" || out.Sessions[0].Pending != 1 {
		t.Fatalf("sessions = %+v", out.Sessions)
	}

	rec = doJSON(t, h, "GET", "/v1/sessions?hackathon=hk-other", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &out)
	if len(out.Sessions) != 0 {
		t.Fatalf("sessions for other hackathon = %+v", out.Sessions)
	}
}

func TestNewHTTPHandler_Auth(t *testing.T) {
	s := NewHackopsServer(newMockStore(), &events.NoopPublisher{}, &recordingNotifier{})
	h := s.NewHTTPHandler("secret")

	requireStatus(t, doJSON(t, h, "GET", "/v1/health", nil), http.StatusOK)
	requireStatus(t, doJSON(t, h, "GET", "/v1/hackathons", nil), http.StatusUnauthorized)

	req := httptest.NewRequest("GET", "/v1/hackathons", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
}

func createTeam(t *testing.T, h http.Handler, hackathonID, name string) string {
	t.Helper()
	rec := doJSON(t, h, "POST", "/v1/hackathons/"+hackathonID+"/teams", map[string]any{"name": name})
	requireStatus(t, rec, http.StatusCreated)
	var team model.Team
	decodeJSON(t, rec, &team)
	return team.ID
}
