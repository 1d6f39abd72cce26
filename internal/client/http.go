package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// HTTPClient implements HackopsClient using the hackops HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	operator   string
	httpClient *http.Client
}

var _ HackopsClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request. operator is sent as X-Operator and
// scopes the transfer endpoints.
func NewHTTPClient(baseURL, token, operator string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		operator:   operator,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func hackathonPath(id string, rest ...string) string {
	p := "/v1/hackathons/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// --- Hackathons ---

func (c *HTTPClient) CreateHackathon(ctx context.Context, name string, teamSize int) (*model.Hackathon, error) {
	body := map[string]any{"name": name}
	if teamSize != 0 {
		body["team_size"] = teamSize
	}
	var h model.Hackathon
	if err := c.doJSON(ctx, http.MethodPost, "/v1/hackathons", body, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *HTTPClient) ListHackathons(ctx context.Context) ([]*model.Hackathon, error) {
	var resp struct {
		Hackathons []*model.Hackathon `json:"hackathons"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/hackathons", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hackathons, nil
}

func (c *HTTPClient) GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error) {
	var view model.HackathonView
	if err := c.doJSON(ctx, http.MethodGet, hackathonPath(id), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context, hackathonID string, limit int) ([]*model.Event, error) {
	path := hackathonPath(hackathonID, "events")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Participants ---

func (c *HTTPClient) RegisterParticipant(ctx context.Context, hackathonID string, req *RegisterRequest) (*model.Participant, error) {
	var p model.Participant
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "participants"), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ListParticipants(ctx context.Context, hackathonID string, req *ListParticipantsRequest) (*ListParticipantsResponse, error) {
	q := url.Values{}
	if len(req.Status) > 0 {
		q.Set("status", strings.Join(req.Status, ","))
	}
	if req.TeamID != "" {
		q.Set("team", req.TeamID)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Unassigned {
		q.Set("unassigned", "true")
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := hackathonPath(hackathonID, "participants")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListParticipantsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	var p model.Participant
	if err := c.doJSON(ctx, http.MethodGet, "/v1/participants/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) SetParticipantStatus(ctx context.Context, id string, status model.Status) (*model.Participant, error) {
	var p model.Participant
	body := map[string]model.Status{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/participants/"+url.PathEscape(id)+"/status", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Form fields and rules ---

func (c *HTTPClient) GetFormFields(ctx context.Context, hackathonID string) ([]model.FormField, error) {
	var resp struct {
		Fields []model.FormField `json:"fields"`
	}
	if err := c.doJSON(ctx, http.MethodGet, hackathonPath(hackathonID, "form-fields"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (c *HTTPClient) SetFormFields(ctx context.Context, hackathonID string, fields []model.FormField) ([]model.FormField, error) {
	var resp struct {
		Fields []model.FormField `json:"fields"`
	}
	body := map[string]any{"fields": fields}
	if err := c.doJSON(ctx, http.MethodPut, hackathonPath(hackathonID, "form-fields"), body, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (c *HTTPClient) GetRuleSet(ctx context.Context, hackathonID string) (*model.RuleSet, error) {
	var rs model.RuleSet
	if err := c.doJSON(ctx, http.MethodGet, hackathonPath(hackathonID, "rules"), nil, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (c *HTTPClient) SetRuleSet(ctx context.Context, hackathonID string, rs *model.RuleSet) (*model.RuleSet, error) {
	var out model.RuleSet
	if err := c.doJSON(ctx, http.MethodPut, hackathonPath(hackathonID, "rules"), rs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Classify(ctx context.Context, hackathonID string) (*Classification, error) {
	var out Classification
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "classify"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ApplyClassification(ctx context.Context, hackathonID string, action model.Action, status model.Status) (*BulkResult, error) {
	body := map[string]string{"action": string(action), "status": string(status)}
	var out BulkResult
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "classify", "apply"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Teams ---

func planBody(teamSize int) any {
	if teamSize == 0 {
		return nil
	}
	return map[string]int{"team_size": teamSize}
}

func (c *HTTPClient) PlanTeams(ctx context.Context, hackathonID string, teamSize int) (*model.TeamPlan, error) {
	var plan model.TeamPlan
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "plan"), planBody(teamSize), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *HTTPClient) ApplyPlan(ctx context.Context, hackathonID string, teamSize int) ([]*model.Team, error) {
	var resp struct {
		Teams []*model.Team `json:"teams"`
	}
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "plan", "apply"), planBody(teamSize), &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

func (c *HTTPClient) ListTeams(ctx context.Context, hackathonID string) ([]*model.Team, error) {
	var resp struct {
		Teams []*model.Team `json:"teams"`
	}
	if err := c.doJSON(ctx, http.MethodGet, hackathonPath(hackathonID, "teams"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

func (c *HTTPClient) CreateTeam(ctx context.Context, hackathonID string, req *TeamRequest) (*model.Team, error) {
	var t model.Team
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "teams"), req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var t model.Team
	if err := c.doJSON(ctx, http.MethodGet, "/v1/teams/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) UpdateTeam(ctx context.Context, id string, req *TeamRequest) (*model.Team, error) {
	var t model.Team
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/teams/"+url.PathEscape(id), req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DeleteTeam(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/teams/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) RemoveMember(ctx context.Context, teamID, participantID string) error {
	path := "/v1/teams/" + url.PathEscape(teamID) + "/members/" + url.PathEscape(participantID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// --- Transfers ---

func (c *HTTPClient) StageTransfer(ctx context.Context, hackathonID, participantID, toTeamID string) (*model.PendingTransfer, error) {
	body := map[string]string{"participant_id": participantID, "to_team_id": toTeamID}
	var pt model.PendingTransfer
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "transfers"), body, &pt); err != nil {
		return nil, err
	}
	return &pt, nil
}

func (c *HTTPClient) ListTransfers(ctx context.Context, hackathonID string) (*TransferQueue, error) {
	var q TransferQueue
	if err := c.doJSON(ctx, http.MethodGet, hackathonPath(hackathonID, "transfers"), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *HTTPClient) ConfirmTransfers(ctx context.Context, hackathonID string) (*model.DispatchResult, error) {
	var res model.DispatchResult
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "transfers", "confirm"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) CancelTransfers(ctx context.Context, hackathonID string) ([]model.PendingTransfer, error) {
	var resp struct {
		Discarded []model.PendingTransfer `json:"discarded"`
	}
	if err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "transfers", "cancel"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Discarded, nil
}

// RevertTransfers returns the number of moves undone. On a partial revert
// the count is returned alongside the error.
func (c *HTTPClient) RevertTransfers(ctx context.Context, hackathonID string) (int, error) {
	var resp struct {
		Reverted int `json:"reverted"`
	}
	err := c.doJSON(ctx, http.MethodPost, hackathonPath(hackathonID, "transfers", "revert"), nil, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		_ = json.Unmarshal(apiErr.body, &resp)
	}
	return resp.Reverted, err
}

func (c *HTTPClient) ListSessions(ctx context.Context, hackathonID string) ([]Session, error) {
	path := "/v1/sessions"
	if hackathonID != "" {
		path += "?hackathon=" + url.QueryEscape(hackathonID)
	}
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError

	body []byte
}

// FieldError is one field-level validation failure reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.operator != "" {
		req.Header.Set("X-Operator", c.operator)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody), body: respBody}
		var errResp struct {
			Error  string       `json:"error"`
			Fields []FieldError `json:"fields"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Fields = errResp.Fields
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
