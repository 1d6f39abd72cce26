package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/hackops/internal/bulk"
	"github.com/alfredjeanlab/hackops/internal/classify"
	"github.com/alfredjeanlab/hackops/internal/events"
	"github.com/alfredjeanlab/hackops/internal/idgen"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/store"
	"github.com/alfredjeanlab/hackops/internal/teamplan"
)

// createHackathonInput holds transport-agnostic parameters for creating a
// hackathon.
type createHackathonInput struct {
	Name     string `json:"name"`
	TeamSize int    `json:"team_size"`
}

func (s *HackopsServer) createHackathon(ctx context.Context, in createHackathonInput, actor string) (*model.Hackathon, error) {
	if in.TeamSize == 0 {
		in.TeamSize = model.DefaultTeamSize
	}
	now := time.Now().UTC()
	h := &model.Hackathon{Name: strings.TrimSpace(in.Name), TeamSize: in.TeamSize, CreatedAt: now, UpdatedAt: now}
	if err := model.ValidateHackathon(h); err != nil {
		return nil, err
	}
	id, err := idgen.Hackathon()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	h.ID = id
	if err := s.store.CreateHackathon(ctx, h); err != nil {
		return nil, fmt.Errorf("create hackathon: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicHackathonCreated, h.ID, h.ID, actor, events.HackathonCreated{Hackathon: h})
	return h, nil
}

// registerParticipantInput is a registration submission.
type registerParticipantInput struct {
	Profile       model.Profile           `json:"profile"`
	PreferredRole string                  `json:"preferred_role"`
	Answers       map[string]model.Answer `json:"answers"`
}

// registerParticipant validates the profile and the answers against the
// hackathon's form, then persists a pending participant.
func (s *HackopsServer) registerParticipant(ctx context.Context, hackathonID string, in registerParticipantInput) (*model.Participant, error) {
	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fmt.Errorf("hackathon %s: %w", hackathonID, err)
	}

	now := time.Now().UTC()
	p := &model.Participant{
		HackathonID:   hackathonID,
		Status:        model.StatusPending,
		PreferredRole: strings.TrimSpace(in.PreferredRole),
		Profile:       in.Profile,
		Answers:       in.Answers,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Profile.Email = strings.TrimSpace(strings.ToLower(p.Profile.Email))
	if err := model.ValidateParticipant(p); err != nil {
		return nil, err
	}

	fields, err := s.store.ListFormFields(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	if err := model.ValidateAnswers(p.Answers, fields); err != nil {
		return nil, err
	}

	id, err := idgen.Participant()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	p.ID = id
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicParticipantRegistered, hackathonID, p.ID, p.Profile.Email, events.ParticipantRegistered{Participant: p})
	return p, nil
}

// setParticipantStatus is a manual approve/reject/reset of one participant.
func (s *HackopsServer) setParticipantStatus(ctx context.Context, id string, status model.Status, actor string) (*model.Participant, error) {
	if !status.IsValid() {
		return nil, inputError(fmt.Sprintf("invalid status %q", status))
	}
	p, err := s.store.UpdateParticipantStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update status of %s: %w", id, err)
	}
	s.recordAndPublish(ctx, events.TopicParticipantStatus, p.HackathonID, p.ID, actor, events.ParticipantStatusChanged{
		ParticipantID: p.ID,
		HackathonID:   p.HackathonID,
		Status:        status,
	})
	return p, nil
}

func (s *HackopsServer) setFormFields(ctx context.Context, hackathonID string, fields []model.FormField, actor string) error {
	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return fmt.Errorf("hackathon %s: %w", hackathonID, err)
	}
	if err := model.ValidateFormFields(fields); err != nil {
		return err
	}
	if err := s.store.SetFormFields(ctx, hackathonID, fields); err != nil {
		return fmt.Errorf("set form fields: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicFormFieldsUpdated, hackathonID, hackathonID, actor, events.FormFieldsUpdated{HackathonID: hackathonID, Fields: fields})
	return nil
}

// setRuleSet validates every rule before anything is written. Rules without
// an ID are given one from their position.
func (s *HackopsServer) setRuleSet(ctx context.Context, rs *model.RuleSet, actor string) error {
	if _, err := s.store.GetHackathon(ctx, rs.HackathonID); err != nil {
		return fmt.Errorf("hackathon %s: %w", rs.HackathonID, err)
	}
	for i := range rs.Rules {
		if rs.Rules[i].ID == "" {
			rs.Rules[i].ID = fmt.Sprintf("rule-%d", i+1)
		}
	}
	if err := model.ValidateRuleSet(rs); err != nil {
		return err
	}
	rs.UpdatedAt = time.Now().UTC()
	if err := s.store.SetRuleSet(ctx, rs); err != nil {
		return fmt.Errorf("set rule set: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicRulesUpdated, rs.HackathonID, rs.HackathonID, actor, events.RulesUpdated{RuleSet: rs})
	return nil
}

// classification is the result of one classification pass over a hackathon.
type classification struct {
	Enabled      bool                            `json:"enabled"`
	Participants []classify.AnnotatedParticipant `json:"participants"`
	Summary      classify.Summary                `json:"summary"`
}

// classifyHackathon annotates every participant with the outcome of the
// stored rule set. Nothing is persisted.
func (s *HackopsServer) classifyHackathon(ctx context.Context, hackathonID string) (*classification, error) {
	view, err := s.store.GetHackathonView(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("fetch hackathon %s: %w", hackathonID, err)
	}
	rs, err := s.store.GetRuleSet(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", err)
	}
	annotated := classify.Annotate(view.Participants, rs)
	if annotated == nil {
		annotated = []classify.AnnotatedParticipant{}
	}
	return &classification{
		Enabled:      rs.Enabled,
		Participants: annotated,
		Summary:      classify.Summarize(annotated),
	}, nil
}

// applyClassificationInput selects which outcome to act on and the status
// to move those participants to.
type applyClassificationInput struct {
	Action model.Action `json:"action"`
	Status model.Status `json:"status"`
}

// bulkResult is the bulk executor's result plus the classification summary
// it acted on.
type bulkResult struct {
	bulk.Result
	Summary classify.Summary `json:"summary"`
}

// applyClassification re-runs classification and moves every pending
// participant with the chosen outcome to the target status in one call.
func (s *HackopsServer) applyClassification(ctx context.Context, hackathonID string, in applyClassificationInput, actor string) (*bulkResult, error) {
	if !in.Action.IsValid() {
		return nil, inputError(fmt.Sprintf("invalid action %q", in.Action))
	}
	c, err := s.classifyHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	res, err := s.bulk.Apply(ctx, c.Participants, in.Action, in.Status)
	if err != nil {
		return nil, err
	}
	if !res.NothingToDo {
		s.recordAndPublish(ctx, events.TopicBulkStatusApplied, hackathonID, hackathonID, actor, events.BulkStatusApplied{
			HackathonID:    hackathonID,
			Action:         res.Action,
			Status:         res.Status,
			ParticipantIDs: res.ParticipantIDs,
			SuccessCount:   res.Updated.SuccessCount,
			FailureCount:   res.Updated.FailureCount,
		})
	}
	return &bulkResult{Result: *res, Summary: c.Summary}, nil
}

// planInput optionally overrides the hackathon's team size.
type planInput struct {
	TeamSize int `json:"team_size"`
}

func (s *HackopsServer) planTeams(ctx context.Context, hackathonID string, in planInput) (*model.TeamPlan, error) {
	view, err := s.store.GetHackathonView(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("fetch hackathon %s: %w", hackathonID, err)
	}
	size := in.TeamSize
	if size == 0 {
		size = view.Hackathon.TeamSize
	}
	return teamplan.Plan(view.Participants, size)
}

// applyPlan recomputes the plan and persists it in one transaction. The
// plan is recomputed rather than taken from the client so that teams only
// ever hold currently eligible participants.
func (s *HackopsServer) applyPlan(ctx context.Context, hackathonID string, in planInput, actor string) ([]*model.Team, error) {
	plan, err := s.planTeams(ctx, hackathonID, in)
	if err != nil {
		return nil, err
	}
	teams, err := store.CreateTeamsFromPlan(ctx, s.store, hackathonID, plan)
	if err != nil {
		return nil, fmt.Errorf("create teams from plan: %w", err)
	}
	for _, t := range teams {
		s.recordAndPublish(ctx, events.TopicTeamCreated, hackathonID, t.ID, actor, events.TeamCreated{Team: t})
	}
	if teams == nil {
		teams = []*model.Team{}
	}
	return teams, nil
}

// teamInput creates or updates a team. Nil fields are left unchanged on
// update.
type teamInput struct {
	Name  *string          `json:"name"`
	Links *model.TeamLinks `json:"links"`
}

func (s *HackopsServer) createTeam(ctx context.Context, hackathonID string, in teamInput, actor string) (*model.Team, error) {
	if in.Name == nil {
		return nil, inputError("name is required")
	}
	name := strings.TrimSpace(*in.Name)
	if err := model.ValidateTeamName(name); err != nil {
		return nil, err
	}
	if _, err := s.store.GetHackathon(ctx, hackathonID); err != nil {
		return nil, fmt.Errorf("hackathon %s: %w", hackathonID, err)
	}
	id, err := idgen.Team()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	t := &model.Team{ID: id, HackathonID: hackathonID, Name: name, Members: []model.TeamMember{}, CreatedAt: time.Now().UTC()}
	if in.Links != nil {
		t.Links = *in.Links
	}
	if err := s.store.CreateTeam(ctx, t); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicTeamCreated, hackathonID, t.ID, actor, events.TeamCreated{Team: t})
	return t, nil
}

func (s *HackopsServer) updateTeam(ctx context.Context, id string, in teamInput, actor string) (*model.Team, error) {
	t, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", id, err)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := model.ValidateTeamName(name); err != nil {
			return nil, err
		}
		t.Name = name
	}
	if in.Links != nil {
		t.Links = *in.Links
	}
	if err := s.store.UpdateTeam(ctx, t); err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicTeamUpdated, t.HackathonID, t.ID, actor, events.TeamUpdated{Team: t})
	return t, nil
}

// deleteTeam removes a team immediately; its members become team-less. It
// does not touch any operator's transfer queue.
func (s *HackopsServer) deleteTeam(ctx context.Context, id, actor string) error {
	t, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return fmt.Errorf("team %s: %w", id, err)
	}
	if err := s.store.DeleteTeam(ctx, id); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicTeamDeleted, t.HackathonID, t.ID, actor, events.TeamDeleted{TeamID: t.ID, HackathonID: t.HackathonID})
	return nil
}

// removeMember takes a participant off a team immediately.
func (s *HackopsServer) removeMember(ctx context.Context, teamID, participantID, actor string) error {
	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("team %s: %w", teamID, err)
	}
	if !t.HasMember(participantID) {
		return inputError(fmt.Sprintf("participant %s is not on team %s", participantID, teamID))
	}
	if err := s.store.RemoveMember(ctx, teamID, participantID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicTeamMemberRemoved, t.HackathonID, participantID, actor, events.TeamMemberRemoved{TeamID: teamID, ParticipantID: participantID})
	return nil
}

// stageTransferInput names the participant to move and the destination team.
// The source team is the participant's current team.
type stageTransferInput struct {
	ParticipantID string `json:"participant_id"`
	ToTeamID      string `json:"to_team_id"`
}

// stageTransfer applies a move through the operator's workflow and queues
// its notification.
func (s *HackopsServer) stageTransfer(ctx context.Context, operator, hackathonID string, in stageTransferInput) (*model.PendingTransfer, error) {
	if in.ParticipantID == "" || in.ToTeamID == "" {
		return nil, inputError("participant_id and to_team_id are required")
	}
	p, err := s.store.GetParticipant(ctx, in.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("participant %s: %w", in.ParticipantID, err)
	}
	if p.HackathonID != hackathonID {
		return nil, inputError(fmt.Sprintf("participant %s is not registered for %s", p.ID, hackathonID))
	}
	if !p.HasTeam() {
		return nil, inputError(fmt.Sprintf("participant %s is not on a team", p.ID))
	}
	from, err := s.store.GetTeam(ctx, p.TeamID)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", p.TeamID, err)
	}
	to, err := s.store.GetTeam(ctx, in.ToTeamID)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", in.ToTeamID, err)
	}
	if to.HackathonID != hackathonID {
		return nil, inputError(fmt.Sprintf("team %s belongs to another hackathon", to.ID))
	}

	pt, err := s.Sessions.Workflow(operator, hackathonID).StageMove(ctx, p, from, to)
	if err != nil {
		return nil, err
	}
	s.recordAndPublish(ctx, events.TopicTransferStaged, hackathonID, p.ID, operator, events.TransferStaged{
		HackathonID: hackathonID,
		Operator:    operator,
		Transfer:    pt,
	})
	return pt, nil
}

func (s *HackopsServer) confirmTransfers(ctx context.Context, operator, hackathonID string) (*model.DispatchResult, error) {
	wf := s.Sessions.Workflow(operator, hackathonID)
	batch := wf.Pending()
	res, err := wf.ConfirmAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(batch) > 0 {
		s.recordAndPublish(ctx, events.TopicTransferConfirmed, hackathonID, hackathonID, operator, events.TransfersSettled{
			HackathonID: hackathonID,
			Operator:    operator,
			Transfers:   batch,
			Count:       len(batch),
			Message:     res.Message,
		})
	}
	return res, nil
}

func (s *HackopsServer) cancelTransfers(ctx context.Context, operator, hackathonID string) []model.PendingTransfer {
	discarded := s.Sessions.Workflow(operator, hackathonID).CancelAll()
	if len(discarded) > 0 {
		s.recordAndPublish(ctx, events.TopicTransferCancelled, hackathonID, hackathonID, operator, events.TransfersSettled{
			HackathonID: hackathonID,
			Operator:    operator,
			Transfers:   discarded,
			Count:       len(discarded),
		})
	}
	return discarded
}

// revertTransfers undoes queued moves newest first. A partial revert is
// reported alongside the error.
func (s *HackopsServer) revertTransfers(ctx context.Context, operator, hackathonID string) (int, error) {
	n, err := s.Sessions.Workflow(operator, hackathonID).RevertAll(ctx)
	if n > 0 {
		s.recordAndPublish(ctx, events.TopicTransferReverted, hackathonID, hackathonID, operator, events.TransfersSettled{
			HackathonID: hackathonID,
			Operator:    operator,
			Count:       n,
		})
	}
	if err != nil {
		return n, fmt.Errorf("reverted %d transfer(s): %w", n, err)
	}
	return n, nil
}

// errOperatorRequired is returned when a transfer request has no operator.
var errOperatorRequired = inputError("X-Operator header is required")

func operatorOf(header string) (string, error) {
	op := strings.TrimSpace(header)
	if op == "" {
		return "", errOperatorRequired
	}
	return op, nil
}
