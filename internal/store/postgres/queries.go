package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/store"
)

// participantColumns is the column list used for SELECT statements on
// participants joined with their team membership.
const participantColumns = `p.id, p.hackathon_id, p.status, tm.team_id, p.preferred_role,
	p.name, p.email, p.phone, p.city, p.nationality, p.answers,
	p.created_at, p.updated_at`

const participantFrom = ` FROM participants p LEFT JOIN team_members tm ON tm.participant_id = p.id`

const hackathonColumns = `id, name, team_size, created_at, updated_at`

const teamColumns = `id, hackathon_id, name, links, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// mapConflict turns a unique-constraint violation into store.ErrConflict.
func mapConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Message)
	}
	return err
}

// requireAffected returns sql.ErrNoRows when a write touched nothing.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Hackathons

func queryCreateHackathon(ctx context.Context, db executor, h *model.Hackathon) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO hackathons (id, name, team_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		h.ID, h.Name, h.TeamSize, h.CreatedAt, h.UpdatedAt,
	)
	return mapConflict(err)
}

func queryGetHackathon(ctx context.Context, db executor, id string) (*model.Hackathon, error) {
	row := db.QueryRowContext(ctx, `SELECT `+hackathonColumns+` FROM hackathons WHERE id = $1`, id)
	return scanHackathon(row)
}

func queryListHackathons(ctx context.Context, db executor) ([]*model.Hackathon, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+hackathonColumns+` FROM hackathons ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Hackathon
	for rows.Next() {
		h, err := scanHackathon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func queryGetHackathonView(ctx context.Context, db executor, id string) (*model.HackathonView, error) {
	h, err := queryGetHackathon(ctx, db, id)
	if err != nil {
		return nil, err
	}
	participants, _, err := queryListParticipants(ctx, db, model.ParticipantFilter{HackathonID: id})
	if err != nil {
		return nil, fmt.Errorf("view participants: %w", err)
	}
	teams, err := queryListTeams(ctx, db, id)
	if err != nil {
		return nil, fmt.Errorf("view teams: %w", err)
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	if teams == nil {
		teams = []*model.Team{}
	}
	return &model.HackathonView{
		Hackathon:    h,
		Participants: participants,
		Teams:        teams,
		Stats:        model.ComputeStats(participants, teams),
	}, nil
}

// Participants

func queryCreateParticipant(ctx context.Context, db executor, p *model.Participant) error {
	answers, err := answersJSON(p.Answers)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO participants (
			id, hackathon_id, status, preferred_role,
			name, email, phone, city, nationality, answers,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID,
		p.HackathonID,
		string(p.Status),
		nullString(p.PreferredRole),
		p.Profile.Name,
		p.Profile.Email,
		nullString(p.Profile.Phone),
		nullString(p.Profile.City),
		nullString(p.Profile.Nationality),
		answers,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapConflict(err)
}

func queryGetParticipant(ctx context.Context, db executor, id string) (*model.Participant, error) {
	row := db.QueryRowContext(ctx, `SELECT `+participantColumns+participantFrom+` WHERE p.id = $1`, id)
	return scanParticipant(row)
}

func queryListParticipants(ctx context.Context, db executor, filter model.ParticipantFilter) ([]*model.Participant, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.HackathonID != "" {
		whereClauses = append(whereClauses, "p.hackathon_id = "+nextArg())
		args = append(args, filter.HackathonID)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "p.status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.TeamID != "" {
		whereClauses = append(whereClauses, "tm.team_id = "+nextArg())
		args = append(args, filter.TeamID)
	} else if filter.Unassigned {
		whereClauses = append(whereClauses, "tm.team_id IS NULL")
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(p.name ILIKE '%%' || %s || '%%' OR p.email ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Registration order is the order the planner and engine see.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + participantColumns + participantFrom + whereSQL +
		" ORDER BY p.created_at ASC, p.id ASC"

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []*model.Participant
	var total int
	for rows.Next() {
		p, t, err := scanParticipantWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan participants: %w", err)
		}
		total = t
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan participants: %w", err)
	}

	return participants, total, nil
}

func queryUpdateParticipantStatus(ctx context.Context, db executor, id string, status model.Status) (*model.Participant, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE participants SET status = $2, updated_at = NOW()
		WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return queryGetParticipant(ctx, db, id)
}

func queryBulkUpdateStatus(ctx context.Context, db executor, ids []string, status model.Status) (*model.BulkResult, error) {
	if len(ids) == 0 {
		return &model.BulkResult{}, nil
	}
	res, err := db.ExecContext(ctx, `
		UPDATE participants SET status = $1, updated_at = NOW()
		WHERE id = ANY($2)`,
		string(status), pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("bulk update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	return &model.BulkResult{SuccessCount: int(n), FailureCount: len(ids) - int(n)}, nil
}

// Form fields and rule sets

func queryListFormFields(ctx context.Context, db executor, hackathonID string) ([]model.FormField, error) {
	var raw []byte
	err := db.QueryRowContext(ctx, `SELECT fields FROM form_fields WHERE hackathon_id = $1`, hackathonID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.FormField{}, nil
	}
	if err != nil {
		return nil, err
	}
	fields := []model.FormField{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode form fields: %w", err)
		}
	}
	return fields, nil
}

func querySetFormFields(ctx context.Context, db executor, hackathonID string, fields []model.FormField) error {
	if fields == nil {
		fields = []model.FormField{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode form fields: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO form_fields (hackathon_id, fields)
		VALUES ($1, $2)
		ON CONFLICT (hackathon_id) DO UPDATE SET fields = $2, updated_at = NOW()`,
		hackathonID, data,
	)
	return err
}

func queryGetRuleSet(ctx context.Context, db executor, hackathonID string) (*model.RuleSet, error) {
	rs := &model.RuleSet{HackathonID: hackathonID, Rules: []model.FilterRule{}}
	var raw []byte
	err := db.QueryRowContext(ctx, `
		SELECT enabled, rules, updated_at FROM rule_sets WHERE hackathon_id = $1`,
		hackathonID,
	).Scan(&rs.Enabled, &raw, &rs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// No rules configured yet: an enabled, empty rule set.
		rs.Enabled = true
		return rs, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rs.Rules); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
	}
	return rs, nil
}

func querySetRuleSet(ctx context.Context, db executor, rs *model.RuleSet) error {
	rules := rs.Rules
	if rules == nil {
		rules = []model.FilterRule{}
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return db.QueryRowContext(ctx, `
		INSERT INTO rule_sets (hackathon_id, enabled, rules)
		VALUES ($1, $2, $3)
		ON CONFLICT (hackathon_id) DO UPDATE SET enabled = $2, rules = $3, updated_at = NOW()
		RETURNING updated_at`,
		rs.HackathonID, rs.Enabled, data,
	).Scan(&rs.UpdatedAt)
}

// Teams

func queryCreateTeam(ctx context.Context, db executor, t *model.Team) error {
	links, err := linksJSON(t.Links)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO teams (id, hackathon_id, name, links, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.HackathonID, t.Name, links, t.CreatedAt,
	)
	return mapConflict(err)
}

func queryGetTeam(ctx context.Context, db executor, id string) (*model.Team, error) {
	row := db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT tm.team_id, tm.participant_id, p.name, p.email, p.preferred_role
		FROM team_members tm
		JOIN participants p ON p.id = tm.participant_id
		WHERE tm.team_id = $1
		ORDER BY tm.position ASC, tm.joined_at ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	defer rows.Close()

	members, err := scanMembers(rows)
	if err != nil {
		return nil, err
	}
	t.Members = members[id]
	if t.Members == nil {
		t.Members = []model.TeamMember{}
	}
	return t, nil
}

func queryListTeams(ctx context.Context, db executor, hackathonID string) ([]*model.Team, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE hackathon_id = $1
		ORDER BY created_at ASC, name ASC`,
		hackathonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan teams: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan teams: %w", err)
	}
	if len(teams) == 0 {
		return teams, nil
	}

	// Fetch all members of the hackathon's teams in one query (not per-team N+1).
	memberRows, err := db.QueryContext(ctx, `
		SELECT tm.team_id, tm.participant_id, p.name, p.email, p.preferred_role
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		JOIN participants p ON p.id = tm.participant_id
		WHERE t.hackathon_id = $1
		ORDER BY tm.team_id, tm.position ASC, tm.joined_at ASC`,
		hackathonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer memberRows.Close()

	members, err := scanMembers(memberRows)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		t.Members = members[t.ID]
		if t.Members == nil {
			t.Members = []model.TeamMember{}
		}
	}
	return teams, nil
}

func queryUpdateTeam(ctx context.Context, db executor, t *model.Team) error {
	links, err := linksJSON(t.Links)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE teams SET name = $2, links = $3
		WHERE id = $1`,
		t.ID, t.Name, links,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryDeleteTeam(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryAddMember(ctx context.Context, db executor, teamID, participantID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, participant_id, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position) + 1, 0) FROM team_members WHERE team_id = $1))`,
		teamID, participantID,
	)
	return mapConflict(err)
}

func queryMoveMember(ctx context.Context, db executor, fromTeamID, participantID, toTeamID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE team_members
		SET team_id = $3,
			position = (SELECT COALESCE(MAX(position) + 1, 0) FROM team_members WHERE team_id = $3),
			joined_at = NOW()
		WHERE team_id = $1 AND participant_id = $2`,
		fromTeamID, participantID, toTeamID,
	)
	if err != nil {
		return mapConflict(err)
	}
	return requireAffected(res)
}

func queryRemoveMember(ctx context.Context, db executor, teamID, participantID string) error {
	res, err := db.ExecContext(ctx, `
		DELETE FROM team_members
		WHERE team_id = $1 AND participant_id = $2`,
		teamID, participantID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Events

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, hackathon_id, subject_id, actor, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.Topic, e.HackathonID, nullString(e.SubjectID), nullString(e.Actor), jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryListEvents(ctx context.Context, db executor, hackathonID string, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, hackathon_id, subject_id, actor, payload, created_at
		FROM events
		WHERE hackathon_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		hackathonID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}
