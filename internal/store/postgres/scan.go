package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/hackops/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// participantDest holds the nullable scan targets for a participant row.
type participantDest struct {
	teamID      sql.NullString
	role        sql.NullString
	phone       sql.NullString
	city        sql.NullString
	nationality sql.NullString
	answers     []byte
}

func (d *participantDest) targets(p *model.Participant) []any {
	return []any{
		&p.ID,
		&p.HackathonID,
		&p.Status,
		&d.teamID,
		&d.role,
		&p.Profile.Name,
		&p.Profile.Email,
		&d.phone,
		&d.city,
		&d.nationality,
		&d.answers,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func (d *participantDest) apply(p *model.Participant) error {
	p.TeamID = d.teamID.String
	p.PreferredRole = d.role.String
	p.Profile.Phone = d.phone.String
	p.Profile.City = d.city.String
	p.Profile.Nationality = d.nationality.String
	if len(d.answers) > 0 {
		if err := json.Unmarshal(d.answers, &p.Answers); err != nil {
			return fmt.Errorf("decode answers for %s: %w", p.ID, err)
		}
	}
	return nil
}

// scanParticipant scans a single row into a model.Participant.
// The row must contain columns in the order defined by participantColumns.
func scanParticipant(row scannable) (*model.Participant, error) {
	var p model.Participant
	var d participantDest
	if err := row.Scan(d.targets(&p)...); err != nil {
		return nil, err
	}
	if err := d.apply(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanParticipantWithTotal scans a row that has a leading total_count column
// followed by the standard participant columns. Used by
// queryListParticipants with COUNT(*) OVER().
func scanParticipantWithTotal(row scannable) (*model.Participant, int, error) {
	var total int
	var p model.Participant
	var d participantDest
	if err := row.Scan(append([]any{&total}, d.targets(&p)...)...); err != nil {
		return nil, 0, err
	}
	if err := d.apply(&p); err != nil {
		return nil, 0, err
	}
	return &p, total, nil
}

// scanHackathon scans a single row into a model.Hackathon.
func scanHackathon(row scannable) (*model.Hackathon, error) {
	var h model.Hackathon
	if err := row.Scan(&h.ID, &h.Name, &h.TeamSize, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// scanTeam scans a single row into a model.Team without members.
func scanTeam(row scannable) (*model.Team, error) {
	var t model.Team
	var links []byte
	if err := row.Scan(&t.ID, &t.HackathonID, &t.Name, &links, &t.CreatedAt); err != nil {
		return nil, err
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &t.Links); err != nil {
			return nil, fmt.Errorf("decode links for %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

// scanMembers scans member rows (team_id, participant_id, name, email,
// role) into rosters keyed by team ID, preserving row order.
func scanMembers(rows *sql.Rows) (map[string][]model.TeamMember, error) {
	out := make(map[string][]model.TeamMember)
	for rows.Next() {
		var teamID string
		var m model.TeamMember
		var role sql.NullString
		if err := rows.Scan(&teamID, &m.ParticipantID, &m.Name, &m.Email, &role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = role.String
		out[teamID] = append(out[teamID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	return out, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		subject sql.NullString
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.HackathonID, &subject, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.SubjectID = subject.String
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}

// answersJSON encodes a participant's answers for the JSONB column; an
// empty map is stored as NULL.
func answersJSON(answers map[string]model.Answer) ([]byte, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return data, nil
}

// linksJSON encodes team links; a team with no links is stored as NULL.
func linksJSON(l model.TeamLinks) ([]byte, error) {
	if l == (model.TeamLinks{}) {
		return nil, nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode links: %w", err)
	}
	return data, nil
}
