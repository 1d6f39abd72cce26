// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already-open database without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateHackathon(ctx context.Context, h *model.Hackathon) error {
	return queryCreateHackathon(ctx, s.db, h)
}

func (s *PostgresStore) GetHackathon(ctx context.Context, id string) (*model.Hackathon, error) {
	return queryGetHackathon(ctx, s.db, id)
}

func (s *PostgresStore) ListHackathons(ctx context.Context) ([]*model.Hackathon, error) {
	return queryListHackathons(ctx, s.db)
}

func (s *PostgresStore) GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error) {
	return queryGetHackathonView(ctx, s.db, id)
}

func (s *PostgresStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	return queryCreateParticipant(ctx, s.db, p)
}

func (s *PostgresStore) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	return queryGetParticipant(ctx, s.db, id)
}

func (s *PostgresStore) ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, int, error) {
	return queryListParticipants(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateParticipantStatus(ctx context.Context, id string, status model.Status) (*model.Participant, error) {
	return queryUpdateParticipantStatus(ctx, s.db, id, status)
}

func (s *PostgresStore) BulkUpdateStatus(ctx context.Context, ids []string, status model.Status) (*model.BulkResult, error) {
	return queryBulkUpdateStatus(ctx, s.db, ids, status)
}

func (s *PostgresStore) ListFormFields(ctx context.Context, hackathonID string) ([]model.FormField, error) {
	return queryListFormFields(ctx, s.db, hackathonID)
}

func (s *PostgresStore) SetFormFields(ctx context.Context, hackathonID string, fields []model.FormField) error {
	return querySetFormFields(ctx, s.db, hackathonID, fields)
}

func (s *PostgresStore) GetRuleSet(ctx context.Context, hackathonID string) (*model.RuleSet, error) {
	return queryGetRuleSet(ctx, s.db, hackathonID)
}

func (s *PostgresStore) SetRuleSet(ctx context.Context, rs *model.RuleSet) error {
	return querySetRuleSet(ctx, s.db, rs)
}

func (s *PostgresStore) CreateTeam(ctx context.Context, t *model.Team) error {
	return queryCreateTeam(ctx, s.db, t)
}

func (s *PostgresStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	return queryGetTeam(ctx, s.db, id)
}

func (s *PostgresStore) ListTeams(ctx context.Context, hackathonID string) ([]*model.Team, error) {
	return queryListTeams(ctx, s.db, hackathonID)
}

func (s *PostgresStore) UpdateTeam(ctx context.Context, t *model.Team) error {
	return queryUpdateTeam(ctx, s.db, t)
}

func (s *PostgresStore) DeleteTeam(ctx context.Context, id string) error {
	return queryDeleteTeam(ctx, s.db, id)
}

func (s *PostgresStore) AddMember(ctx context.Context, teamID, participantID string) error {
	return queryAddMember(ctx, s.db, teamID, participantID)
}

func (s *PostgresStore) MoveMember(ctx context.Context, fromTeamID, participantID, toTeamID string) error {
	return queryMoveMember(ctx, s.db, fromTeamID, participantID, toTeamID)
}

func (s *PostgresStore) RemoveMember(ctx context.Context, teamID, participantID string) error {
	return queryRemoveMember(ctx, s.db, teamID, participantID)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) ListEvents(ctx context.Context, hackathonID string, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, hackathonID, limit)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateHackathon(ctx context.Context, h *model.Hackathon) error {
	return queryCreateHackathon(ctx, s.tx, h)
}

func (s *txStore) GetHackathon(ctx context.Context, id string) (*model.Hackathon, error) {
	return queryGetHackathon(ctx, s.tx, id)
}

func (s *txStore) ListHackathons(ctx context.Context) ([]*model.Hackathon, error) {
	return queryListHackathons(ctx, s.tx)
}

func (s *txStore) GetHackathonView(ctx context.Context, id string) (*model.HackathonView, error) {
	return queryGetHackathonView(ctx, s.tx, id)
}

func (s *txStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	return queryCreateParticipant(ctx, s.tx, p)
}

func (s *txStore) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	return queryGetParticipant(ctx, s.tx, id)
}

func (s *txStore) ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, int, error) {
	return queryListParticipants(ctx, s.tx, filter)
}

func (s *txStore) UpdateParticipantStatus(ctx context.Context, id string, status model.Status) (*model.Participant, error) {
	return queryUpdateParticipantStatus(ctx, s.tx, id, status)
}

func (s *txStore) BulkUpdateStatus(ctx context.Context, ids []string, status model.Status) (*model.BulkResult, error) {
	return queryBulkUpdateStatus(ctx, s.tx, ids, status)
}

func (s *txStore) ListFormFields(ctx context.Context, hackathonID string) ([]model.FormField, error) {
	return queryListFormFields(ctx, s.tx, hackathonID)
}

func (s *txStore) SetFormFields(ctx context.Context, hackathonID string, fields []model.FormField) error {
	return querySetFormFields(ctx, s.tx, hackathonID, fields)
}

func (s *txStore) GetRuleSet(ctx context.Context, hackathonID string) (*model.RuleSet, error) {
	return queryGetRuleSet(ctx, s.tx, hackathonID)
}

func (s *txStore) SetRuleSet(ctx context.Context, rs *model.RuleSet) error {
	return querySetRuleSet(ctx, s.tx, rs)
}

func (s *txStore) CreateTeam(ctx context.Context, t *model.Team) error {
	return queryCreateTeam(ctx, s.tx, t)
}

func (s *txStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	return queryGetTeam(ctx, s.tx, id)
}

func (s *txStore) ListTeams(ctx context.Context, hackathonID string) ([]*model.Team, error) {
	return queryListTeams(ctx, s.tx, hackathonID)
}

func (s *txStore) UpdateTeam(ctx context.Context, t *model.Team) error {
	return queryUpdateTeam(ctx, s.tx, t)
}

func (s *txStore) DeleteTeam(ctx context.Context, id string) error {
	return queryDeleteTeam(ctx, s.tx, id)
}

func (s *txStore) AddMember(ctx context.Context, teamID, participantID string) error {
	return queryAddMember(ctx, s.tx, teamID, participantID)
}

func (s *txStore) MoveMember(ctx context.Context, fromTeamID, participantID, toTeamID string) error {
	return queryMoveMember(ctx, s.tx, fromTeamID, participantID, toTeamID)
}

func (s *txStore) RemoveMember(ctx context.Context, teamID, participantID string) error {
	return queryRemoveMember(ctx, s.tx, teamID, participantID)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) ListEvents(ctx context.Context, hackathonID string, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.tx, hackathonID, limit)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
