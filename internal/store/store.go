package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repositories use. Tests supply a
// mock; production passes the real pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

var _ DB = (*pgxpool.Pool)(nil)

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	db DB

	Users       UserRepository
	Workspaces  WorkspaceRepository
	Events      EventRepository
	Todos       TodoRepository
	Invitations InvitationRepository
	Sessions    SessionRepository
}

// New wires concrete repository implementations with a shared connection
// pool.
func New(db DB) *Store {
	return &Store{
		db:          db,
		Users:       &userRepo{db: db},
		Workspaces:  &workspaceRepo{db: db},
		Events:      &eventRepo{db: db},
		Todos:       &todoRepo{db: db},
		Invitations: &invitationRepo{db: db},
		Sessions:    &sessionRepo{db: db},
	}
}

// BeginTx starts a transaction with default options.
func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	defer observeDB(ctx, "db.begin_tx")()
	return s.db.BeginTx(ctx, pgx.TxOptions{})
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.db.Ping(ctx)
}
