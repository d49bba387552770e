package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ipartes/quote-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool used by PostgresStore; pgxmock
// satisfies it in tests.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool. Emails are a TEXT[] column.
type PostgresStore struct {
	pool    pgPool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS suppliers (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	manufacturer TEXT NOT NULL,
	emails       TEXT[] NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_suppliers_manufacturer ON suppliers(lower(manufacturer));
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, manufacturer, emails, created_at, updated_at FROM suppliers ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suppliers")
	}
	defer rows.Close()

	out := make([]model.Supplier, 0)
	for rows.Next() {
		var sup model.Supplier
		if err := rows.Scan(&sup.ID, &sup.Manufacturer, &sup.Emails, &sup.CreatedAt, &sup.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan supplier")
		}
		sup.Emails = model.NormalizeEmails(sup.Emails, "")
		out = append(out, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate suppliers")
	}
	return out, nil
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	var sup model.Supplier
	err := s.pool.QueryRow(ctx,
		`SELECT id, manufacturer, emails, created_at, updated_at FROM suppliers WHERE id = $1`, id,
	).Scan(&sup.ID, &sup.Manufacturer, &sup.Emails, &sup.CreatedAt, &sup.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get supplier %s", id)
	}
	sup.Emails = model.NormalizeEmails(sup.Emails, "")
	return &sup, nil
}

func (s *PostgresStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	emails := model.NormalizeEmails(sup.Emails, "")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO suppliers (id, manufacturer, emails, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, sup.Manufacturer, emails, now, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert supplier")
	}

	sup.ID = id
	sup.Emails = emails
	sup.CreatedAt = now
	sup.UpdatedAt = now
	return nil
}

func (s *PostgresStore) UpdateEmails(ctx context.Context, id string, emails []string, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE suppliers SET emails = $1, updated_at = $2 WHERE id = $3`,
		model.NormalizeEmails(emails, ""), updatedAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update supplier %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSupplier(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete supplier %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
