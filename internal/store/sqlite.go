package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ipartes/quote-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Emails are kept as
// a JSON array in a TEXT column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "quote.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS suppliers (
	id           TEXT PRIMARY KEY,
	manufacturer TEXT NOT NULL,
	emails       TEXT NOT NULL DEFAULT '[]',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_suppliers_manufacturer ON suppliers(manufacturer);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, manufacturer, emails, created_at, updated_at FROM suppliers ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suppliers")
	}
	defer rows.Close()

	out := make([]model.Supplier, 0)
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan supplier")
		}
		out = append(out, *sup)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate suppliers")
}

func (s *SQLiteStore) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, manufacturer, emails, created_at, updated_at FROM suppliers WHERE id = ?`, id)
	sup, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get supplier %s", id)
	}
	return sup, nil
}

func (s *SQLiteStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	emails := model.NormalizeEmails(sup.Emails, "")

	emailsJSON, err := json.Marshal(emails)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal emails")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, manufacturer, emails, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, sup.Manufacturer, string(emailsJSON), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert supplier")
	}

	sup.ID = id
	sup.Emails = emails
	sup.CreatedAt = now
	sup.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateEmails(ctx context.Context, id string, emails []string, updatedAt time.Time) error {
	emailsJSON, err := json.Marshal(model.NormalizeEmails(emails, ""))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal emails")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE suppliers SET emails = ?, updated_at = ? WHERE id = ?`,
		string(emailsJSON), updatedAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update supplier %s", id)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete supplier %s", id)
	}
	return checkRowsAffected(res)
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSupplier(row scannable) (*model.Supplier, error) {
	var (
		sup        model.Supplier
		emailsJSON string
	)
	if err := row.Scan(&sup.ID, &sup.Manufacturer, &emailsJSON, &sup.CreatedAt, &sup.UpdatedAt); err != nil {
		return nil, err
	}

	var emails []string
	if emailsJSON != "" {
		if err := json.Unmarshal([]byte(emailsJSON), &emails); err != nil {
			return nil, eris.Wrap(err, "unmarshal emails")
		}
	}
	sup.Emails = model.NormalizeEmails(emails, "")
	return &sup, nil
}
