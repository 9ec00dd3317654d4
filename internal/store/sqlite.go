package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS actions (
	id         TEXT PRIMARY KEY,
	uri        TEXT NOT NULL,
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	fields     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_actions_uri ON actions(uri);
CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordAction(ctx context.Context, a *Action) error {
	prepareAction(a)

	fieldsJSON, err := marshalFields(a.Fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal fields")
	}
	var fieldsArg any
	if fieldsJSON != nil {
		fieldsArg = string(fieldsJSON)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO actions (id, uri, kind, message, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.URI, a.Kind, a.Message, fieldsArg, a.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert action %s", a.ID)
	}
	return nil
}

func (s *SQLiteStore) GetAction(ctx context.Context, id string) (*Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, uri, kind, message, fields, created_at FROM actions WHERE id = ?`, id,
	)
	a, err := scanSQLiteAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get action %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get action %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListActions(ctx context.Context, filter ActionFilter) ([]Action, error) {
	var where []string
	var args []any
	if filter.URI != "" {
		where = append(where, "uri = ?")
		args = append(args, filter.URI)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}

	query := `SELECT id, uri, kind, message, fields, created_at FROM actions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list actions")
	}
	defer rows.Close() //nolint:errcheck

	var out []Action
	for rows.Next() {
		a, err := scanSQLiteAction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan action")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate actions")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAction(row scanner) (*Action, error) {
	var a Action
	var fields sql.NullString
	if err := row.Scan(&a.ID, &a.URI, &a.Kind, &a.Message, &fields, &a.CreatedAt); err != nil {
		return nil, err
	}
	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &a.Fields); err != nil {
			return nil, eris.Wrap(err, "unmarshal fields")
		}
	}
	return &a, nil
}

func prepareAction(a *Action) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}

func marshalFields(fields map[string]string) ([]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	return json.Marshal(fields)
}
