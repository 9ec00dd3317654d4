package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_action": `INSERT INTO actions (id, uri, kind, message, fields, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_action":    `SELECT id, uri, kind, message, fields, created_at FROM actions WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if maxConns > 0 {
		pgxCfg.MaxConns = maxConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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
CREATE TABLE IF NOT EXISTS actions (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	uri        TEXT NOT NULL,
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	fields     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_actions_uri ON actions(uri);
CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at DESC);
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

func (s *PostgresStore) RecordAction(ctx context.Context, a *Action) error {
	prepareAction(a)

	fieldsJSON, err := marshalFields(a.Fields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal fields")
	}

	_, err = s.pool.Exec(ctx, preparedStatements["insert_action"],
		a.ID, a.URI, a.Kind, a.Message, fieldsJSON, a.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert action %s", a.ID)
	}
	return nil
}

func (s *PostgresStore) GetAction(ctx context.Context, id string) (*Action, error) {
	row := s.pool.QueryRow(ctx, preparedStatements["get_action"], id)
	a, err := scanPostgresAction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get action %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get action %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListActions(ctx context.Context, filter ActionFilter) ([]Action, error) {
	query := `SELECT id, uri, kind, message, fields, created_at FROM actions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.URI != "" {
		query += fmt.Sprintf(` AND uri = $%d`, argIdx)
		args = append(args, filter.URI)
		argIdx++
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list actions")
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		a, err := scanPostgresAction(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan action")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate actions")
}

func scanPostgresAction(row pgx.Row) (*Action, error) {
	var a Action
	var fields []byte
	if err := row.Scan(&a.ID, &a.URI, &a.Kind, &a.Message, &fields, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &a.Fields); err != nil {
			return nil, eris.Wrap(err, "unmarshal fields")
		}
	}
	return &a, nil
}
