// Package store persists user actions reported by record artifacts.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when an action does not exist.
var ErrNotFound = eris.New("store: not found")

// Action is one user decision taken inside an artifact.
type Action struct {
	ID        string            `json:"id"`
	URI       string            `json:"uri"`
	Kind      string            `json:"kind"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ActionFilter specifies criteria for listing actions.
type ActionFilter struct {
	URI   string `json:"uri,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

const defaultListLimit = 100

func (f ActionFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for the action log.
type Store interface {
	// RecordAction assigns ID and CreatedAt when unset and persists a.
	RecordAction(ctx context.Context, a *Action) error
	GetAction(ctx context.Context, id string) (*Action, error)
	// ListActions returns matching actions, newest first.
	ListActions(ctx context.Context, filter ActionFilter) ([]Action, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}
