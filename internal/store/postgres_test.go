package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

var actionColumns = []string{"id", "uri", "kind", "message", "fields", "created_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS actions`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordAction(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO actions`).
		WithArgs(pgxmock.AnyArg(), "ui://record/form/1", "save", "msg", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a := &Action{URI: "ui://record/form/1", Kind: "save", Message: "msg", Fields: map[string]string{"Id": "1"}}
	require.NoError(t, s.RecordAction(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordAction_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO actions`).
		WillReturnError(errors.New("connection reset"))

	err := s.RecordAction(context.Background(), &Action{ID: "a1", URI: "u", Kind: "cancel"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert action a1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAction(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, uri, kind, message, fields, created_at FROM actions WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(actionColumns).
			AddRow("a1", "ui://record/form/1", "save", "msg", []byte(`{"Stage":"Won"}`), now))

	a, err := s.GetAction(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "save", a.Kind)
	assert.Equal(t, map[string]string{"Stage": "Won"}, a.Fields)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAction_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, uri, kind, message, fields, created_at FROM actions WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListActions(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM actions WHERE true AND uri = \$1 AND kind = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("ui://record/form/1", "save", 5).
		WillReturnRows(pgxmock.NewRows(actionColumns).
			AddRow("a2", "ui://record/form/1", "save", "m2", []byte(`{"Id":"1"}`), now).
			AddRow("a1", "ui://record/form/1", "save", "m1", []byte(nil), now.Add(-time.Minute)))

	got, err := s.ListActions(context.Background(), ActionFilter{URI: "ui://record/form/1", Kind: "save", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID)
	assert.Nil(t, got[1].Fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListActions_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM actions WHERE true ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows(actionColumns))

	got, err := s.ListActions(context.Background(), ActionFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
