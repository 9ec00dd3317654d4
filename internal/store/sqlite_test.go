package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "actions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_RecordAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := &Action{
		URI:     "ui://record/form/006ABC",
		Kind:    "save",
		Message: `Update this field: Stage from "Prospecting" to "Won".`,
		Fields:  map[string]string{"Stage": "Won", "Id": "006ABC"},
	}
	require.NoError(t, s.RecordAction(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.GetAction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.URI, got.URI)
	assert.Equal(t, a.Kind, got.Kind)
	assert.Equal(t, a.Message, got.Message)
	assert.Equal(t, a.Fields, got.Fields)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLite_GetAction_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetAction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListActions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	for i, a := range []*Action{
		{URI: "ui://record/form/1", Kind: "cancel"},
		{URI: "ui://record/form/1", Kind: "save", Message: "m", Fields: map[string]string{"Id": "1"}},
		{URI: "ui://record/form/2", Kind: "save", Message: "m2", Fields: map[string]string{"Id": "2"}},
	} {
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.RecordAction(ctx, a))
	}

	all, err := s.ListActions(ctx, ActionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ui://record/form/2", all[0].URI, "newest first")
	assert.Nil(t, all[2].Fields)

	byURI, err := s.ListActions(ctx, ActionFilter{URI: "ui://record/form/1"})
	require.NoError(t, err)
	assert.Len(t, byURI, 2)

	saves, err := s.ListActions(ctx, ActionFilter{URI: "ui://record/form/1", Kind: "save"})
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, map[string]string{"Id": "1"}, saves[0].Fields)

	limited, err := s.ListActions(ctx, ActionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
