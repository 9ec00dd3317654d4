package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recordui/internal/config"
)

func TestInitStore(t *testing.T) {
	ctx := context.Background()

	st, err := initStore(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())

	_, err = initStore(ctx, config.StoreConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestInitSalesforce_Disabled(t *testing.T) {
	sf, err := initSalesforce(config.SalesforceConfig{})
	require.NoError(t, err)
	assert.Nil(t, sf)

	_, err = initSalesforce(config.SalesforceConfig{ClientID: "id", KeyPath: filepath.Join(t.TempDir(), "none.pem")})
	assert.Error(t, err)
}

func TestNewToolHandler_SectionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sections:\n  - title: Money\n    keywords: [amount]\n"), 0o644))

	c := &config.Config{Render: config.RenderConfig{SectionsFile: path}}
	h, r, err := newToolHandler(c)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Len(t, h.Definitions(), 3)

	c.Render.SectionsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = newToolHandler(c)
	assert.Error(t, err)
}
