package store

import (
	"testing"

	"github.com/lazypower/binder/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCapConfigDefaults(t *testing.T) {
	db := newTestDB(t)

	c, err := db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultCaps(), c)
}

func TestSetCapConfigRoundTrip(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SetCapConfig(engine.CapConfig{InboxCap: 15, TaskCap: 45}))
	c, err := db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.CapConfig{InboxCap: 15, TaskCap: 45}, c)

	// Second write replaces the single row.
	require.NoError(t, db.SetCapConfig(engine.CapConfig{InboxCap: 10, TaskCap: 15}))
	c, err = db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.CapConfig{InboxCap: 10, TaskCap: 15}, c)

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cap_config").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSetCapConfigRejectsOutOfRange(t *testing.T) {
	db := newTestDB(t)

	err := db.SetCapConfig(engine.CapConfig{InboxCap: 31, TaskCap: 30})
	assert.ErrorIs(t, err, engine.ErrInvalidCaps)

	c, err := db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultCaps(), c, "rejected write must not persist")
}

func TestGetCapConfigInvalidRowFallsBack(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO cap_config (id, inbox_cap, task_cap, updated_at) VALUES (1, 500, 5, 0)")
	require.NoError(t, err)

	c, err := db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultCaps(), c)
}

func TestSeedCapConfig(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SeedCapConfig(engine.CapConfig{InboxCap: 12, TaskCap: 20}))
	c, err := db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.CapConfig{InboxCap: 12, TaskCap: 20}, c)

	// Seeding never overwrites an existing row.
	require.NoError(t, db.SeedCapConfig(engine.CapConfig{InboxCap: 30, TaskCap: 50}))
	c, err = db.GetCapConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.CapConfig{InboxCap: 12, TaskCap: 20}, c)
}
