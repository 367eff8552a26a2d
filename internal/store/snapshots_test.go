package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lazypower/binder/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntropy(score float64, level engine.Level) engine.EntropyScore {
	return engine.EntropyScore{
		Score:         score,
		Level:         level,
		OpenTasks:     12,
		StaleCount:    3,
		ZeroLinkCount: 4,
		InboxCount:    7,
	}
}

func TestSaveEntropySnapshot(t *testing.T) {
	db := newTestDB(t)

	s, err := db.SaveEntropySnapshot(sampleEntropy(0.42, engine.LevelGreen), engine.DefaultCaps(), 1000)
	require.NoError(t, err)

	_, err = uuid.Parse(s.ID)
	assert.NoError(t, err, "snapshot id should be a uuid")
	assert.Equal(t, int64(1000), s.ComputedAt)
	assert.Equal(t, uint32(20), s.InboxCap)
	assert.Equal(t, uint32(30), s.TaskCap)

	list, err := db.ListEntropySnapshots(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *s, list[0])
}

func TestListEntropySnapshotsNewestFirst(t *testing.T) {
	db := newTestDB(t)

	for i, at := range []int64{100, 300, 200} {
		_, err := db.SaveEntropySnapshot(sampleEntropy(float64(i)/10, engine.LevelGreen), engine.DefaultCaps(), at)
		require.NoError(t, err)
	}

	list, err := db.ListEntropySnapshots(10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(300), list[0].ComputedAt)
	assert.Equal(t, int64(200), list[1].ComputedAt)
	assert.Equal(t, int64(100), list[2].ComputedAt)

	list, err = db.ListEntropySnapshots(2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListEntropySnapshotsEmpty(t *testing.T) {
	db := newTestDB(t)

	list, err := db.ListEntropySnapshots(0)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPruneEntropySnapshots(t *testing.T) {
	db := newTestDB(t)

	for _, at := range []int64{1, 2, 3, 4, 5} {
		_, err := db.SaveEntropySnapshot(sampleEntropy(0.9, engine.LevelRed), engine.DefaultCaps(), at)
		require.NoError(t, err)
	}

	removed, err := db.PruneEntropySnapshots(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	list, err := db.ListEntropySnapshots(10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(5), list[0].ComputedAt)
	assert.Equal(t, int64(4), list[1].ComputedAt)
}
