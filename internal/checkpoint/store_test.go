package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimesis/internal/model"
)

func testRecord(sweepID string, combo, replicate int, outcome model.Outcome) model.ExperimentRecord {
	return model.ExperimentRecord{
		SweepID:    sweepID,
		ComboIndex: combo,
		Replicate:  replicate,
		Params:     map[string]any{"adoption_rate": 0.5, "network": "complete"},
		Outcome:    outcome,
		Steps:      12,
		Success:    outcome == model.OutcomeFixatedAdaptive,
	}
}

func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	// Idempotent re-init.
	require.NoError(t, store.Init(ctx))

	_, found, err := store.GetRecord(ctx, Key{SweepID: "s1", ComboIndex: 0, Replicate: 0})
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveRecord(ctx, testRecord("s1", 0, 0, model.OutcomeFixatedAdaptive)))
	require.NoError(t, store.SaveRecord(ctx, testRecord("s1", 0, 1, model.OutcomeTimedOut)))
	require.NoError(t, store.SaveRecord(ctx, testRecord("s1", 1, 0, model.OutcomeFailed)))
	require.NoError(t, store.SaveRecord(ctx, testRecord("s2", 0, 0, model.OutcomeFixatedLegacy)))

	record, found, err := store.GetRecord(ctx, Key{SweepID: "s1", ComboIndex: 0, Replicate: 0})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.OutcomeFixatedAdaptive, record.Outcome)
	assert.True(t, record.Success)
	assert.Equal(t, 0.5, record.Params["adoption_rate"])
	assert.Equal(t, "complete", record.Params["network"])

	// Upsert replaces in place, no duplicate row.
	require.NoError(t, store.SaveRecord(ctx, testRecord("s1", 0, 0, model.OutcomeTimedOut)))
	records, err := store.Records(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, model.OutcomeTimedOut, records[0].Outcome)

	// Records come back ordered by combination then replicate.
	assert.Equal(t, 0, records[0].ComboIndex)
	assert.Equal(t, 1, records[1].Replicate)
	assert.Equal(t, 1, records[2].ComboIndex)

	// Failed replicates still count as completed.
	keys, err := store.CompletedKeys(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
	assert.Contains(t, keys, Key{SweepID: "s1", ComboIndex: 1, Replicate: 0})

	ids, err := store.SweepIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	defer store.Close()
	runStoreSuite(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	store := NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveRecord(ctx, testRecord("s1", 2, 3, model.OutcomeFixatedAdaptive)))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	defer reopened.Close()

	record, found, err := reopened.GetRecord(ctx, Key{SweepID: "s1", ComboIndex: 2, Replicate: 3})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 12, record.Steps)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	err := store.Init(context.Background())
	require.ErrorIs(t, err, ErrCheckpoint)
}

func TestFactory(t *testing.T) {
	store, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("sqlite", filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	assert.NoError(t, CloseIfSupported(store))

	_, err = NewStore("parquet", "")
	require.ErrorIs(t, err, ErrCheckpoint)
}
