package index_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuseek/indexcore/internal/index"
	"github.com/docuseek/indexcore/internal/storage/storagetest"
	"github.com/docuseek/indexcore/internal/testutils"
)

func TestLoadStageState(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	newTracker := func(t *testing.T, root string) (*index.StageTracker, *index.StageStateStore) {
		store := index.NewStageStateStore(server.Client(t), root)
		return index.NewStageTracker(store, testutils.Logger(t)), store
	}

	t.Run("first observation creates the record at version 1", func(t *testing.T) {
		tracker, store := newTracker(t, "first")

		decision, state, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, nil)
		require.NoError(t, err)

		assert.Equal(t, index.Decision{Version: "1", Changed: true}, decision)
		require.NotNil(t, state)
		assert.Equal(t, "stage-1", state.StageID)
		idx, ok := state.Index()
		require.True(t, ok)
		assert.Equal(t, int64(1), idx)

		stored, err := store.Get("stage-1").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(5), stored.Attributes["schemaVersion"])
		assert.WithinDuration(t, time.Now(), stored.ModifiedOn, time.Minute)
	})

	t.Run("unchanged value keeps the version and does not bump", func(t *testing.T) {
		tracker, _ := newTracker(t, "unchanged")

		_, state, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, nil)
		require.NoError(t, err)

		decision, _, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, state)
		require.NoError(t, err)

		assert.Equal(t, index.Decision{Version: "1", Changed: false}, decision)
	})

	t.Run("changed value bumps the counter by exactly one", func(t *testing.T) {
		tracker, _ := newTracker(t, "changed")

		_, state, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, nil)
		require.NoError(t, err)

		decision, state, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 7, state)
		require.NoError(t, err)
		assert.Equal(t, index.Decision{Version: "2", Changed: true}, decision)

		// The returned state is refreshed and usable for further calls.
		decision, _, err = tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 7, state)
		require.NoError(t, err)
		assert.Equal(t, index.Decision{Version: "2", Changed: false}, decision)
	})

	t.Run("fields are tracked independently within a stage", func(t *testing.T) {
		tracker, store := newTracker(t, "fields")

		_, state, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, nil)
		require.NoError(t, err)

		decision, state, err := tracker.LoadStageState(ctx, "stage-1", "mappingHash", "abc", state)
		require.NoError(t, err)
		assert.Equal(t, index.Decision{Version: "2", Changed: true}, decision)

		// The first field's value survives the second field's write.
		stored, err := store.Get("stage-1").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(5), stored.Attributes["schemaVersion"])
		assert.Equal(t, "abc", stored.Attributes["mappingHash"])

		decision, _, err = tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, state)
		require.NoError(t, err)
		assert.Equal(t, index.Decision{Version: "2", Changed: false}, decision)
	})

	t.Run("deep equality ignores key order and numeric type", func(t *testing.T) {
		tracker, _ := newTracker(t, "deep")

		value := map[string]any{"a": 1, "b": []any{"x", "y"}}
		_, state, err := tracker.LoadStageState(ctx, "stage-1", "mapping", value, nil)
		require.NoError(t, err)

		// Same content, different Go types after a storage round trip.
		same := map[string]any{"b": []any{"x", "y"}, "a": float64(1)}
		decision, state, err := tracker.LoadStageState(ctx, "stage-1", "mapping", same, state)
		require.NoError(t, err)
		assert.False(t, decision.Changed)

		reordered := map[string]any{"a": 1, "b": []any{"y", "x"}}
		decision, _, err = tracker.LoadStageState(ctx, "stage-1", "mapping", reordered, state)
		require.NoError(t, err)
		assert.True(t, decision.Changed)
	})

	t.Run("stages do not interfere", func(t *testing.T) {
		tracker, _ := newTracker(t, "isolation")

		_, _, err := tracker.LoadStageState(ctx, "stage-1", "schemaVersion", 5, nil)
		require.NoError(t, err)

		decision, _, err := tracker.LoadStageState(ctx, "stage-2", "schemaVersion", 5, nil)
		require.NoError(t, err)
		assert.Equal(t, index.Decision{Version: "1", Changed: true}, decision)
	})
}

func TestStageStateStoreList(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	store := index.NewStageStateStore(server.Client(t), "list")

	for _, id := range []string{"stage-a", "stage-b"} {
		err := store.Put(&index.StoredStageState{
			StageID:    id,
			Attributes: map[string]any{"index": 1},
			ModifiedOn: time.Now(),
		}).Exec(ctx)
		require.NoError(t, err)
	}

	states, err := store.List().Exec(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "stage-a", states[0].StageID)
	assert.Equal(t, "stage-b", states[1].StageID)
}
