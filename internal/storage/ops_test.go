package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuseek/indexcore/internal/storage"
	"github.com/docuseek/indexcore/internal/storage/storagetest"
)

type testValue struct {
	storage.StoredValue
	Name string `json:"name"`
}

func TestGetPut(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		client := server.Client(t)

		err := storage.NewPutOp(client, "/roundtrip/a", &testValue{Name: "a"}).Exec(ctx)
		require.NoError(t, err)

		val, err := storage.NewGetOp[*testValue](client, "/roundtrip/a").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a", val.Name)
		assert.Equal(t, int64(1), val.Version())
	})

	t.Run("get of a missing key returns ErrNotFound", func(t *testing.T) {
		client := server.Client(t)

		_, err := storage.NewGetOp[*testValue](client, "/missing").Exec(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("get prefix returns values in key order", func(t *testing.T) {
		client := server.Client(t)

		for _, name := range []string{"b", "a", "c"} {
			err := storage.NewPutOp(client, storage.Key("prefix", name), &testValue{Name: name}).Exec(ctx)
			require.NoError(t, err)
		}

		vals, err := storage.NewGetPrefixOp[*testValue](client, storage.Prefix("prefix")).Exec(ctx)
		require.NoError(t, err)
		require.Len(t, vals, 3)
		assert.Equal(t, "a", vals[0].Name)
		assert.Equal(t, "b", vals[1].Name)
		assert.Equal(t, "c", vals[2].Name)
	})

	t.Run("create fails on an existing key", func(t *testing.T) {
		client := server.Client(t)

		require.NoError(t, storage.NewCreateOp(client, "/create/a", &testValue{Name: "a"}).Exec(ctx))

		err := storage.NewCreateOp(client, "/create/a", &testValue{Name: "b"}).Exec(ctx)
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})

	t.Run("update enforces the value version", func(t *testing.T) {
		client := server.Client(t)

		require.NoError(t, storage.NewPutOp(client, "/update/a", &testValue{Name: "a"}).Exec(ctx))

		stale := &testValue{Name: "stale"}
		err := storage.NewUpdateOp(client, "/update/a", stale).Exec(ctx)
		assert.ErrorIs(t, err, storage.ErrValueVersionMismatch)

		current, err := storage.NewGetOp[*testValue](client, "/update/a").Exec(ctx)
		require.NoError(t, err)
		current.Name = "fresh"
		require.NoError(t, storage.NewUpdateOp(client, "/update/a", current).Exec(ctx))

		val, err := storage.NewGetOp[*testValue](client, "/update/a").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", val.Name)
	})
}

func TestDeleteOps(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("delete key reports the deleted count", func(t *testing.T) {
		client := server.Client(t)

		require.NoError(t, storage.NewPutOp(client, "/del/a", &testValue{Name: "a"}).Exec(ctx))

		deleted, err := storage.NewDeleteKeyOp(client, "/del/a").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = storage.NewDeleteKeyOp(client, "/del/a").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})

	t.Run("delete prefix removes every value under it", func(t *testing.T) {
		client := server.Client(t)

		for _, name := range []string{"a", "b"} {
			require.NoError(t, storage.NewPutOp(client, storage.Key("delprefix", name), &testValue{Name: name}).Exec(ctx))
		}
		require.NoError(t, storage.NewPutOp(client, "/other/a", &testValue{Name: "kept"}).Exec(ctx))

		deleted, err := storage.NewDeletePrefixOp(client, storage.Prefix("delprefix")).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		_, err = storage.NewGetOp[*testValue](client, "/other/a").Exec(ctx)
		assert.NoError(t, err)
	})
}

func TestTxn(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("commits all operations together", func(t *testing.T) {
		client := server.Client(t)

		err := storage.NewTxn(client,
			storage.NewPutOp(client, "/txn/a", &testValue{Name: "a"}),
			storage.NewPutOp(client, "/txn/b", &testValue{Name: "b"}),
		).Commit(ctx)
		require.NoError(t, err)

		vals, err := storage.NewGetPrefixOp[*testValue](client, "/txn").Exec(ctx)
		require.NoError(t, err)
		assert.Len(t, vals, 2)
	})

	t.Run("a failed constraint fails the whole transaction", func(t *testing.T) {
		client := server.Client(t)

		require.NoError(t, storage.NewPutOp(client, "/txnfail/existing", &testValue{Name: "a"}).Exec(ctx))

		err := storage.NewTxn(client,
			storage.NewPutOp(client, "/txnfail/new", &testValue{Name: "b"}),
			storage.NewCreateOp(client, "/txnfail/existing", &testValue{Name: "c"}),
		).Commit(ctx)
		assert.ErrorIs(t, err, storage.ErrOperationConstraintViolated)

		_, err = storage.NewGetOp[*testValue](client, "/txnfail/new").Exec(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate keys are rejected before committing", func(t *testing.T) {
		client := server.Client(t)

		err := storage.NewTxn(client,
			storage.NewPutOp(client, "/txndup/a", &testValue{Name: "a"}),
			storage.NewPutOp(client, "/txndup/a", &testValue{Name: "b"}),
		).Commit(ctx)
		assert.ErrorIs(t, err, storage.ErrDuplicateKeysInTransaction)
	})
}

func TestWatch(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("streams puts and deletes under a prefix", func(t *testing.T) {
		client := server.Client(t)

		watch := storage.NewWatchPrefixOp[*testValue](client, storage.Prefix("watched"))
		defer watch.Close()

		var mu sync.Mutex
		var events []*storage.Event[*testValue]
		err := watch.Watch(ctx, func(e *storage.Event[*testValue]) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		})
		require.NoError(t, err)

		require.NoError(t, storage.NewPutOp(client, storage.Key("watched", "a"), &testValue{Name: "a"}).Exec(ctx))
		_, err = storage.NewDeleteKeyOp(client, storage.Key("watched", "a")).Exec(ctx)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(events) == 2
		}, 10*time.Second, 10*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, storage.EventTypePut, events[0].Type)
		assert.True(t, events[0].IsCreate)
		assert.Equal(t, "a", events[0].Value.Name)
		assert.Equal(t, storage.EventTypeDelete, events[1].Type)
	})

	t.Run("watching twice on the same op fails", func(t *testing.T) {
		client := server.Client(t)

		watch := storage.NewWatchOp[*testValue](client, "/watchonce")
		defer watch.Close()

		require.NoError(t, watch.Watch(ctx, func(*storage.Event[*testValue]) {}))
		assert.ErrorIs(t, watch.Watch(ctx, func(*storage.Event[*testValue]) {}), storage.ErrWatchClosed)
	})
}
