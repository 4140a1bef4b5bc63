package docstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuseek/indexcore/internal/docstore"
	"github.com/docuseek/indexcore/internal/storage"
	"github.com/docuseek/indexcore/internal/storage/storagetest"
	"github.com/docuseek/indexcore/internal/testutils"
)

func hashOf(s string) *string {
	return &s
}

func newStore(t *testing.T, server *storagetest.EtcdTestServer, root string) *docstore.EtcdStore {
	return docstore.NewEtcdStore(server.Client(t), root, testutils.Logger(t))
}

func seedPages(t *testing.T, ctx context.Context, store *docstore.EtcdStore) {
	t.Helper()

	docs := []*docstore.Document{
		{ID: "page-1", Class: "page", ContentHash: hashOf("h1"), Fields: map[string]any{"status": "open", "rank": 3}},
		{ID: "page-2", Class: "page", ContentHash: hashOf("h2"), Fields: map[string]any{"status": "open", "rank": 1}},
		{ID: "page-3", Class: "article", ContentHash: hashOf("h3"), Fields: map[string]any{"status": "closed", "rank": 2}},
	}
	require.NoError(t, store.InsertMany(ctx, "pages", docs))
}

func TestFind(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("empty filter matches everything", func(t *testing.T) {
		store := newStore(t, server, "find-all")
		seedPages(t, ctx, store)

		docs, err := store.Find(ctx, "pages", docstore.Filter{}, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("equality filter", func(t *testing.T) {
		store := newStore(t, server, "find-eq")
		seedPages(t, ctx, store)

		docs, err := store.Find(ctx, "pages", docstore.Filter{"status": "open"}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "page-1", docs[0].ID)
		assert.Equal(t, "page-2", docs[1].ID)
	})

	t.Run("reserved fields address metadata", func(t *testing.T) {
		store := newStore(t, server, "find-meta")
		seedPages(t, ctx, store)

		docs, err := store.Find(ctx, "pages", docstore.Filter{"class": "article"}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "page-3", docs[0].ID)

		docs, err = store.Find(ctx, "pages", docstore.Filter{"id": "page-2"}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
	})

	t.Run("sort and limit", func(t *testing.T) {
		store := newStore(t, server, "find-sort")
		seedPages(t, ctx, store)

		docs, err := store.Find(ctx, "pages", docstore.Filter{}, &docstore.FindOptions{
			Limit: 2,
			Sort:  []docstore.SortField{{Field: "rank", Desc: true}},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "page-1", docs[0].ID)
		assert.Equal(t, "page-3", docs[1].ID)
	})

	t.Run("unknown operator fails compilation", func(t *testing.T) {
		store := newStore(t, server, "find-op")

		_, err := store.Find(ctx, "pages", docstore.Filter{
			"status": map[string]any{"$frobnicate": 1},
		}, nil)
		assert.ErrorIs(t, err, docstore.ErrUnknownOperator)
	})

	t.Run("operator filters", func(t *testing.T) {
		store := newStore(t, server, "find-ops")
		seedPages(t, ctx, store)

		docs, err := store.Find(ctx, "pages", docstore.Filter{
			"rank": map[string]any{"$gte": 2},
		}, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 2)

		docs, err = store.Find(ctx, "pages", docstore.Filter{
			"id": map[string]any{"$regex": "(?i)^PAGE-1$"},
		}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "page-1", docs[0].ID)

		docs, err = store.Find(ctx, "pages", docstore.Filter{
			"status": map[string]any{"$in": []any{"closed", "archived"}},
		}, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

func TestCursor(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("pages through matches in key order", func(t *testing.T) {
		store := newStore(t, server, "cursor-order")
		seedPages(t, ctx, store)

		cursor, err := store.Cursor(ctx, "pages", docstore.Filter{"status": "open"}, nil)
		require.NoError(t, err)
		defer cursor.Close()

		batch, err := cursor.Next(ctx, 1)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, "page-1", batch[0].ID)

		batch, err = cursor.Next(ctx, 10)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, "page-2", batch[0].ID)

		batch, err = cursor.Next(ctx, 10)
		require.NoError(t, err)
		assert.Nil(t, batch)
	})

	t.Run("respects the limit option", func(t *testing.T) {
		store := newStore(t, server, "cursor-limit")
		seedPages(t, ctx, store)

		cursor, err := store.Cursor(ctx, "pages", docstore.Filter{}, &docstore.FindOptions{Limit: 2})
		require.NoError(t, err)
		defer cursor.Close()

		var total int
		for {
			batch, err := cursor.Next(ctx, 10)
			require.NoError(t, err)
			if batch == nil {
				break
			}
			total += len(batch)
		}
		assert.Equal(t, 2, total)
	})

	t.Run("sorted cursor materializes ordered results", func(t *testing.T) {
		store := newStore(t, server, "cursor-sort")
		seedPages(t, ctx, store)

		cursor, err := store.Cursor(ctx, "pages", docstore.Filter{}, &docstore.FindOptions{
			Sort: []docstore.SortField{{Field: "rank"}},
		})
		require.NoError(t, err)
		defer cursor.Close()

		batch, err := cursor.Next(ctx, 10)
		require.NoError(t, err)
		require.Len(t, batch, 3)
		assert.Equal(t, "page-2", batch[0].ID)
		assert.Equal(t, "page-3", batch[1].ID)
		assert.Equal(t, "page-1", batch[2].ID)
	})

	t.Run("spans multiple storage pages", func(t *testing.T) {
		store := newStore(t, server, "cursor-pages")

		docs := make([]*docstore.Document, 600)
		for i := range docs {
			docs[i] = &docstore.Document{
				ID:     fmt.Sprintf("doc-%04d", i),
				Fields: map[string]any{"n": i},
			}
		}
		require.NoError(t, store.InsertMany(ctx, "bulkload", docs))

		cursor, err := store.Cursor(ctx, "bulkload", docstore.Filter{}, nil)
		require.NoError(t, err)
		defer cursor.Close()

		var total int
		for {
			batch, err := cursor.Next(ctx, 100)
			require.NoError(t, err)
			if batch == nil {
				break
			}
			total += len(batch)
		}
		assert.Equal(t, 600, total)
	})
}

func TestUpdateMany(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("applies set, unset and hash clearing", func(t *testing.T) {
		store := newStore(t, server, "update")
		seedPages(t, ctx, store)

		result, err := store.UpdateMany(ctx, "pages", docstore.Filter{"status": "open"}, docstore.UpdateSpec{
			Set:              map[string]any{"status": "archived"},
			Unset:            []string{"rank"},
			ClearContentHash: true,
		})
		require.NoError(t, err)
		assert.Equal(t, &docstore.WriteResult{Matched: 2, Modified: 2}, result)

		docs, err := store.Find(ctx, "pages", docstore.Filter{"status": "archived"}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		for _, doc := range docs {
			assert.Nil(t, doc.ContentHash)
			_, hasRank := doc.Fields["rank"]
			assert.False(t, hasRank)
		}

		// The unmatched document is untouched.
		docs, err = store.Find(ctx, "pages", docstore.Filter{"id": "page-3"}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.NotNil(t, docs[0].ContentHash)
	})

	t.Run("no matches yields a zero result", func(t *testing.T) {
		store := newStore(t, server, "update-none")
		seedPages(t, ctx, store)

		result, err := store.UpdateMany(ctx, "pages", docstore.Filter{"status": "missing"}, docstore.UpdateSpec{
			Set: map[string]any{"status": "x"},
		})
		require.NoError(t, err)
		assert.Equal(t, &docstore.WriteResult{}, result)
	})
}

func TestBulkWrite(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	store := newStore(t, server, "bulk")
	seedPages(t, ctx, store)

	result, err := store.BulkWrite(ctx, "pages", []docstore.BulkUpdate{
		{
			Filter: docstore.Filter{"id": "page-1"},
			Update: docstore.UpdateSpec{Set: map[string]any{"status": "a"}, ClearContentHash: true},
		},
		{
			Filter: docstore.Filter{"status": "closed"},
			Update: docstore.UpdateSpec{Set: map[string]any{"status": "b"}, ClearContentHash: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &docstore.WriteResult{Matched: 2, Modified: 2}, result)

	docs, err := store.Find(ctx, "pages", docstore.Filter{"id": "page-3"}, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].Fields["status"])
	assert.Nil(t, docs[0].ContentHash)
}

func TestInsert(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("assigns an ID when absent", func(t *testing.T) {
		store := newStore(t, server, "insert-id")

		doc := &docstore.Document{Fields: map[string]any{"a": 1}}
		require.NoError(t, store.InsertOne(ctx, "pages", doc))
		assert.NotEmpty(t, doc.ID)

		docs, err := store.Find(ctx, "pages", docstore.Filter{"id": doc.ID}, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("rejects duplicate IDs", func(t *testing.T) {
		store := newStore(t, server, "insert-dup")

		doc := &docstore.Document{ID: "dup"}
		require.NoError(t, store.InsertOne(ctx, "pages", doc))

		err := store.InsertOne(ctx, "pages", &docstore.Document{ID: "dup"})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

func TestDelete(t *testing.T) {
	server := storagetest.NewEtcdTestServer(t)
	ctx := context.Background()

	t.Run("DeleteOne removes a single document", func(t *testing.T) {
		store := newStore(t, server, "delete-one")
		seedPages(t, ctx, store)

		require.NoError(t, store.DeleteOne(ctx, "pages", "page-2"))
		// Deleting a missing document is not an error.
		require.NoError(t, store.DeleteOne(ctx, "pages", "page-2"))

		docs, err := store.Find(ctx, "pages", docstore.Filter{}, nil)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("DeleteMany with a filter removes the match set", func(t *testing.T) {
		store := newStore(t, server, "delete-filter")
		seedPages(t, ctx, store)

		require.NoError(t, store.DeleteMany(ctx, "pages", docstore.Filter{"status": "open"}))

		docs, err := store.Find(ctx, "pages", docstore.Filter{}, nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "page-3", docs[0].ID)
	})

	t.Run("DeleteMany with an empty filter clears the collection", func(t *testing.T) {
		store := newStore(t, server, "delete-all")
		seedPages(t, ctx, store)

		require.NoError(t, store.DeleteMany(ctx, "pages", docstore.Filter{}))

		docs, err := store.Find(ctx, "pages", docstore.Filter{}, nil)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
