package migration

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/docuseek/indexcore/internal/docstore"
	"github.com/docuseek/indexcore/internal/query"
)

// Slow write thresholds. Crossing them only emits operational signals; result
// semantics are unaffected.
const (
	slowWriteWarn     = 1 * time.Second
	slowWriteEscalate = 5 * time.Second
)

// Options carries the optional limit and sort for Find and Traverse.
type Options struct {
	Limit int64
	Sort  []docstore.SortField
}

func (o *Options) findOptions() *docstore.FindOptions {
	if o == nil {
		return nil
	}
	return &docstore.FindOptions{
		Limit: o.Limit,
		Sort:  o.Sort,
	}
}

// Result reports how many documents an operation matched and rewrote.
type Result struct {
	Matched int64
	Updated int64
}

// Update is the tagged update shape for Update calls. Construct it with
// Replace for a plain field-to-value replacement map, or with Patch for
// pre-shaped set/unset operators. Either way the executed write clears the
// matched documents' content hashes.
type Update struct {
	set     map[string]any
	unset   []string
	isPatch bool
}

// Replace builds an update that writes the given field values.
func Replace(fields map[string]any) Update {
	return Update{set: fields}
}

// Patch builds an operator-style update from explicit set and unset parts.
func Patch(set map[string]any, unset ...string) Update {
	return Update{set: set, unset: unset, isPatch: true}
}

func (u Update) spec() docstore.UpdateSpec {
	return docstore.UpdateSpec{
		Set:              u.set,
		Unset:            u.unset,
		ClearContentHash: true,
	}
}

// BulkItem is one independent filter+replacement pair within a Bulk call.
// Bulk only supports plain replacement maps; see Client.Bulk.
type BulkItem struct {
	Query   query.Query
	Replace map[string]any
}

// Client orchestrates migration operations against the document store. Every
// write it performs clears the content hash of the touched documents so that
// the indexing pipeline knows to revisit them. The client holds a non-owning
// reference to the store; store errors propagate to the caller everywhere
// except inside Traverse's per-step pull.
type Client struct {
	store  docstore.Store
	logger zerolog.Logger
}

func NewClient(store docstore.Store, logger zerolog.Logger) *Client {
	return &Client{
		store:  store,
		logger: logger.With().Str("component", "migration_client").Logger(),
	}
}

// Find translates the query and returns the fully materialized match set.
// Intended for small result sets; use Traverse for long scans.
func (c *Client) Find(ctx context.Context, collection string, q query.Query, opts *Options) ([]*docstore.Document, error) {
	return c.store.Find(ctx, collection, query.Translate(q), opts.findOptions())
}

// Traverse returns a lazy iterator over the match set. The caller must call
// Close on every exit path; a read fault during iteration terminates the
// iterator instead of propagating, so long migrations stop cleanly.
func (c *Client) Traverse(ctx context.Context, collection string, q query.Query, opts *Options) (*Iterator, error) {
	cursor, err := c.store.Cursor(ctx, collection, query.Translate(q), opts.findOptions())
	if err != nil {
		return nil, err
	}
	return newIterator(cursor, c.logger), nil
}

// Update rewrites every document matching the query in one multi-document
// write, clearing each match's content hash.
func (c *Client) Update(ctx context.Context, collection string, q query.Query, update Update) (*Result, error) {
	start := time.Now()
	res, err := c.store.UpdateMany(ctx, collection, query.Translate(q), update.spec())
	c.observeWriteLatency("update", collection, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Result{Matched: res.Matched, Updated: res.Modified}, nil
}

// Bulk executes a batch of independent filter+replacement pairs as one
// batched write and aggregates the counts. Unlike Update, every item is
// treated as a plain-value replacement with the content hash cleared;
// operator-style updates are not supported here.
func (c *Client) Bulk(ctx context.Context, collection string, items []BulkItem) (*Result, error) {
	updates := make([]docstore.BulkUpdate, len(items))
	for idx, item := range items {
		updates[idx] = docstore.BulkUpdate{
			Filter: query.Translate(item.Query),
			Update: docstore.UpdateSpec{
				Set:              item.Replace,
				ClearContentHash: true,
			},
		}
	}

	start := time.Now()
	res, err := c.store.BulkWrite(ctx, collection, updates)
	c.observeWriteLatency("bulk", collection, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Result{Matched: res.Matched, Updated: res.Modified}, nil
}

// Move streams every document matching the query out of the source
// collection, strips its content hash so the destination copy is treated as
// unindexed, and inserts it into the target collection. Only after the whole
// stream completes is a single delete-many issued against the source query.
//
// The two-collection effect is not atomic: a crash after the copy completes
// but before the delete leaves the documents in both collections. Semantics
// are at-least-once; callers needing exactly-once must dedupe by document ID
// or re-drive idempotently.
func (c *Client) Move(ctx context.Context, source string, q query.Query, target string) (*Result, error) {
	filter := query.Translate(q)
	cursor, err := c.store.Cursor(ctx, source, filter, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	result := &Result{}
	for {
		docs, err := cursor.Next(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			break
		}
		doc := docs[0]
		doc.ContentHash = nil
		if err := c.store.InsertOne(ctx, target, doc); err != nil {
			return nil, err
		}
		result.Matched++
		result.Updated++
	}

	if err := c.store.DeleteMany(ctx, source, filter); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("source", source).
		Str("target", target).
		Str("moved", humanize.Comma(result.Updated)).
		Msg("moved documents")

	return result, nil
}

// Create inserts one or more documents. An empty input is a no-op.
func (c *Client) Create(ctx context.Context, collection string, docs ...*docstore.Document) error {
	switch len(docs) {
	case 0:
		return nil
	case 1:
		return c.store.InsertOne(ctx, collection, docs[0])
	default:
		return c.store.InsertMany(ctx, collection, docs)
	}
}

// Delete removes a single document by ID.
func (c *Client) Delete(ctx context.Context, collection string, id string) error {
	return c.store.DeleteOne(ctx, collection, id)
}

// DeleteMany removes every document matching the query.
func (c *Client) DeleteMany(ctx context.Context, collection string, q query.Query) error {
	return c.store.DeleteMany(ctx, collection, query.Translate(q))
}

func (c *Client) observeWriteLatency(op, collection string, elapsed time.Duration) {
	switch {
	case elapsed > slowWriteEscalate:
		c.logger.Error().
			Str("operation", op).
			Str("collection", collection).
			Dur("elapsed", elapsed).
			Msg("migration write critically slow")
	case elapsed > slowWriteWarn:
		c.logger.Warn().
			Str("operation", op).
			Str("collection", collection).
			Dur("elapsed", elapsed).
			Msg("migration write slow")
	}
}
