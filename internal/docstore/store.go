package docstore

import (
	"context"
)

// SortField orders results by a single document field.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions carries the optional limit and sort for read operations.
type FindOptions struct {
	Limit int64
	Sort  []SortField
}

// UpdateSpec describes a multi-document update. Set writes field values,
// Unset removes fields, and ClearContentHash marks the document as needing a
// reindex. The migration layer always sets ClearContentHash.
type UpdateSpec struct {
	Set              map[string]any
	Unset            []string
	ClearContentHash bool
}

// Apply applies the update to a document in place.
func (u UpdateSpec) Apply(doc *Document) {
	if len(u.Set) > 0 && doc.Fields == nil {
		doc.Fields = make(map[string]any, len(u.Set))
	}
	for field, val := range u.Set {
		doc.Fields[field] = val
	}
	for _, field := range u.Unset {
		delete(doc.Fields, field)
	}
	if u.ClearContentHash {
		doc.ContentHash = nil
	}
}

// BulkUpdate is a single filter+update pair within a bulk write.
type BulkUpdate struct {
	Filter Filter
	Update UpdateSpec
}

// WriteResult reports how many documents a write matched and modified.
type WriteResult struct {
	Matched  int64
	Modified int64
}

// Cursor is a forward-only, single-consumer iterator over documents. Next
// returns up to n documents, or fewer at exhaustion; a nil slice with a nil
// error means the cursor is exhausted. Close releases the underlying
// resources and is safe to call multiple times.
type Cursor interface {
	Next(ctx context.Context, n int) ([]*Document, error)
	Close()
}

// Store is the collection-oriented document store interface required by the
// migration layer. Multi-document writes inherit etcd's per-transaction
// atomicity: writes are chunked, so a mid-write failure can leave a partially
// updated match set with no rollback.
type Store interface {
	Find(ctx context.Context, collection string, filter Filter, opts *FindOptions) ([]*Document, error)
	Cursor(ctx context.Context, collection string, filter Filter, opts *FindOptions) (Cursor, error)
	UpdateMany(ctx context.Context, collection string, filter Filter, update UpdateSpec) (*WriteResult, error)
	BulkWrite(ctx context.Context, collection string, updates []BulkUpdate) (*WriteResult, error)
	InsertOne(ctx context.Context, collection string, doc *Document) error
	InsertMany(ctx context.Context, collection string, docs []*Document) error
	DeleteOne(ctx context.Context, collection string, id string) error
	DeleteMany(ctx context.Context, collection string, filter Filter) error
}
