package docstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/docuseek/indexcore/internal/storage"
)

// pageSize is the number of raw records fetched per etcd range read when
// scanning a collection.
const pageSize = 512

// writeChunkSize keeps multi-document writes under etcd's default MaxTxnOps.
const writeChunkSize = 128

// EtcdStore implements Store on top of etcd. Documents live under
// /<root>/collections/<collection>/<id> as JSON. Filters are evaluated
// client-side over decoded documents, since etcd only understands key ranges.
type EtcdStore struct {
	client storage.EtcdClient
	root   string
	logger zerolog.Logger
}

func NewEtcdStore(client storage.EtcdClient, root string, logger zerolog.Logger) *EtcdStore {
	return &EtcdStore{
		client: client,
		root:   root,
		logger: logger.With().Str("component", "docstore").Logger(),
	}
}

func (s *EtcdStore) CollectionPrefix(collection string) string {
	return storage.Prefix(s.root, "collections", collection)
}

func (s *EtcdStore) Key(collection, id string) string {
	return storage.Key(s.root, "collections", collection, id)
}

func (s *EtcdStore) Find(ctx context.Context, collection string, filter Filter, opts *FindOptions) ([]*Document, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}

	var limit int64
	var sort []SortField
	if opts != nil {
		limit = opts.Limit
		sort = opts.Sort
	}

	// With a sort we need the full match set before the limit can be applied.
	scanLimit := limit
	if len(sort) > 0 {
		scanLimit = 0
	}
	docs, err := s.scan(ctx, collection, match, scanLimit)
	if err != nil {
		return nil, err
	}

	if len(sort) > 0 {
		sortDocuments(docs, sort)
		if limit > 0 && int64(len(docs)) > limit {
			docs = docs[:limit]
		}
	}

	return docs, nil
}

func (s *EtcdStore) Cursor(ctx context.Context, collection string, filter Filter, opts *FindOptions) (Cursor, error) {
	// A sorted cursor has to materialize its result set up front; the lazy
	// page-by-page path only preserves key order.
	if opts != nil && len(opts.Sort) > 0 {
		docs, err := s.Find(ctx, collection, filter, opts)
		if err != nil {
			return nil, err
		}
		return &sliceCursor{docs: docs}, nil
	}

	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}

	var limit int64
	if opts != nil {
		limit = opts.Limit
	}
	prefix := s.CollectionPrefix(collection)

	return &etcdCursor{
		client:  s.client,
		match:   match,
		limit:   limit,
		nextKey: prefix,
		end:     clientv3.GetPrefixRangeEnd(prefix),
	}, nil
}

func (s *EtcdStore) UpdateMany(ctx context.Context, collection string, filter Filter, update UpdateSpec) (*WriteResult, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	docs, err := s.scan(ctx, collection, match, 0)
	if err != nil {
		return nil, err
	}

	ops := make([]storage.TxnOperation, len(docs))
	for idx, doc := range docs {
		updated := doc.Clone()
		update.Apply(updated)
		ops[idx] = storage.NewPutOp(s.client, s.Key(collection, updated.ID), updated)
	}
	if err := s.commitChunks(ctx, ops); err != nil {
		return nil, err
	}

	n := int64(len(docs))
	return &WriteResult{Matched: n, Modified: n}, nil
}

func (s *EtcdStore) BulkWrite(ctx context.Context, collection string, updates []BulkUpdate) (*WriteResult, error) {
	result := &WriteResult{}
	// Each filter+update pair is resolved and written independently, in
	// order. A failure part-way leaves earlier pairs applied.
	for _, item := range updates {
		res, err := s.UpdateMany(ctx, collection, item.Filter, item.Update)
		if err != nil {
			return nil, err
		}
		result.Matched += res.Matched
		result.Modified += res.Modified
	}
	return result, nil
}

func (s *EtcdStore) InsertOne(ctx context.Context, collection string, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	return storage.NewCreateOp(s.client, s.Key(collection, doc.ID), doc).Exec(ctx)
}

func (s *EtcdStore) InsertMany(ctx context.Context, collection string, docs []*Document) error {
	ops := make([]storage.TxnOperation, len(docs))
	for idx, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		ops[idx] = storage.NewCreateOp(s.client, s.Key(collection, doc.ID), doc)
	}
	return s.commitChunks(ctx, ops)
}

func (s *EtcdStore) DeleteOne(ctx context.Context, collection string, id string) error {
	deleted, err := storage.NewDeleteKeyOp(s.client, s.Key(collection, id)).Exec(ctx)
	if err != nil {
		return err
	}
	if deleted == 0 {
		s.logger.Debug().
			Str("collection", collection).
			Str("id", id).
			Msg("delete matched no document")
	}
	return nil
}

func (s *EtcdStore) DeleteMany(ctx context.Context, collection string, filter Filter) error {
	if len(filter) == 0 {
		_, err := storage.NewDeletePrefixOp(s.client, s.CollectionPrefix(collection)).Exec(ctx)
		return err
	}

	match, err := compileFilter(filter)
	if err != nil {
		return err
	}
	docs, err := s.scan(ctx, collection, match, 0)
	if err != nil {
		return err
	}

	ops := make([]storage.TxnOperation, len(docs))
	for idx, doc := range docs {
		ops[idx] = storage.NewDeleteKeyOp(s.client, s.Key(collection, doc.ID))
	}
	return s.commitChunks(ctx, ops)
}

// scan pages through a collection in key order and returns the documents the
// matcher accepts, up to limit when limit > 0.
func (s *EtcdStore) scan(ctx context.Context, collection string, match *matcher, limit int64) ([]*Document, error) {
	prefix := s.CollectionPrefix(collection)
	var out []*Document

	nextKey := prefix
	end := clientv3.GetPrefixRangeEnd(prefix)
	for {
		page, lastKey, err := fetchPage(ctx, s.client, nextKey, end)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection %q: %w", collection, err)
		}
		for _, doc := range page {
			if !match.matches(doc) {
				continue
			}
			out = append(out, doc)
			if limit > 0 && int64(len(out)) >= limit {
				return out, nil
			}
		}
		if lastKey == "" {
			return out, nil
		}
		nextKey = lastKey + "\x00"
	}
}

// fetchPage reads one page of documents in [start, end) and returns the last
// raw key of the page, or "" when the range is exhausted.
func fetchPage(ctx context.Context, client storage.EtcdClient, start, end string) ([]*Document, string, error) {
	resp, err := client.Get(ctx, start,
		clientv3.WithRange(end),
		clientv3.WithLimit(pageSize),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, "", err
	}
	docs, err := storage.DecodeGetResponse[*Document](resp)
	if err != nil {
		return nil, "", err
	}
	if !resp.More {
		return docs, "", nil
	}
	lastKey := string(resp.Kvs[len(resp.Kvs)-1].Key)
	return docs, lastKey, nil
}

func (s *EtcdStore) commitChunks(ctx context.Context, ops []storage.TxnOperation) error {
	for start := 0; start < len(ops); start += writeChunkSize {
		end := min(start+writeChunkSize, len(ops))
		if err := storage.NewTxn(s.client, ops[start:end]...).Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func sortDocuments(docs []*Document, sort []SortField) {
	slices.SortStableFunc(docs, func(a, b *Document) int {
		for _, field := range sort {
			av, aok := a.Field(field.Field)
			bv, bok := b.Field(field.Field)
			var cmp int
			switch {
			case !aok && !bok:
				continue
			case !aok:
				cmp = -1
			case !bok:
				cmp = 1
			default:
				ordered, comparable := compareValues(av, bv)
				if !comparable {
					continue
				}
				cmp = ordered
			}
			if cmp == 0 {
				continue
			}
			if field.Desc {
				cmp = -cmp
			}
			return cmp
		}
		return 0
	})
}
