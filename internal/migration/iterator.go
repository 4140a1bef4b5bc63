package migration

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docuseek/indexcore/internal/docstore"
)

// Iterator is the forward-only, single-consumer cursor handed out by
// Traverse. A read fault during Next terminates the iterator instead of
// propagating: Next returns nil and the fault is retrievable through Err.
// Close is idempotent and must be reachable on every exit path.
type Iterator struct {
	cursor    docstore.Cursor
	logger    zerolog.Logger
	closeOnce sync.Once
	err       error
	done      bool
}

func newIterator(cursor docstore.Cursor, logger zerolog.Logger) *Iterator {
	return &Iterator{
		cursor: cursor,
		logger: logger,
	}
}

// Next returns up to n documents, or nil once the iterator is exhausted,
// terminated by a fault, or closed.
func (it *Iterator) Next(ctx context.Context, n int) []*docstore.Document {
	if it.done {
		return nil
	}
	docs, err := it.cursor.Next(ctx, n)
	if err != nil {
		it.err = err
		it.done = true
		it.logger.Warn().
			Err(err).
			Msg("traversal terminated by read fault")
		return nil
	}
	if len(docs) == 0 {
		it.done = true
		return nil
	}
	return docs
}

// Err returns the read fault that terminated the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Close releases the underlying cursor. Safe to call multiple times.
func (it *Iterator) Close() {
	it.closeOnce.Do(func() {
		it.done = true
		it.cursor.Close()
	})
}
