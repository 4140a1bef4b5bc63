package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/docuseek/indexcore/internal/storage"
)

// etcdCursor lazily pages through a collection in key order, evaluating the
// filter as it goes. Single consumer; concurrent Next calls are undefined.
type etcdCursor struct {
	client    storage.EtcdClient
	match     *matcher
	limit     int64
	returned  int64
	nextKey   string
	end       string
	buf       []*Document
	exhausted bool
	closeOnce sync.Once
	closed    bool
}

func (c *etcdCursor) Next(ctx context.Context, n int) ([]*Document, error) {
	if c.closed || n <= 0 {
		return nil, nil
	}

	for !c.exhausted && len(c.buf) < n {
		page, lastKey, err := fetchPage(ctx, c.client, c.nextKey, c.end)
		if err != nil {
			return nil, fmt.Errorf("cursor read failed: %w", err)
		}
		for _, doc := range page {
			if c.match.matches(doc) {
				c.buf = append(c.buf, doc)
			}
		}
		if lastKey == "" {
			c.exhausted = true
		} else {
			c.nextKey = lastKey + "\x00"
		}
	}

	out := c.take(n)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (c *etcdCursor) take(n int) []*Document {
	if c.limit > 0 {
		remaining := c.limit - c.returned
		if remaining <= 0 {
			return nil
		}
		if int64(n) > remaining {
			n = int(remaining)
		}
	}
	if n > len(c.buf) {
		n = len(c.buf)
	}
	out := c.buf[:n]
	c.buf = c.buf[n:]
	c.returned += int64(len(out))
	return out
}

func (c *etcdCursor) Close() {
	c.closeOnce.Do(func() {
		c.closed = true
		c.buf = nil
		c.exhausted = true
	})
}

// sliceCursor serves a pre-materialized result set. Used when a sort forces
// full materialization before iteration can begin.
type sliceCursor struct {
	docs      []*Document
	pos       int
	closeOnce sync.Once
	closed    bool
}

func (c *sliceCursor) Next(_ context.Context, n int) ([]*Document, error) {
	if c.closed || n <= 0 || c.pos >= len(c.docs) {
		return nil, nil
	}
	end := min(c.pos+n, len(c.docs))
	out := c.docs[c.pos:end]
	c.pos = end
	return out, nil
}

func (c *sliceCursor) Close() {
	c.closeOnce.Do(func() {
		c.closed = true
		c.docs = nil
		c.pos = 0
	})
}
