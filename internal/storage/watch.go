package storage

import (
	"context"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type watchOp[V Value] struct {
	mu      sync.Mutex
	client  EtcdClient
	key     string
	options []clientv3.OpOption
	ch      clientv3.WatchChan
	cancel  context.CancelFunc
}

func NewWatchOp[V Value](client EtcdClient, key string, options ...clientv3.OpOption) WatchOp[V] {
	return &watchOp[V]{
		client:  client,
		key:     key,
		options: options,
	}
}

func NewWatchPrefixOp[V Value](client EtcdClient, prefix string, options ...clientv3.OpOption) WatchOp[V] {
	allOptions := []clientv3.OpOption{clientv3.WithPrefix()}
	allOptions = append(allOptions, options...)

	return &watchOp[V]{
		client:  client,
		key:     ensureTrailingSlash(prefix),
		options: allOptions,
	}
}

func (o *watchOp[V]) Watch(ctx context.Context, handle func(e *Event[V])) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ch != nil {
		return ErrWatchClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.ch = o.client.Watch(ctx, o.key, o.options...)
	ch := o.ch

	go func() {
		for resp := range ch {
			if err := resp.Err(); err != nil {
				defer o.Close()
				handle(&Event[V]{
					Type: EventTypeError,
					Err:  err,
				})
				return
			}

			for _, event := range resp.Events {
				handle(convertEvent[V](event))
			}
		}
	}()

	return nil
}

// Close stops the watch. It's safe to call multiple times.
func (o *watchOp[V]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.ch = nil
}

func convertEvent[V Value](in *clientv3.Event) *Event[V] {
	key := string(in.Kv.Key)

	var eventType EventType
	var val V
	switch in.Type {
	case clientv3.EventTypeDelete:
		eventType = EventTypeDelete
	case clientv3.EventTypePut:
		eventType = EventTypePut
		decoded, err := DecodeKV[V](in.Kv)
		if err != nil {
			return &Event[V]{
				Type: EventTypeError,
				Key:  key,
				Err:  err,
			}
		}
		val = decoded
	}

	return &Event[V]{
		Type:     eventType,
		Key:      key,
		Value:    val,
		IsCreate: in.IsCreate(),
		IsModify: in.IsModify(),
	}
}
