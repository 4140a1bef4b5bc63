package storage

import (
	"context"
	"encoding/json"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// putOp stores a key value pair without enforcing any version constraints.
// Concurrent writers to the same key race under last-write-wins.
type putOp[V Value] struct {
	client  EtcdClient
	key     string
	val     V
	options []clientv3.OpOption
}

func NewPutOp[V Value](client EtcdClient, key string, val V, options ...clientv3.OpOption) PutOp[V] {
	return &putOp[V]{
		client:  client,
		key:     key,
		val:     val,
		options: options,
	}
}

func (o *putOp[V]) Ops(ctx context.Context) ([]clientv3.Op, error) {
	return putOps(o.key, o.val, o.options...)
}

func (o *putOp[V]) Cmps() []clientv3.Cmp {
	return nil
}

func (o *putOp[V]) Exec(ctx context.Context) error {
	ops, err := o.Ops(ctx)
	if err != nil {
		return err
	}
	_, err = o.client.Do(ctx, ops[0])
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", o.key, err)
	}

	return nil
}

// createOp creates a key value pair. This operation will fail with
// ErrAlreadyExists if the given key already exists.
type createOp[V Value] struct {
	client  EtcdClient
	key     string
	val     V
	options []clientv3.OpOption
}

func NewCreateOp[V Value](client EtcdClient, key string, val V, options ...clientv3.OpOption) PutOp[V] {
	return &createOp[V]{
		client:  client,
		key:     key,
		val:     val,
		options: options,
	}
}

func (o *createOp[V]) Ops(ctx context.Context) ([]clientv3.Op, error) {
	return putOps(o.key, o.val, o.options...)
}

func (o *createOp[V]) Cmps() []clientv3.Cmp {
	return []clientv3.Cmp{clientv3.Compare(clientv3.Version(o.key), "=", 0)}
}

func (o *createOp[V]) Exec(ctx context.Context) error {
	ops, err := o.Ops(ctx)
	if err != nil {
		return err
	}
	resp, err := o.client.Txn(ctx).
		If(o.Cmps()...).
		Then(ops...).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", o.key, err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%q: %w", o.key, ErrAlreadyExists)
	}

	return nil
}

// updateOp updates an existing key value pair with a new value. This operation
// will fail with ErrValueVersionMismatch if the stored value's version does
// not match the given value's version.
type updateOp[V Value] struct {
	client  EtcdClient
	key     string
	val     V
	options []clientv3.OpOption
}

func NewUpdateOp[V Value](client EtcdClient, key string, val V, options ...clientv3.OpOption) PutOp[V] {
	return &updateOp[V]{
		client:  client,
		key:     key,
		val:     val,
		options: options,
	}
}

func (o *updateOp[V]) Ops(ctx context.Context) ([]clientv3.Op, error) {
	return putOps(o.key, o.val, o.options...)
}

func (o *updateOp[V]) Cmps() []clientv3.Cmp {
	return []clientv3.Cmp{
		clientv3.Compare(clientv3.Version(o.key), "=", o.val.Version()),
	}
}

func (o *updateOp[V]) Exec(ctx context.Context) error {
	ops, err := o.Ops(ctx)
	if err != nil {
		return err
	}
	resp, err := o.client.Txn(ctx).
		If(o.Cmps()...).
		Then(ops...).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to update %q: %w", o.key, err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%q: %w", o.key, ErrValueVersionMismatch)
	}

	return nil
}

func putOps[V Value](key string, val V, options ...clientv3.OpOption) ([]clientv3.Op, error) {
	encoded, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for %q: %w", key, err)
	}

	return []clientv3.Op{clientv3.OpPut(key, string(encoded), options...)}, nil
}
