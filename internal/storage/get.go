package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type getOp[V Value] struct {
	client  EtcdClient
	key     string
	options []clientv3.OpOption
}

// NewGetOp returns an operation that returns a single value by key.
func NewGetOp[V Value](client EtcdClient, key string, options ...clientv3.OpOption) GetOp[V] {
	return &getOp[V]{
		client:  client,
		key:     key,
		options: options,
	}
}

func (o *getOp[V]) Exec(ctx context.Context) (V, error) {
	var zero V
	resp, err := o.client.Get(ctx, o.key, o.options...)
	if err != nil {
		return zero, fmt.Errorf("failed to get %q: %w", o.key, err)
	}
	vals, err := DecodeGetResponse[V](resp)
	if err != nil {
		return zero, err
	}
	if len(vals) < 1 {
		return zero, fmt.Errorf("%q: %w", o.key, ErrNotFound)
	}

	return vals[0], nil
}

type getPrefixOp[V Value] struct {
	client  EtcdClient
	prefix  string
	options []clientv3.OpOption
}

// NewGetPrefixOp returns an operation that returns multiple values by prefix.
func NewGetPrefixOp[V Value](client EtcdClient, prefix string, options ...clientv3.OpOption) GetMultipleOp[V] {
	return &getPrefixOp[V]{
		client:  client,
		prefix:  ensureTrailingSlash(prefix),
		options: options,
	}
}

func (o *getPrefixOp[V]) Exec(ctx context.Context) ([]V, error) {
	options := []clientv3.OpOption{clientv3.WithPrefix()}
	options = append(options, o.options...)
	resp, err := o.client.Get(ctx, o.prefix, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to get prefix %q: %w", o.prefix, err)
	}
	return DecodeGetResponse[V](resp)
}

// DecodeGetResponse is a helper function to extract typed values from a
// clientv3.GetResponse.
func DecodeGetResponse[V Value](resp *clientv3.GetResponse) ([]V, error) {
	return decodeKVs[V](resp.Kvs)
}

func decodeKVs[V Value](kvs []*mvccpb.KeyValue) ([]V, error) {
	vals := make([]V, len(kvs))
	for idx, kv := range kvs {
		v, err := DecodeKV[V](kv)
		if err != nil {
			return nil, err
		}
		vals[idx] = v
	}

	return vals, nil
}

// DecodeKV decodes a single etcd key-value pair into a typed value.
func DecodeKV[V Value](kv *mvccpb.KeyValue) (V, error) {
	var zero V
	key := string(kv.Key)
	val, err := decodeJSON[V](kv.Value)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	val.SetVersion(kv.Version)
	return val, nil
}

func decodeJSON[V any](val []byte) (V, error) {
	var out V
	if err := json.Unmarshal(val, &out); err != nil {
		return out, err
	}
	return out, nil
}
