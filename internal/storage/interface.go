package storage

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type EtcdClient interface {
	clientv3.KV
	clientv3.Watcher
}

// Value is the interface that all stored values must adhere to. Values must be
// JSON-serializable and have a 'version' field that they expose through the
// methods on this interface. The 'version' field should be omitted from the
// JSON representation.
type Value interface {
	Version() int64
	SetVersion(version int64)
}

// StoredValue carries the etcd version of a decoded value. Embed it in any
// struct that needs to satisfy Value.
type StoredValue struct {
	version int64
}

func (v *StoredValue) Version() int64 {
	return v.version
}

func (v *StoredValue) SetVersion(version int64) {
	v.version = version
}

// TxnOperation is a storage operation that can be used in a transaction.
type TxnOperation interface {
	Ops(ctx context.Context) ([]clientv3.Op, error)
	Cmps() []clientv3.Cmp
}

// Txn is a group of operations that will be executed together in a
// transaction. If any of the operations contains a condition, such as the
// create operation, and that condition fails, the entire transaction fails.
// Each operation in the transaction must operate on a unique key.
type Txn interface {
	AddOps(ops ...TxnOperation)
	Commit(ctx context.Context) error
}

// GetOp is an operation that returns a single value.
type GetOp[V Value] interface {
	Exec(ctx context.Context) (V, error)
}

// GetMultipleOp is an operation that returns multiple values.
type GetMultipleOp[V Value] interface {
	Exec(ctx context.Context) ([]V, error)
}

// PutOp is an operation that puts a key-value pair into storage.
type PutOp[V Value] interface {
	TxnOperation
	Exec(ctx context.Context) error
}

// DeleteOp is an operation that deletes one or more values from storage, and
// returns the number of values deleted.
type DeleteOp interface {
	TxnOperation
	Exec(ctx context.Context) (int64, error)
}

// WatchOp is an operation that streams events for a key or prefix.
type WatchOp[V Value] interface {
	Watch(ctx context.Context, handle func(e *Event[V])) error
	Close()
}

// EventType describes the kind of change a watch event represents.
type EventType int

const (
	EventTypeUnknown EventType = iota
	EventTypePut
	EventTypeDelete
	EventTypeError
)

// Event is a single watch notification.
type Event[V Value] struct {
	Type     EventType
	Key      string
	Value    V
	IsCreate bool
	IsModify bool
	Err      error
}
