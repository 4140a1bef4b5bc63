package migration

import (
	"github.com/docuseek/indexcore/internal/storage"
)

// Store wraps all migration-related stores.
type Store struct {
	Revision *RevisionStore
	Result   *ResultStore
	root     string
}

// NewStore creates a new composite migration store.
func NewStore(client storage.EtcdClient, root string) *Store {
	return &Store{
		Revision: NewRevisionStore(client, root),
		Result:   NewResultStore(client, root),
		root:     root,
	}
}

// LockKey is the etcd key prefix used to serialize migration runs.
func (s *Store) LockKey() string {
	return storage.Key(s.root, "migrations", "lock")
}
