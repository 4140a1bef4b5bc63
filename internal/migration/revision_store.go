package migration

import (
	"github.com/docuseek/indexcore/internal/storage"
)

// StoredRevision tracks the most recently applied migration.
type StoredRevision struct {
	storage.StoredValue
	Identifier string `json:"identifier"`
}

type RevisionStore struct {
	client storage.EtcdClient
	root   string
}

func NewRevisionStore(client storage.EtcdClient, root string) *RevisionStore {
	return &RevisionStore{
		client: client,
		root:   root,
	}
}

func (s *RevisionStore) Key() string {
	return storage.Key(s.root, "migrations", "revision")
}

func (s *RevisionStore) Get() storage.GetOp[*StoredRevision] {
	return storage.NewGetOp[*StoredRevision](s.client, s.Key())
}

func (s *RevisionStore) Create(item *StoredRevision) storage.PutOp[*StoredRevision] {
	return storage.NewCreateOp(s.client, s.Key(), item)
}

func (s *RevisionStore) Update(item *StoredRevision) storage.PutOp[*StoredRevision] {
	return storage.NewUpdateOp(s.client, s.Key(), item)
}
