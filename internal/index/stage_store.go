package index

import (
	"time"

	"github.com/docuseek/indexcore/internal/storage"
)

// indexAttribute is the reserved attribute that holds the stage's version
// counter alongside the tracked field values.
const indexAttribute = "index"

// StoredStageState is the persisted attribute record for one indexing stage.
// Exactly one record exists per stage ID. Attributes holds the last seen
// value per tracked field plus the reserved 'index' counter, which never
// decreases and increments by exactly one whenever a tracked value changes.
type StoredStageState struct {
	storage.StoredValue
	StageID    string         `json:"stage_id"`
	Attributes map[string]any `json:"attributes"`
	ModifiedOn time.Time      `json:"modified_on"`
}

// Index returns the stage's version counter. The second return value is
// false when no version has been recorded yet. Values read back from storage
// arrive as JSON numbers, so both decoded and freshly assigned types are
// handled.
func (s *StoredStageState) Index() (int64, bool) {
	switch v := s.Attributes[indexAttribute].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

type StageStateStore struct {
	client storage.EtcdClient
	root   string
}

func NewStageStateStore(client storage.EtcdClient, root string) *StageStateStore {
	return &StageStateStore{
		client: client,
		root:   root,
	}
}

func (s *StageStateStore) Prefix() string {
	return storage.Prefix(s.root, "stages")
}

func (s *StageStateStore) Key(stageID string) string {
	return storage.Key(s.Prefix(), stageID)
}

func (s *StageStateStore) Get(stageID string) storage.GetOp[*StoredStageState] {
	return storage.NewGetOp[*StoredStageState](s.client, s.Key(stageID))
}

func (s *StageStateStore) List() storage.GetMultipleOp[*StoredStageState] {
	return storage.NewGetPrefixOp[*StoredStageState](s.client, s.Prefix())
}

// Put persists a stage record without version constraints. Concurrent writers
// to the same stage race under last-write-wins; serializing writers per stage
// is the caller's responsibility.
func (s *StageStateStore) Put(item *StoredStageState) storage.PutOp[*StoredStageState] {
	return storage.NewPutOp(s.client, s.Key(item.StageID), item)
}

// Watch streams changes to every stage record, letting an indexing driver
// react to invalidations without polling.
func (s *StageStateStore) Watch() storage.WatchOp[*StoredStageState] {
	return storage.NewWatchPrefixOp[*StoredStageState](s.client, s.Prefix())
}
