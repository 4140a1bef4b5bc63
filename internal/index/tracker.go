package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wI2L/jsondiff"

	"github.com/docuseek/indexcore/internal/canon"
	"github.com/docuseek/indexcore/internal/storage"
)

// Decision is the outcome of a stage state lookup. Version is the stage's
// stringified counter, empty when the tracked value was unchanged and no
// counter has been recorded yet. Changed reports whether the counter was
// bumped, i.e. whether the stage must recompute for this field.
type Decision struct {
	Version string
	Changed bool
}

// StageTracker decides, per indexing stage and tracked field, whether the
// stage has to recompute, and keeps the persisted stage record current.
type StageTracker struct {
	store  *StageStateStore
	logger zerolog.Logger
}

func NewStageTracker(store *StageStateStore, logger zerolog.Logger) *StageTracker {
	return &StageTracker{
		store:  store,
		logger: logger.With().Str("component", "stage_tracker").Logger(),
	}
}

// LoadStageState compares a candidate value against the stored value of
// attributes[field] for the given stage. A previously loaded state can be
// passed in to skip the lookup. On a match the current version is returned
// unchanged; on a mismatch the counter is incremented by exactly one, the new
// value is persisted (created if absent, last-write-wins otherwise), and the
// refreshed state is returned for reuse in subsequent calls.
func (t *StageTracker) LoadStageState(
	ctx context.Context,
	stageID string,
	field string,
	value any,
	state *StoredStageState,
) (Decision, *StoredStageState, error) {
	if state == nil {
		loaded, err := t.store.Get(stageID).Exec(ctx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Decision{}, nil, fmt.Errorf("failed to load stage %q: %w", stageID, err)
		}
		state = loaded
	}

	if state != nil && canon.Equal(state.Attributes[field], value) {
		if idx, ok := state.Index(); ok {
			return Decision{Version: strconv.FormatInt(idx, 10)}, state, nil
		}
		// No version recorded yet; treat as unchanged.
		return Decision{}, state, nil
	}

	var current int64
	var oldAttributes map[string]any
	if state != nil {
		current, _ = state.Index()
		oldAttributes = state.Attributes
	} else {
		state = &StoredStageState{
			StageID: stageID,
		}
	}
	next := current + 1

	attributes := make(map[string]any, len(oldAttributes)+2)
	for k, v := range oldAttributes {
		attributes[k] = v
	}
	attributes[field] = value
	attributes[indexAttribute] = next
	state.Attributes = attributes
	state.ModifiedOn = time.Now()

	t.logAttributeChange(stageID, oldAttributes, attributes)

	if err := t.store.Put(state).Exec(ctx); err != nil {
		return Decision{}, nil, fmt.Errorf("failed to persist stage %q: %w", stageID, err)
	}
	refreshed, err := t.store.Get(stageID).Exec(ctx)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("failed to reload stage %q: %w", stageID, err)
	}

	return Decision{
		Version: strconv.FormatInt(next, 10),
		Changed: true,
	}, refreshed, nil
}

func (t *StageTracker) logAttributeChange(stageID string, old, updated map[string]any) {
	if t.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	if old == nil {
		old = map[string]any{}
	}
	patch, err := jsondiff.Compare(old, updated)
	if err != nil {
		t.logger.Debug().
			Str("stage_id", stageID).
			Err(err).
			Msg("failed to diff stage attributes")
		return
	}
	t.logger.Debug().
		Str("stage_id", stageID).
		Interface("diff", patch).
		Msg("stage attributes changed")
}
