package wizard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/attestly/poa-backend/pkg/config"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/logger"
	redisclient "github.com/attestly/poa-backend/pkg/redis"
)

// AutosaveStore persists wizard snapshots keyed by draft POA. Best effort:
// callers log failures and carry on, a failed save never blocks a step
// transition or touches in-memory state.
type AutosaveStore struct {
	store redisclient.SnapshotStore
	ttl   time.Duration
	log   *logger.Logger
}

func NewAutosaveStore(store redisclient.SnapshotStore, cfg config.AutosaveConfig, log *logger.Logger) (*AutosaveStore, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "autosave store requires a snapshot store")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "autosave store requires a logger")
	}
	return &AutosaveStore{store: store, ttl: cfg.TTL, log: log}, nil
}

// Save persists the snapshot under the draft's key with the configured TTL.
func (a *AutosaveStore) Save(ctx context.Context, poaID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshaling wizard snapshot")
	}
	key := a.store.SnapshotKey(poaID)
	if err := a.store.Set(ctx, key, raw, a.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving wizard snapshot")
	}
	return nil
}

// Load returns the stored snapshot, or found=false when none exists or it
// has expired.
func (a *AutosaveStore) Load(ctx context.Context, poaID string) (Snapshot, bool, error) {
	key := a.store.SnapshotKey(poaID)
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading wizard snapshot")
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// A corrupt snapshot is treated as absent rather than wedging
		// resume; the interview restarts from the persisted draft.
		a.log.Warn(a.log.WithPOAID(ctx, poaID), "discarding undecodable wizard snapshot")
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Discard removes the snapshot, typically after submission.
func (a *AutosaveStore) Discard(ctx context.Context, poaID string) error {
	if err := a.store.Del(ctx, a.store.SnapshotKey(poaID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discarding wizard snapshot")
	}
	return nil
}
