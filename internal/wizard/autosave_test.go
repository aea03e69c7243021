package wizard

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/logger"
)

type stubSnapshotStore struct {
	values map[string]string
	setErr error
}

func newStubSnapshotStore() *stubSnapshotStore {
	return &stubSnapshotStore{values: map[string]string{}}
}

func (s *stubSnapshotStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = string(value.([]byte))
	return nil
}

func (s *stubSnapshotStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *stubSnapshotStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *stubSnapshotStore) SnapshotKey(poaID string) string {
	return "poa:wizard:" + poaID
}

func newTestAutosave(t *testing.T, store *stubSnapshotStore) *AutosaveStore {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "wizard-test", Output: io.Discard})
	a, err := NewAutosaveStore(store, config.AutosaveConfig{TTL: time.Hour}, log)
	if err != nil {
		t.Fatalf("new autosave store: %v", err)
	}
	return a
}

func TestAutosaveSaveLoadDiscard(t *testing.T) {
	store := newStubSnapshotStore()
	autosave := newTestAutosave(t, store)
	m := newTestMachine(t)

	s := m.NewState()
	s = m.SetPayload(s, durablePayloadTX())
	advance(m, &s)

	snap := m.Serialize(s, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if err := autosave.Save(ctx, "poa-123", snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := autosave.Load(ctx, "poa-123")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded.StepID != snap.StepID {
		t.Fatalf("loaded step %q, want %q", loaded.StepID, snap.StepID)
	}

	restored, err := m.Deserialize(loaded)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if m.CurrentStep(restored).ID != m.CurrentStep(s).ID {
		t.Fatalf("restored position %q, want %q", m.CurrentStep(restored).ID, m.CurrentStep(s).ID)
	}

	if err := autosave.Discard(ctx, "poa-123"); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, found, _ := autosave.Load(ctx, "poa-123"); found {
		t.Fatal("snapshot should be gone after discard")
	}
}

func TestAutosaveLoadMissing(t *testing.T) {
	autosave := newTestAutosave(t, newStubSnapshotStore())

	_, found, err := autosave.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected no snapshot")
	}
}

func TestAutosaveLoadCorruptSnapshot(t *testing.T) {
	store := newStubSnapshotStore()
	autosave := newTestAutosave(t, store)

	store.values[store.SnapshotKey("poa-9")] = "{not json"
	_, found, err := autosave.Load(context.Background(), "poa-9")
	if err != nil {
		t.Fatalf("corrupt snapshots should not error: %v", err)
	}
	if found {
		t.Fatal("corrupt snapshot should be treated as absent")
	}
}
