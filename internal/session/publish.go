package session

import (
	"context"
	"errors"

	"burn-casino/internal/game/viewmodel"
	"burn-casino/internal/store"

	"github.com/rs/zerolog/log"
)

type eventPayload struct {
	Data  any                       `json:"data,omitempty"`
	State viewmodel.PublicStateView `json:"state"`
}

// publish mirrors the engine into the store and the event buffer. Called only
// from the table goroutine, or before it starts.
func (t *Table) publish(event string, data any) {
	snap := t.engine.Snapshot()
	if t.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
		v, err := t.persist(ctx, store.RecordFromSnapshot(t.id, snap))
		cancel()
		if err != nil {
			metricStoreWriteErrors.Add(1)
			log.Error().Err(err).Str("session_id", t.id).Str("event", event).Msg("session store write failed")
		} else {
			t.version = v
		}
	} else {
		t.version++
	}

	t.mu.Lock()
	t.snap = snap
	t.published = t.version
	t.mu.Unlock()

	t.buffer.Append(event, t.id, t.version, eventPayload{Data: data, State: t.PublicView()})
}

// persist writes rec at the table's version. Another writer having touched
// the record is a conflict: the table re-reads the current version and writes
// its own state over it, since it is the only authority for the session.
func (t *Table) persist(ctx context.Context, rec store.SessionRecord) (int64, error) {
	v, err := t.store.Put(ctx, rec, t.version)
	if !errors.Is(err, store.ErrWriteConflict) && !errors.Is(err, store.ErrNotFound) {
		return v, err
	}
	metricStoreWriteConflicts.Add(1)
	log.Warn().Err(err).Str("session_id", t.id).Int64("version", t.version).Msg("session write conflict")
	var expected int64
	cur, gerr := t.store.Get(ctx, t.id)
	switch {
	case gerr == nil:
		expected = cur.Version
	case errors.Is(gerr, store.ErrNotFound):
		expected = 0
	default:
		return 0, gerr
	}
	return t.store.Put(ctx, rec, expected)
}
