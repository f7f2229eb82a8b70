package store

import (
	"context"
	"sort"
	"sync"
)

const subscriberBuffer = 32

// MemoryStore is a SessionStore kept in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]SessionRecord
	subs    map[string]map[chan SessionRecord]struct{}
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]SessionRecord{},
		subs:    map[string]map[chan SessionRecord]struct{}{},
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[sessionID]
	if !ok {
		return SessionRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) Put(_ context.Context, rec SessionRecord, expected int64) (int64, error) {
	if err := Validate(rec); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[rec.SessionID]
	switch {
	case !ok && expected != 0:
		return 0, ErrNotFound
	case ok && cur.Version != expected:
		return 0, ErrWriteConflict
	}
	rec.Version = expected + 1
	m.records[rec.SessionID] = rec
	for ch := range m.subs[rec.SessionID] {
		offer(ch, rec)
	}
	return rec.Version, nil
}

// offer delivers rec without blocking, dropping the oldest queued record when
// the subscriber has fallen behind.
func offer(ch chan SessionRecord, rec SessionRecord) {
	for {
		select {
		case ch <- rec:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m *MemoryStore) Subscribe(ctx context.Context, sessionID string) (<-chan SessionRecord, error) {
	ch := make(chan SessionRecord, subscriberBuffer)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, nil
	}
	if m.subs[sessionID] == nil {
		m.subs[sessionID] = map[chan SessionRecord]struct{}{}
	}
	m.subs[sessionID][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[sessionID][ch]; ok {
			delete(m.subs[sessionID], ch)
			if len(m.subs[sessionID]) == 0 {
				delete(m.subs, sessionID)
			}
			close(ch)
		}
	}()
	return ch, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]SessionRecord, error) {
	m.mu.Lock()
	out := make([]SessionRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[sessionID]; !ok {
		return ErrNotFound
	}
	delete(m.records, sessionID)
	return nil
}

// Close ends every open subscription.
func (m *MemoryStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, set := range m.subs {
		for ch := range set {
			close(ch)
		}
		delete(m.subs, id)
	}
}
