package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"burn-casino/internal/game"
	"burn-casino/internal/notify"
	"burn-casino/internal/policy"
	"burn-casino/internal/store"

	"github.com/rs/zerolog/log"
)

type AISeat struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

type CreateRequest struct {
	AISeats []AISeat `json:"ai_seats"`
}

type Summary struct {
	SessionID       string    `json:"session_id"`
	Version         int64     `json:"version"`
	Stage           string    `json:"stage"`
	Day             int       `json:"day"`
	Players         int       `json:"players"`
	CurrentPlayerID string    `json:"current_player_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Manager is the registry of live tables.
type Manager struct {
	store       store.SessionStore
	opts        Options
	maxSessions int

	mu     sync.Mutex
	tables map[string]*Table
	seq    int64
}

func NewManager(st store.SessionStore, opts Options, maxSessions int) *Manager {
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	return &Manager{
		store:       st,
		opts:        opts,
		maxSessions: maxSessions,
		tables:      map[string]*Table{},
	}
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Table, error) {
	if len(req.AISeats) > game.MaxPlayers {
		return nil, game.ErrInvalidPlayer
	}
	for _, seat := range req.AISeats {
		if _, err := policy.ParseTier(seat.Tier); err != nil {
			metricSessionCreateErrors.Add(1)
			return nil, err
		}
	}
	m.mu.Lock()
	if m.maxSessions > 0 && len(m.tables) >= m.maxSessions {
		m.mu.Unlock()
		metricSessionCreateErrors.Add(1)
		return nil, ErrTooManySessions
	}
	opts := m.opts
	if opts.Seed != 0 {
		m.seq++
		opts.Seed += m.seq * 7919
	}
	m.mu.Unlock()

	id := store.NewID()
	t := newTable(id, m.store, opts)
	t.publish("session_created", nil)
	if t.version == 0 && m.store != nil {
		metricSessionCreateErrors.Add(1)
		return nil, ErrStoreUnavailable
	}
	for i, seat := range req.AISeats {
		name := strings.TrimSpace(seat.Name)
		if name == "" {
			name = fmt.Sprintf("AI %d (%s)", i+1, strings.ToLower(seat.Tier))
		}
		if _, err := t.join(JoinRequest{PlayerID: store.NewPrefixedID("ai"), Name: name, AITier: seat.Tier}); err != nil {
			metricSessionCreateErrors.Add(1)
			if m.store != nil {
				_ = m.store.Delete(ctx, id)
			}
			return nil, err
		}
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.tables) >= m.maxSessions {
		m.mu.Unlock()
		metricSessionCreateErrors.Add(1)
		if m.store != nil {
			_ = m.store.Delete(ctx, id)
		}
		return nil, ErrTooManySessions
	}
	m.tables[id] = t
	m.mu.Unlock()

	go t.run()
	metricSessionCreateTotal.Add(1)
	metricSessionsActive.Add(1)
	log.Info().Str("session_id", id).Int("ai_seats", len(req.AISeats)).Msg("session created")
	return t, nil
}

func (m *Manager) Get(sessionID string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[sessionID]
	if t == nil {
		return nil, ErrSessionNotFound
	}
	return t, nil
}

func (m *Manager) List() []Summary {
	m.mu.Lock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.Unlock()

	out := make([]Summary, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Close stops the table and removes its record from the store.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	t := m.tables[sessionID]
	delete(m.tables, sessionID)
	m.mu.Unlock()
	if t == nil {
		return ErrSessionNotFound
	}
	t.Close()
	metricSessionsActive.Add(-1)
	if m.store != nil {
		if err := m.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	log.Info().Str("session_id", sessionID).Msg("session closed")
	return nil
}

// Invite notifies each username that inviter asked them to join sessionID.
// It returns how many invites were accepted for delivery.
func (m *Manager) Invite(ctx context.Context, sessionID, inviter string, usernames []string) (int, error) {
	t, err := m.Get(sessionID)
	if err != nil {
		return 0, err
	}
	snap, _ := t.Snapshot()
	if snap.State.Day != 0 {
		return 0, game.ErrAlreadyStarted
	}
	sent := 0
	for _, u := range usernames {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if err := m.opts.Notifier.Notify(ctx, u, notify.InviteMessage(sessionID, inviter)); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Str("player_id", u).Msg("invite failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// Shutdown closes every table. Records stay in the store.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	tables := m.tables
	m.tables = map[string]*Table{}
	m.mu.Unlock()
	for _, t := range tables {
		t.Close()
		metricSessionsActive.Add(-1)
	}
}
