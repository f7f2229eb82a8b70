package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"burn-casino/internal/session"
	"burn-casino/internal/store"

	"github.com/go-chi/chi/v5"
)

type SessionHandlers struct {
	mgr   *session.Manager
	store store.SessionStore
}

func NewSessionHandlers(mgr *session.Manager, st store.SessionStore) *SessionHandlers {
	return &SessionHandlers{mgr: mgr, store: st}
}

type createSessionResponse struct {
	session.Summary
	PlayerIDs []string `json:"player_ids"`
}

func (h *SessionHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricHTTPSessionCreateTotal.Add(1)
		var req session.CreateRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				metricHTTPSessionCreateErrors.Add(1)
				WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
				return
			}
		}
		t, err := h.mgr.Create(r.Context(), req)
		if err != nil {
			metricHTTPSessionCreateErrors.Add(1)
			writeSessionError(w, err)
			return
		}
		snap, _ := t.Snapshot()
		ids := make([]string, 0, len(snap.Players))
		for _, p := range snap.Players {
			ids = append(ids, p.ID)
		}
		writeJSON(w, http.StatusCreated, createSessionResponse{Summary: t.Summary(), PlayerIDs: ids})
	}
}

func (h *SessionHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := h.mgr.List()
		limit := ParseLimit(r)
		if len(items) > limit {
			items = items[:limit]
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}

func (h *SessionHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.mgr.Close(r.Context(), chi.URLParam(r, "session_id")); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *SessionHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.table(w, r)
		if !ok {
			return
		}
		var req session.JoinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if strings.TrimSpace(req.PlayerID) == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_player")
			return
		}
		p, err := t.Join(r.Context(), req)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"session_id": t.ID(),
			"player_id":  p.ID,
			"name":       p.Name,
			"bankroll":   p.Bankroll,
			"ai_tier":    p.AITier,
		})
	}
}

func (h *SessionHandlers) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.table(w, r)
		if !ok {
			return
		}
		if err := t.Start(r.Context()); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t.PublicView())
	}
}

func (h *SessionHandlers) Invite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inviter   string   `json:"inviter"`
			Usernames []string `json:"usernames"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if len(body.Usernames) == 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		sent, err := h.mgr.Invite(r.Context(), chi.URLParam(r, "session_id"), body.Inviter, body.Usernames)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sent": sent})
	}
}

func (h *SessionHandlers) table(w http.ResponseWriter, r *http.Request) (*session.Table, bool) {
	t, err := h.mgr.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return t, true
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports the store as "memory" when it cannot be pinged.
func Health(st store.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := st.(pinger)
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "memory"})
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

// RecordHandler serves the shared session document exactly as the store
// holds it.
func RecordHandler(st store.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			WriteHTTPError(w, http.StatusNotFound, "session_not_found")
			return
		}
		rec, err := st.Get(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "session_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
