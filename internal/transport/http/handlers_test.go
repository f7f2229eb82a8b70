package httptransport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"burn-casino/internal/session"
	"burn-casino/internal/store"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) (*chi.Mux, *session.Manager, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	mgr := session.NewManager(st, session.Options{Seed: 5}, 10)
	t.Cleanup(func() {
		mgr.Shutdown()
		st.Close()
	})
	return NewRouter(mgr, st), mgr, st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func createStarted(t *testing.T, h http.Handler) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/sessions", map[string]any{})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	id, _ := decode(t, w)["session_id"].(string)
	if id == "" {
		t.Fatal("session_id should not be empty")
	}
	for _, p := range []string{"ann", "bob"} {
		w = doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/players", map[string]any{"player_id": p, "name": strings.ToUpper(p)})
		if w.Code != http.StatusOK {
			t.Fatalf("join %s status=%d body=%s", p, w.Code, w.Body.String())
		}
	}
	w = doJSON(t, h, http.MethodPost, "/api/sessions/"+id+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d body=%s", w.Code, w.Body.String())
	}
	return id
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createStarted(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/sessions", nil)
	if items, _ := decode(t, w)["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one session, got %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/actions", map[string]any{"player_id": "bob", "type": "bet", "action": "check"})
	if w.Code != http.StatusConflict || decode(t, w)["error"] != "not_your_turn" {
		t.Fatalf("expected 409 not_your_turn, got %d %s", w.Code, w.Body.String())
	}

	for _, p := range []string{"ann", "bob"} {
		w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/actions", map[string]any{"request_id": "bet-" + p, "player_id": p, "type": "bet", "action": "call"})
		if w.Code != http.StatusOK {
			t.Fatalf("bet %s status=%d body=%s", p, w.Code, w.Body.String())
		}
	}

	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/state?player_id=ann", nil)
	state := decode(t, w)
	if state["phase"] != "burning" || state["my_turn"] != true {
		t.Fatalf("expected ann to burn, got %v", state)
	}
	hand := state["my_hand"].([]any)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/actions", map[string]any{"player_id": "ann", "type": "burn", "cards": []string{"Zz"}})
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "invalid_card" {
		t.Fatalf("expected invalid_card, got %d %s", w.Code, w.Body.String())
	}

	burn := []any{hand[0], hand[1], hand[2]}
	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/actions", map[string]any{"player_id": "ann", "type": "burn", "cards": burn})
	if w.Code != http.StatusOK {
		t.Fatalf("burn status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/record", nil)
	rec := decode(t, w)
	if rec["current_turn_player_id"] != "bob" {
		t.Fatalf("record should point at bob, got %v", rec)
	}

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/actions", map[string]any{"player_id": "bob", "type": "reveal"})
	if w.Code != http.StatusOK {
		t.Fatalf("reveal status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/state", nil)
	public := decode(t, w)
	if public["stage"] != "revealed" {
		t.Fatalf("expected revealed, got %v", public)
	}
	for _, seat := range public["seats"].([]any) {
		if seat.(map[string]any)["hand"] == nil {
			t.Fatalf("hands should be public after reveal: %v", seat)
		}
	}

	w = doJSON(t, r, http.MethodDelete, "/api/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+id+"/state", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	r, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "invalid_json" {
		t.Fatalf("expected invalid_json, got %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/sessions", map[string]any{"ai_seats": []map[string]string{{"tier": "wizard"}}})
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "unknown_tier" {
		t.Fatalf("expected unknown_tier, got %d %s", w.Code, w.Body.String())
	}
}

func TestInviteAndHealth(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/sessions", nil)
	id, _ := decode(t, w)["session_id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/invites", map[string]any{"inviter": "ann", "usernames": []string{"bob", "cat"}})
	if w.Code != http.StatusOK || decode(t, w)["sent"] != float64(2) {
		t.Fatalf("invite status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/invites", map[string]any{"usernames": []string{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty invite, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || decode(t, w)["db"] != "memory" {
		t.Fatalf("health status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestEventsSSEReplayAndLive(t *testing.T) {
	r, mgr, _ := newTestRouter(t)
	id := createStarted(t, r)
	tbl, err := mgr.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	srv := httptest.NewServer(r)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/"+id+"/events", nil)
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	rd := bufio.NewReader(resp.Body)

	first := readSSE(t, rd)
	if first.ID != "2" {
		t.Fatalf("replay should resume after event 1, got id=%s event=%s", first.ID, first.Event)
	}

	if _, err := tbl.Submit(ctx, session.ActionRequest{PlayerID: "ann", Kind: session.KindBet, Action: "check"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		ev := readSSE(t, rd)
		if ev.Event == "action_applied" {
			var payload session.StreamEvent
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if payload.SessionID != id {
				t.Fatalf("unexpected session in event: %+v", payload)
			}
			return
		}
	}
	t.Fatal("action_applied never arrived")
}

func TestEventsSSEResyncOnUnknownID(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createStarted(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/"+id+"/events?last_event_id=9999", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	rd := bufio.NewReader(resp.Body)

	first := readSSE(t, rd)
	if first.Event != "resync" || first.ID != "" {
		t.Fatalf("expected an id-less resync first, got id=%s event=%s", first.ID, first.Event)
	}
	if !strings.Contains(first.Data, `"session_id":"`+id+`"`) {
		t.Fatalf("resync should carry the public state, got %s", first.Data)
	}
	if next := readSSE(t, rd); next.ID != "1" {
		t.Fatalf("expected the full window after resync, got id=%s", next.ID)
	}
}

type sseEvent struct {
	ID    string
	Event string
	Data  string
}

func readSSE(t *testing.T, rd *bufio.Reader) sseEvent {
	t.Helper()
	ch := make(chan sseEvent, 1)
	errCh := make(chan error, 1)
	go func() {
		var ev sseEvent
		for {
			line, err := rd.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				ch <- ev
				return
			case strings.HasPrefix(line, "id: "):
				ev.ID = strings.TrimPrefix(line, "id: ")
			case strings.HasPrefix(line, "event: "):
				ev.Event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.Data = strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	select {
	case ev := <-ch:
		return ev
	case err := <-errCh:
		t.Fatalf("read event: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for sse event")
	}
	return sseEvent{}
}

func TestActionBodyLimit(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createStarted(t, r)

	huge := map[string]any{"player_id": "ann", "type": "bet", "action": "check", "request_id": strings.Repeat("x", maxActionBody)}
	w := doJSON(t, r, http.MethodPost, "/api/sessions/"+id+"/actions", huge)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d body=%s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["error"]; got != "request_too_large" {
		t.Fatalf("unexpected error code %v", got)
	}
}

func TestParseLimitClamps(t *testing.T) {
	cases := map[string]int{"": 50, "?limit=0": 1, "?limit=7": 7, "?limit=9000": 500, "?limit=abc": 50}
	for query, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions"+query, nil)
		if got := ParseLimit(req); got != want {
			t.Fatalf("ParseLimit(%q) = %d, want %d", query, got, want)
		}
	}
}
