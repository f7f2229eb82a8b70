package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"burn-casino/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler replays buffered session events after Last-Event-ID (or
// ?last_event_id=) and then streams live ones until the session closes.
func EventsSSEHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		t, err := mgr.Get(sessionID)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}
		buf := t.Buffer()

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		SetSSEHeaders(w)
		log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("session_id", sessionID).
			Msg("sse stream opened")

		// Subscribe before replaying so nothing lands between the two.
		ch, cancel := buf.Watch()
		defer cancel()

		lastEventID := r.Header.Get("Last-Event-ID")
		if lastEventID == "" {
			lastEventID = r.URL.Query().Get("last_event_id")
		}
		sent := lastEventID
		replay, complete := buf.Since(lastEventID)
		if !complete {
			// The client missed events that left the window; hand it the
			// current state before the tail.
			resync := session.StreamEvent{
				Event:     "resync",
				SessionID: sessionID,
				ServerTS:  time.Now().UnixMilli(),
				Data:      t.PublicView(),
			}
			if err := WriteSSE(w, resync); err != nil {
				return
			}
			logSSEEvent(r, sessionID, "resync", resync)
			sent = ""
		}
		for _, ev := range replay {
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			logSSEEvent(r, sessionID, "replay", ev)
			sent = ev.EventID
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Info().
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("session_id", sessionID).
					Err(r.Context().Err()).
					Msg("sse stream closed")
				return
			case ev, ok := <-ch:
				if !ok {
					log.Info().
						Str("request_id", chimw.GetReqID(r.Context())).
						Str("session_id", sessionID).
						Msg("sse stream channel closed")
					return
				}
				if !newerThan(ev.EventID, sent) {
					continue
				}
				if err := WriteSSE(w, ev); err != nil {
					return
				}
				logSSEEvent(r, sessionID, "live", ev)
				sent = ev.EventID
				flusher.Flush()
			case <-ticker.C:
				ping := session.StreamEvent{
					Event:     "ping",
					SessionID: sessionID,
					ServerTS:  time.Now().UnixMilli(),
					Data:      map[string]any{"ts": time.Now().UnixMilli()},
				}
				if err := WriteSSE(w, ping); err != nil {
					return
				}
				logSSEEvent(r, sessionID, "ping", ping)
				flusher.Flush()
			}
		}
	}
}

func logSSEEvent(r *http.Request, sessionID, source string, ev session.StreamEvent) {
	evt := log.Info()
	if ev.Event == "ping" {
		evt = log.Debug()
	}
	evt.
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("session_id", sessionID).
		Str("event", ev.Event).
		Str("event_id", ev.EventID).
		Str("source", source).
		Int64("server_ts", ev.ServerTS).
		Msg("sse event sent")
}

// newerThan reports whether event id comes after last. Replay and the live
// channel overlap briefly, so the stream drops what it already wrote.
func newerThan(id, last string) bool {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return true
	}
	l, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return true
	}
	return n > l
}
