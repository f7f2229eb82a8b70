package httptransport

import (
	"net/http"

	"burn-casino/internal/session"

	"github.com/go-chi/chi/v5"
)

// StateHandler returns the seat view for ?player_id= and the public view
// otherwise.
func StateHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := mgr.Get(chi.URLParam(r, "session_id"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			writeJSON(w, http.StatusOK, t.PublicView())
			return
		}
		view, err := t.PlayerView(playerID)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
