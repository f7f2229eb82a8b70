package httptransport

import (
	"encoding/json"
	"net/http"

	"burn-casino/internal/session"

	"github.com/go-chi/chi/v5"
)

type actionBody struct {
	session.ActionRequest
	Cards []string `json:"cards,omitempty"`
}

func ActionsHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricHTTPActionTotal.Add(1)
		t, err := mgr.Get(chi.URLParam(r, "session_id"))
		if err != nil {
			metricHTTPActionErrors.Add(1)
			writeSessionError(w, err)
			return
		}
		var body actionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			metricHTTPActionErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req := body.ActionRequest
		if req.Cards, err = session.ParseCards(body.Cards); err != nil {
			metricHTTPActionErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_card")
			return
		}
		res, err := t.Submit(r.Context(), req)
		if err != nil {
			metricHTTPActionErrors.Add(1)
			status, code := session.MapError(err)
			if res.Reason == "" {
				WriteHTTPError(w, status, code)
				return
			}
			writeJSON(w, status, struct {
				Error string `json:"error"`
				session.ActionResult
			}{Error: code, ActionResult: res})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
