package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"burn-casino/internal/mcpserver"
	"burn-casino/internal/session"
	"burn-casino/internal/store"
	"burn-casino/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter wires every public surface of the game server onto one mux. st
// may be nil when sessions are not mirrored to a shared store.
func NewRouter(mgr *session.Manager, st store.SessionStore) *chi.Mux {
	mcpSrv := mcpserver.New(mgr)
	wsSrv := ws.NewServer(mgr)
	sessions := NewSessionHandlers(mgr, st)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", Health(st))
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	r.Get("/ws", wsSrv.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/sessions", sessions.Create())
		r.Get("/sessions", sessions.List())
		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Delete("/", sessions.Delete())
			r.Post("/players", sessions.Join())
			r.Post("/start", sessions.Start())
			r.Post("/invites", sessions.Invite())
			r.With(ActionBodyMiddleware()).Post("/actions", ActionsHandler(mgr))
			r.Get("/state", StateHandler(mgr))
			r.Get("/record", RecordHandler(st))
			r.Get("/events", EventsSSEHandler(mgr))
		})

		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})
	return r
}

// LogRoutes writes the registered routes as one structured record, sorted by
// path then method.
func LogRoutes(r chi.Routes) {
	var routes []string
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, route+" "+method)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Strings(routes)
	for i, rt := range routes {
		path, method, _ := strings.Cut(rt, " ")
		routes[i] = fmt.Sprintf("%-6s %s", method, path)
	}
	log.Info().Int("count", len(routes)).Strs("routes", routes).Msg("registered routes")
}
