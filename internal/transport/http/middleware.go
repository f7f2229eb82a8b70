package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"burn-casino/internal/logging"
	"burn-casino/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/zerolog/log"
)

// maxActionBody bounds an action request. The largest legal body is a burn
// of three short card strings plus a 64 byte request id.
const maxActionBody = 8 << 10

// APILogMiddleware logs one JSON line per request through httplog, tagged
// with the session and player it touched.
func APILogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				attrs := []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("route", routePattern(req)),
				}
				if id := chi.URLParam(req, "session_id"); id != "" {
					attrs = append(attrs, slog.String("session_id", id))
				}
				if id := req.URL.Query().Get("player_id"); id != "" {
					attrs = append(attrs, slog.String("player_id", id))
				}
				return attrs
			},
		},
	)
}

func routePattern(req *http.Request) string {
	if rc := chi.RouteContext(req.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return req.URL.Path
}

// ActionBodyMiddleware caps the request body and attaches the submitted
// action and the table's answer to the request log line.
func ActionBodyMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBody))
			if err != nil {
				WriteHTTPError(w, http.StatusRequestEntityTooLarge, "request_too_large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			httplog.SetAttrs(r.Context(),
				slog.Any("action", decodeForLog(body)),
				slog.Any("result", decodeForLog(rec.body.Bytes())),
			)
		})
	}
}

// responseCapture keeps a copy of a small JSON response for logging.
type responseCapture struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (c *responseCapture) Write(p []byte) (int, error) {
	if room := maxActionBody - c.body.Len(); room > 0 {
		if len(p) > room {
			c.body.Write(p[:room])
		} else {
			c.body.Write(p)
		}
	}
	return c.ResponseWriter.Write(p)
}

func decodeForLog(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err == nil {
		return out
	}
	return string(b)
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

// writeSessionError maps err through the shared session error table. Codes
// that land on 5xx are logged since the caller only sees the code.
func writeSessionError(w http.ResponseWriter, err error) {
	status, code := session.MapError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Msg("session request failed")
	}
	WriteHTTPError(w, status, code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ParseLimit reads ?limit= clamped to [1, 500], defaulting to 50.
func ParseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return min(max(limit, 1), 500)
}
