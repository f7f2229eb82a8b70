package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"burn-casino/internal/game"
	"burn-casino/internal/policy"
)

// MapError turns a session or engine error into an HTTP status and a stable
// error code shared by every transport.
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, ErrPlayerNotFound):
		return http.StatusNotFound, "player_not_found"
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone, "session_closed"
	case errors.Is(err, ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "session_store_unavailable"
	case errors.Is(err, ErrInvalidRequestID):
		return http.StatusBadRequest, "invalid_request_id"
	case errors.Is(err, ErrInvalidActionKind):
		return http.StatusBadRequest, "invalid_action_kind"
	case errors.Is(err, policy.ErrUnknownTier):
		return http.StatusBadRequest, "unknown_tier"
	case errors.Is(err, game.ErrInvalidTurn):
		return http.StatusConflict, "not_your_turn"
	case errors.Is(err, game.ErrInvalidPhaseAction):
		return http.StatusConflict, "invalid_phase_action"
	case errors.Is(err, game.ErrGameNotStarted):
		return http.StatusConflict, "game_not_started"
	case errors.Is(err, game.ErrGameOver):
		return http.StatusConflict, "game_over"
	case errors.Is(err, game.ErrAlreadyStarted):
		return http.StatusConflict, "game_already_started"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return http.StatusConflict, "not_enough_players"
	case errors.Is(err, game.ErrEmptyDeck):
		return http.StatusConflict, "empty_deck"
	case errors.Is(err, game.ErrDuplicatePlayer):
		return http.StatusConflict, "duplicate_player"
	case errors.Is(err, game.ErrInvalidSelection):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, game.ErrInvalidAction):
		return http.StatusBadRequest, "invalid_action"
	case errors.Is(err, game.ErrInvalidCard):
		return http.StatusBadRequest, "invalid_card"
	case errors.Is(err, game.ErrInvalidPlayer):
		return http.StatusBadRequest, "invalid_player"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ParseCards decodes card strings such as "Ah" or "10s".
func ParseCards(raw []string) ([]game.Card, error) {
	cards := make([]game.Card, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		c, err := game.ParseCard(s)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
