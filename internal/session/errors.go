package session

import "errors"

var (
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrSessionClosed     = errors.New("session_closed")
	ErrTooManySessions   = errors.New("too_many_sessions")
	ErrInvalidRequestID  = errors.New("invalid_request_id")
	ErrPlayerNotFound    = errors.New("player_not_found")
	ErrInvalidActionKind = errors.New("invalid_action_kind")
	ErrStoreUnavailable  = errors.New("session_store_unavailable")
)
