package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrWriteConflict = errors.New("session_write_conflict")
)

// SessionStore is the shared session document store. The session table
// goroutine is its only writer; everything else reads or subscribes.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (SessionRecord, error)
	// Put writes rec if the stored version equals expected (0 creates) and
	// returns the new version, or ErrWriteConflict.
	Put(ctx context.Context, rec SessionRecord, expected int64) (int64, error)
	// Subscribe streams every record written for sessionID until ctx ends.
	Subscribe(ctx context.Context, sessionID string) (<-chan SessionRecord, error)
	List(ctx context.Context, limit int) ([]SessionRecord, error)
	Delete(ctx context.Context, sessionID string) error
	Close()
}

var (
	_ SessionStore = (*MemoryStore)(nil)
	_ SessionStore = (*Store)(nil)
)
