package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaFS embed.FS

// NotifyChannel carries the session id of every committed write.
const NotifyChannel = "burn_session_updates"

// Store is the Postgres SessionStore.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, string(ddl))
	return err
}

func (s *Store) Get(ctx context.Context, sessionID string) (SessionRecord, error) {
	var (
		version int64
		doc     []byte
	)
	err := s.Pool.QueryRow(ctx, `SELECT version, doc FROM burn_sessions WHERE id = $1`, sessionID).Scan(&version, &doc)
	if err != nil {
		return SessionRecord{}, mapNotFound(err)
	}
	rec, err := DecodeRecord(doc)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	rec.Version = version
	return rec, nil
}

func (s *Store) Put(ctx context.Context, rec SessionRecord, expected int64) (int64, error) {
	if err := Validate(rec); err != nil {
		return 0, err
	}
	rec.Version = expected + 1
	doc, err := EncodeRecord(rec)
	if err != nil {
		return 0, err
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var tag int64
	if expected == 0 {
		ct, err := tx.Exec(ctx, `
			INSERT INTO burn_sessions (id, version, doc) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING`, rec.SessionID, rec.Version, doc)
		if err != nil {
			return 0, err
		}
		tag = ct.RowsAffected()
	} else {
		ct, err := tx.Exec(ctx, `
			UPDATE burn_sessions SET version = $2, doc = $3, updated_at = now()
			WHERE id = $1 AND version = $4`, rec.SessionID, rec.Version, doc, expected)
		if err != nil {
			return 0, err
		}
		tag = ct.RowsAffected()
	}
	if tag == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM burn_sessions WHERE id = $1)`, rec.SessionID).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists && expected != 0 {
			return 0, ErrNotFound
		}
		return 0, ErrWriteConflict
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, rec.SessionID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return rec.Version, nil
}

// Subscribe holds one dedicated connection in LISTEN for the life of ctx and
// re-reads the session on every notification naming it.
func (s *Store) Subscribe(ctx context.Context, sessionID string) (<-chan SessionRecord, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, err
	}
	// The listening connection leaves the pool for good.
	listener := conn.Hijack()
	out := make(chan SessionRecord, subscriberBuffer)
	go func() {
		defer close(out)
		defer listener.Close(context.Background())
		for {
			n, err := listener.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Str("session_id", sessionID).Msg("session listen failed")
				}
				return
			}
			if n.Payload != sessionID {
				continue
			}
			rec, err := s.Get(ctx, sessionID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return
				}
				log.Error().Err(err).Str("session_id", sessionID).Msg("session reload failed")
				continue
			}
			offer(out, rec)
		}
	}()
	return out, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `SELECT version, doc FROM burn_sessions ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SessionRecord{}
	for rows.Next() {
		var (
			version int64
			doc     []byte
		)
		if err := rows.Scan(&version, &doc); err != nil {
			return nil, err
		}
		rec, err := DecodeRecord(doc)
		if err != nil {
			log.Warn().Err(err).Msg("skip undecodable session record")
			continue
		}
		rec.Version = version
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	ct, err := s.Pool.Exec(ctx, `DELETE FROM burn_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
