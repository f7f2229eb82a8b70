package store

import (
	"context"
	"testing"

	"burn-casino/internal/game"
	"burn-casino/internal/testutil"
)

// openStore returns a migrated Postgres store in a fresh schema. It is closed
// when t finishes.
func openStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	st, err := New(testutil.PostgresDSN(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st, ctx
}

// startedRecord returns a valid record of a freshly started two-player game.
func startedRecord(t *testing.T, id string) SessionRecord {
	t.Helper()
	e := game.NewEngine(nil)
	if err := e.AddPlayer(game.NewPlayer("p1", "Ann")); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if err := e.AddPlayer(game.NewPlayer("p2", "Bob")); err != nil {
		t.Fatalf("add p2: %v", err)
	}
	if err := e.StartGame(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return RecordFromSnapshot(id, e.Snapshot())
}
