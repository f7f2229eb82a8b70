package game

import (
	"errors"
	"math/rand"
	"testing"
)

func newStartedEngine(t *testing.T, players int, seed int64) *Engine {
	t.Helper()
	e := NewEngine(rand.New(rand.NewSource(seed)))
	for i := 0; i < players; i++ {
		id := string(rune('a' + i))
		if err := e.AddPlayer(NewPlayer("p"+id, "Player "+id)); err != nil {
			t.Fatalf("add player %d: %v", i, err)
		}
	}
	if err := e.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return e
}

func mustApply(t *testing.T, e *Engine, a Action) {
	t.Helper()
	if err := e.ApplyAction(a); err != nil {
		t.Fatalf("apply %+v: %v", a, err)
	}
}

func TestStartGameDealsFourCardsEach(t *testing.T) {
	e := newStartedEngine(t, 3, 1)
	for _, p := range e.Players {
		if len(p.Hand) != HandSize {
			t.Fatalf("player %s has %d cards", p.ID, len(p.Hand))
		}
	}
	if e.Deck.Len() != DeckSize-3*HandSize {
		t.Fatalf("deck len = %d", e.Deck.Len())
	}
	s := e.State
	if s.Day != 1 || s.Phase != PhaseBetting || s.MaxBurnCards != 3 || s.CurrentPlayerIndex != 0 || s.GameOver {
		t.Fatalf("unexpected initial state: %+v", s)
	}
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	e := NewEngine(rand.New(rand.NewSource(1)))
	if err := e.AddPlayer(NewPlayer("solo", "Solo")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.StartGame(); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
}

func TestAddPlayerRejectsDuplicatesAndLateJoins(t *testing.T) {
	e := newStartedEngine(t, 2, 1)
	if err := e.AddPlayer(NewPlayer("late", "Late")); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	fresh := NewEngine(nil)
	_ = fresh.AddPlayer(NewPlayer("x", "X"))
	if err := fresh.AddPlayer(NewPlayer("x", "X again")); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("expected ErrDuplicatePlayer, got %v", err)
	}
}

func TestBettingRotationMovesToBurningSameDay(t *testing.T) {
	e := newStartedEngine(t, 3, 2)
	mustApply(t, e, Action{Player: 0, Type: ActionCheck})
	mustApply(t, e, Action{Player: 1, Type: ActionBet})
	if e.State.Phase != PhaseBetting || e.State.RotationComplete {
		t.Fatalf("rotation ended early: %+v", e.State)
	}
	mustApply(t, e, Action{Player: 2, Type: ActionRaise})
	if e.State.Phase != PhaseBurning || e.State.Day != 1 || !e.State.RotationComplete {
		t.Fatalf("expected day 1 burning, got %+v", e.State)
	}
}

func TestBurningRotationAdvancesDay(t *testing.T) {
	e := newStartedEngine(t, 2, 3)
	for day := 1; day <= FinalDay; day++ {
		if e.State.MaxBurnCards != MaxBurnCardsForDay(day) {
			t.Fatalf("day %d max burn = %d", day, e.State.MaxBurnCards)
		}
		mustApply(t, e, Action{Player: 0, Type: ActionCheck})
		mustApply(t, e, Action{Player: 1, Type: ActionCheck})
		mustApply(t, e, Action{Player: 0, Type: ActionBurn})
		mustApply(t, e, Action{Player: 1, Type: ActionBurn})
		if day < FinalDay {
			if e.State.Day != day+1 || e.State.Phase != PhaseBetting || e.State.GameOver {
				t.Fatalf("after day %d burn: %+v", day, e.State)
			}
		}
	}
	if !e.State.GameOver || e.State.MaxBurnCards != 0 || e.State.Stage() != StageRevealed {
		t.Fatalf("expected revealed after day 3 burn: %+v", e.State)
	}
	if err := e.ApplyAction(Action{Player: 0, Type: ActionCheck}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestTwoPlayerScenario(t *testing.T) {
	e := newStartedEngine(t, 2, 4)
	mustApply(t, e, Action{Player: 0, Type: ActionCheck})
	mustApply(t, e, Action{Player: 1, Type: ActionCheck})
	if e.State.Phase != PhaseBurning || e.State.Day != 1 || e.State.MaxBurnCards != 3 {
		t.Fatalf("expected day 1 burning with 3 burns, got %+v", e.State)
	}
	mustApply(t, e, Action{Player: 0, Type: ActionBurn, Cards: e.Players[0].Hand[:1]})
	mustApply(t, e, Action{Player: 1, Type: ActionBurn, Cards: e.Players[1].Hand[:1]})
	if e.State.Day != 2 || e.State.MaxBurnCards != 2 || e.State.Phase != PhaseBetting {
		t.Fatalf("expected day 2 betting with 2 burns, got %+v", e.State)
	}
}

func TestWrongTurnRejected(t *testing.T) {
	e := newStartedEngine(t, 2, 5)
	before := e.State
	if err := e.ApplyAction(Action{Player: 1, Type: ActionCheck}); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("expected ErrInvalidTurn, got %v", err)
	}
	if e.State != before {
		t.Fatalf("state changed on rejected action: %+v", e.State)
	}
}

func TestPhaseMismatchRejected(t *testing.T) {
	e := newStartedEngine(t, 2, 6)
	if err := e.ApplyAction(Action{Player: 0, Type: ActionBurn, Cards: e.Players[0].Hand[:1]}); !errors.Is(err, ErrInvalidPhaseAction) {
		t.Fatalf("burn during betting: expected ErrInvalidPhaseAction, got %v", err)
	}
	mustApply(t, e, Action{Player: 0, Type: ActionCheck})
	mustApply(t, e, Action{Player: 1, Type: ActionCheck})
	if err := e.ApplyAction(Action{Player: 0, Type: ActionBet}); !errors.Is(err, ErrInvalidPhaseAction) {
		t.Fatalf("bet during burning: expected ErrInvalidPhaseAction, got %v", err)
	}
}

func TestActionsBeforeStartRejected(t *testing.T) {
	e := NewEngine(nil)
	_ = e.AddPlayer(NewPlayer("a", "A"))
	_ = e.AddPlayer(NewPlayer("b", "B"))
	if err := e.ApplyAction(Action{Player: 0, Type: ActionCheck}); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("expected ErrGameNotStarted, got %v", err)
	}
	if err := e.ForceReveal(0); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("expected ErrGameNotStarted for reveal, got %v", err)
	}
}

func TestUnknownBetActionRejected(t *testing.T) {
	e := newStartedEngine(t, 2, 6)
	if err := e.ApplyAction(Action{Player: 0, Type: "allin"}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestForceRevealEndsGame(t *testing.T) {
	e := newStartedEngine(t, 3, 7)
	mustApply(t, e, Action{Player: 0, Type: ActionCheck})
	if err := e.ForceReveal(2); err != nil {
		t.Fatalf("force reveal: %v", err)
	}
	if !e.State.GameOver || e.State.MaxBurnCards != 0 {
		t.Fatalf("expected game over, got %+v", e.State)
	}
	if e.Players[2].LastAction != ActionReveal {
		t.Fatalf("last action = %q", e.Players[2].LastAction)
	}
}
