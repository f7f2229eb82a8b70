package game

import (
	"errors"
	"math/rand"
	"testing"
)

func toBurning(t *testing.T, e *Engine) {
	t.Helper()
	for e.State.Phase == PhaseBetting {
		mustApply(t, e, Action{Player: e.State.CurrentPlayerIndex, Type: ActionCheck})
	}
}

func accountedCards(e *Engine) map[Card]int {
	counts := map[Card]int{}
	for _, c := range e.Deck.Cards() {
		counts[c]++
	}
	for _, p := range e.Players {
		for _, c := range p.Hand {
			counts[c]++
		}
	}
	for _, c := range e.Discard() {
		counts[c]++
	}
	return counts
}

func assertPartition(t *testing.T, e *Engine) {
	t.Helper()
	counts := accountedCards(e)
	if len(counts) != DeckSize {
		t.Fatalf("accounted for %d distinct cards, want %d", len(counts), DeckSize)
	}
	for c, n := range counts {
		if n != 1 {
			t.Fatalf("card %s appears %d times", c, n)
		}
	}
}

func TestBurnReplacesInPlace(t *testing.T) {
	e := newStartedEngine(t, 2, 11)
	toBurning(t, e)
	before := append([]Card(nil), e.Players[0].Hand...)
	top := e.Deck.Cards()[:2]
	mustApply(t, e, Action{Player: 0, Type: ActionBurn, Cards: []Card{before[2], before[0]}})
	got := e.Players[0].Hand
	if got[2] != top[0] || got[0] != top[1] {
		t.Fatalf("replacements not in selection order: before=%v after=%v top=%v", before, got, top)
	}
	if got[1] != before[1] || got[3] != before[3] {
		t.Fatalf("unselected cards moved: before=%v after=%v", before, got)
	}
	if e.State.CurrentPlayerIndex != 1 {
		t.Fatalf("turn did not advance: %d", e.State.CurrentPlayerIndex)
	}
	assertPartition(t, e)
}

func TestBurnCardNotInHandRejected(t *testing.T) {
	e := newStartedEngine(t, 2, 12)
	toBurning(t, e)
	before := append([]Card(nil), e.Players[0].Hand...)
	foreign := e.Deck.Cards()[0]
	err := e.ApplyAction(Action{Player: 0, Type: ActionBurn, Cards: []Card{before[0], foreign}})
	if !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	for i := range before {
		if e.Players[0].Hand[i] != before[i] {
			t.Fatalf("hand changed on rejected burn: %v -> %v", before, e.Players[0].Hand)
		}
	}
	if e.State.CurrentPlayerIndex != 0 {
		t.Fatal("turn advanced on rejected burn")
	}
}

func TestBurnOverAllowanceRejected(t *testing.T) {
	e := newStartedEngine(t, 2, 13)
	toBurning(t, e)
	hand := e.Players[0].Hand
	if err := e.ApplyAction(Action{Player: 0, Type: ActionBurn, Cards: hand}); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("4 cards on day 1: expected ErrInvalidSelection, got %v", err)
	}
}

func TestBurnDuplicateSelectionRejected(t *testing.T) {
	e := newStartedEngine(t, 2, 14)
	toBurning(t, e)
	c := e.Players[0].Hand[0]
	if err := e.ApplyAction(Action{Player: 0, Type: ActionBurn, Cards: []Card{c, c}}); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
}

func TestBurnEmptySelectionPasses(t *testing.T) {
	e := newStartedEngine(t, 2, 15)
	toBurning(t, e)
	before := append([]Card(nil), e.Players[0].Hand...)
	mustApply(t, e, Action{Player: 0, Type: ActionBurn})
	for i := range before {
		if e.Players[0].Hand[i] != before[i] {
			t.Fatal("empty burn changed the hand")
		}
	}
}

func TestBurnDeckExhaustionIsPartial(t *testing.T) {
	e := newStartedEngine(t, 2, 16)
	toBurning(t, e)
	for e.Deck.Len() > 3 {
		c, _ := e.Deck.Draw()
		e.discard = append(e.discard, c)
	}
	e.State.MaxBurnCards = 4
	before := append([]Card(nil), e.Players[0].Hand...)
	replacements := e.Deck.Cards()

	err := e.ApplyAction(Action{Player: 0, Type: ActionBurn, Cards: before})
	if !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	hand := e.Players[0].Hand
	for i := 0; i < 3; i++ {
		if hand[i] != replacements[i] {
			t.Fatalf("replacement %d not applied: %v", i, hand)
		}
	}
	if hand[3] != before[3] {
		t.Fatalf("fourth card should be untouched: %v", hand)
	}
	if e.Deck.Len() != 0 || e.State.CurrentPlayerIndex != 0 {
		t.Fatalf("deck=%d current=%d", e.Deck.Len(), e.State.CurrentPlayerIndex)
	}
	assertPartition(t, e)
}

func TestMadeHandReevaluatedAfterBurn(t *testing.T) {
	e := newStartedEngine(t, 2, 17)
	toBurning(t, e)
	made := []Card{{Rank: Ace, Suit: Hearts}, {Rank: Two, Suit: Diamonds}, {Rank: Three, Suit: Clubs}, {Rank: Four, Suit: Spades}}
	rest := []Card{}
	for _, c := range fullDeck(e) {
		if indexOf(made, c) < 0 {
			rest = append(rest, c)
		}
	}
	// Rig the table: player 0 holds three of the made cards plus a filler,
	// and the made hand's last card sits on top of the deck.
	e.Players[0].Hand = []Card{made[0], made[1], made[2], rest[0]}
	e.Players[1].Hand = append([]Card(nil), rest[1:5]...)
	e.Deck = NewDeckFromCards(append([]Card{made[3]}, rest[5:]...))
	e.discard = nil
	e.evaluate(e.Players[0])

	if e.Players[0].MadeHand {
		t.Fatalf("rigged hand should not start made: %v", e.Players[0].Hand)
	}
	mustApply(t, e, Action{Player: 0, Type: ActionBurn, Cards: []Card{rest[0]}})
	if !e.Players[0].MadeHand || !e.State.MadeHand {
		t.Fatalf("expected made hand after burn: %v", e.Players[0].Hand)
	}
}

func fullDeck(e *Engine) []Card {
	out := []Card{}
	for _, s := range Suits {
		for _, r := range Ranks {
			out = append(out, Card{Rank: r, Suit: s})
		}
	}
	return out
}

func TestRandomPlayKeepsPartition(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		e := newStartedEngine(t, 2+int(seed%4), seed)
		assertPartition(t, e)
		for steps := 0; !e.State.GameOver; steps++ {
			if steps > 200 {
				t.Fatalf("seed %d: game did not finish", seed)
			}
			idx := e.State.CurrentPlayerIndex
			if e.State.Phase == PhaseBetting {
				bets := []ActionType{ActionCheck, ActionBet, ActionFold, ActionCall, ActionRaise}
				mustApply(t, e, Action{Player: idx, Type: bets[rnd.Intn(len(bets))]})
			} else {
				n := rnd.Intn(e.State.MaxBurnCards + 1)
				perm := rnd.Perm(HandSize)[:n]
				sel := make([]Card, 0, n)
				for _, i := range perm {
					sel = append(sel, e.Players[idx].Hand[i])
				}
				mustApply(t, e, Action{Player: idx, Type: ActionBurn, Cards: sel})
			}
			assertPartition(t, e)
		}
	}
}
