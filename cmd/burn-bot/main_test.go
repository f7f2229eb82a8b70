package main

import (
	"math/rand"
	"testing"

	"burn-casino/internal/game"
	"burn-casino/internal/game/viewmodel"
	"burn-casino/internal/policy"
)

func mustPolicy(t *testing.T, tier policy.Tier) policy.Policy {
	t.Helper()
	p, err := policy.For(tier, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return p
}

func TestDecideBetting(t *testing.T) {
	msg, ok := decide(mustPolicy(t, policy.TierEasy), viewmodel.PlayerStateView{
		SessionID: "s1", Version: 3, Day: 1, Phase: "betting", MyTurn: true,
	})
	if !ok {
		t.Fatal("expected an action")
	}
	if msg.Kind != "bet" || !game.ActionType(msg.Action).IsBet() {
		t.Fatalf("unexpected bet message: %+v", msg)
	}
	if msg.RequestID != "bot-s1-3" {
		t.Fatalf("unexpected request id %q", msg.RequestID)
	}
}

func TestDecideBurnClampsToAllowance(t *testing.T) {
	msg, ok := decide(mustPolicy(t, policy.TierNormal), viewmodel.PlayerStateView{
		SessionID:    "s1",
		Version:      9,
		Day:          3,
		Phase:        "burning",
		MaxBurnCards: 1,
		MyHand:       []string{"2h", "Ks", "Ad", "5c"},
		MyTurn:       true,
	})
	if !ok {
		t.Fatal("expected an action")
	}
	if msg.Kind != "burn" || len(msg.Cards) != 1 {
		t.Fatalf("unexpected burn message: %+v", msg)
	}
	hand := map[string]bool{"2h": true, "Ks": true, "Ad": true, "5c": true}
	if !hand[msg.Cards[0]] {
		t.Fatalf("burned card %q not in hand", msg.Cards[0])
	}
}

func TestDecideIgnoresBadHandAndFinishedGame(t *testing.T) {
	p := mustPolicy(t, policy.TierHard)
	if _, ok := decide(p, viewmodel.PlayerStateView{Phase: "burning", MaxBurnCards: 3, MyHand: []string{"zz"}}); ok {
		t.Fatal("expected no action for unparseable hand")
	}
	if _, ok := decide(p, viewmodel.PlayerStateView{Stage: "revealed"}); ok {
		t.Fatal("expected no action without a phase")
	}
}
