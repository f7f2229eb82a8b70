package viewmodel

import "burn-casino/internal/game"

type SeatView struct {
	Seat       int      `json:"seat"`
	PlayerID   string   `json:"player_id"`
	Name       string   `json:"name"`
	Bankroll   int64    `json:"bankroll"`
	LastAction string   `json:"last_action,omitempty"`
	AITier     string   `json:"ai_tier,omitempty"`
	CardCount  int      `json:"card_count"`
	Hand       []string `json:"hand,omitempty"`
	MadeHand   *bool    `json:"made_hand,omitempty"`
}

// PlayerStateView is what a seated player sees: their own hand always, other
// hands only once the game is revealed.
type PlayerStateView struct {
	SessionID       string     `json:"session_id"`
	Version         int64      `json:"version"`
	Stage           string     `json:"stage"`
	Day             int        `json:"day"`
	Phase           string     `json:"phase,omitempty"`
	CurrentPlayerID string     `json:"current_player_id,omitempty"`
	MaxBurnCards    int        `json:"max_burn_cards"`
	TurnTimeoutMS   int64      `json:"turn_timeout_ms"`
	DeckRemaining   int        `json:"deck_remaining"`
	MySeat          int        `json:"my_seat"`
	MyHand          []string   `json:"my_hand"`
	MyMadeHand      bool       `json:"my_made_hand"`
	AnyMadeHand     bool       `json:"any_made_hand"`
	MyTurn          bool       `json:"my_turn"`
	LegalActions    []string   `json:"legal_actions"`
	Seats           []SeatView `json:"seats"`
}

type PublicStateView struct {
	SessionID       string     `json:"session_id"`
	Version         int64      `json:"version"`
	Stage           string     `json:"stage"`
	Day             int        `json:"day"`
	Phase           string     `json:"phase,omitempty"`
	CurrentPlayerID string     `json:"current_player_id,omitempty"`
	MaxBurnCards    int        `json:"max_burn_cards"`
	TurnTimeoutMS   int64      `json:"turn_timeout_ms"`
	DeckRemaining   int        `json:"deck_remaining"`
	AnyMadeHand     bool       `json:"any_made_hand"`
	Seats           []SeatView `json:"seats"`
}

// Meta carries the session fields the engine snapshot does not know about.
type Meta struct {
	SessionID     string
	Version       int64
	TurnTimeoutMS int64
}

func Cards(hand []game.Card) []string {
	out := make([]string, 0, len(hand))
	for _, c := range hand {
		out = append(out, c.String())
	}
	return out
}

func seats(snap game.Snapshot, viewer int) []SeatView {
	revealed := snap.State.GameOver
	out := make([]SeatView, 0, len(snap.Players))
	for i, p := range snap.Players {
		sv := SeatView{
			Seat:       i,
			PlayerID:   p.ID,
			Name:       p.Name,
			Bankroll:   p.Bankroll,
			LastAction: string(p.LastAction),
			AITier:     p.AITier,
			CardCount:  len(p.Hand),
		}
		if revealed || i == viewer {
			made := p.MadeHand
			sv.Hand = Cards(p.Hand)
			sv.MadeHand = &made
		}
		out = append(out, sv)
	}
	return out
}

func currentID(snap game.Snapshot) string {
	if p, ok := snap.CurrentPlayer(); ok {
		return p.ID
	}
	return ""
}

// LegalActions lists the action types the player at seat may submit now.
func LegalActions(snap game.Snapshot, seat int) []string {
	if snap.State.Day == 0 || snap.State.GameOver || seat < 0 || seat >= len(snap.Players) {
		return []string{}
	}
	out := []string{}
	if seat == snap.State.CurrentPlayerIndex {
		if snap.State.Phase == game.PhaseBetting {
			for _, a := range []game.ActionType{game.ActionCheck, game.ActionBet, game.ActionFold, game.ActionCall, game.ActionRaise} {
				out = append(out, string(a))
			}
		} else {
			out = append(out, string(game.ActionBurn))
		}
	}
	return append(out, string(game.ActionReveal))
}

func BuildPlayerState(snap game.Snapshot, meta Meta, seat int) PlayerStateView {
	view := PlayerStateView{
		SessionID:       meta.SessionID,
		Version:         meta.Version,
		Stage:           string(snap.State.Stage()),
		Day:             snap.State.Day,
		Phase:           string(snap.State.Phase),
		CurrentPlayerID: currentID(snap),
		MaxBurnCards:    snap.State.MaxBurnCards,
		TurnTimeoutMS:   meta.TurnTimeoutMS,
		DeckRemaining:   snap.DeckRemaining,
		MySeat:          seat,
		MyHand:          []string{},
		AnyMadeHand:     snap.State.MadeHand,
		LegalActions:    LegalActions(snap, seat),
		Seats:           seats(snap, seat),
	}
	if seat >= 0 && seat < len(snap.Players) {
		me := snap.Players[seat]
		view.MyHand = Cards(me.Hand)
		view.MyMadeHand = me.MadeHand
		view.MyTurn = view.CurrentPlayerID == me.ID
	}
	return view
}

func BuildPublicState(snap game.Snapshot, meta Meta) PublicStateView {
	return PublicStateView{
		SessionID:       meta.SessionID,
		Version:         meta.Version,
		Stage:           string(snap.State.Stage()),
		Day:             snap.State.Day,
		Phase:           string(snap.State.Phase),
		CurrentPlayerID: currentID(snap),
		MaxBurnCards:    snap.State.MaxBurnCards,
		TurnTimeoutMS:   meta.TurnTimeoutMS,
		DeckRemaining:   snap.DeckRemaining,
		AnyMadeHand:     snap.State.MadeHand,
		Seats:           seats(snap, -1),
	}
}
