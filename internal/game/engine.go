package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type Engine struct {
	State   GameState
	Players []*Player
	Deck    *Deck
	discard []Card
	rnd     *rand.Rand
}

func NewEngine(rnd *rand.Rand) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rnd: rnd}
}

// AddPlayer seats p at the end of the turn order. Only allowed before the
// game starts.
func (e *Engine) AddPlayer(p *Player) error {
	if e.State.Day != 0 || e.State.GameOver {
		return ErrAlreadyStarted
	}
	if p == nil || strings.TrimSpace(p.ID) == "" || p.Bankroll < 0 {
		return ErrInvalidPlayer
	}
	if e.PlayerIndex(p.ID) >= 0 {
		return ErrDuplicatePlayer
	}
	if len(e.Players) >= MaxPlayers {
		return ErrInvalidPlayer
	}
	p.Hand = nil
	p.MadeHand = false
	p.LastAction = ""
	e.Players = append(e.Players, p)
	return nil
}

func (e *Engine) PlayerIndex(id string) int {
	for i, p := range e.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// StartGame deals four cards to every seat from a fresh deck and opens day 1
// betting.
func (e *Engine) StartGame() error {
	if e.State.Day != 0 || e.State.GameOver {
		return ErrAlreadyStarted
	}
	if len(e.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	deck := NewDeck(e.rnd)
	for _, p := range e.Players {
		hand := make([]Card, 0, HandSize)
		for i := 0; i < HandSize; i++ {
			c, err := deck.Draw()
			if err != nil {
				return fmt.Errorf("initial deal: %w", err)
			}
			hand = append(hand, c)
		}
		p.Hand = hand
		p.LastAction = ""
	}
	e.Deck = deck
	e.discard = nil
	e.State = GameState{
		Day:          1,
		Phase:        PhaseBetting,
		MaxBurnCards: MaxBurnCardsForDay(1),
	}
	for _, p := range e.Players {
		e.evaluate(p)
	}
	e.checkInvariants()
	return nil
}

type Action struct {
	Player int
	Type   ActionType
	Cards  []Card
}

// ApplyAction validates and applies a. A rejected action leaves the state
// unchanged, except for a burn that hits ErrEmptyDeck mid-way (see applyBurn).
func (e *Engine) ApplyAction(a Action) error {
	switch a.Type {
	case ActionBurn:
		return e.applyBurn(a.Player, a.Cards)
	case ActionReveal:
		return e.ForceReveal(a.Player)
	default:
		return e.applyBet(a.Player, a.Type)
	}
}

func (e *Engine) applyBet(playerIdx int, action ActionType) error {
	if err := ValidateBet(&e.State, playerIdx, action); err != nil {
		return err
	}
	e.Players[playerIdx].LastAction = action
	e.nextPlayerTurn()
	return nil
}

// applyBurn replaces the selected cards left to right, each at the position
// the burned card held. A draw failure aborts the remaining replacements and
// keeps the ones already made; the turn does not advance in that case.
func (e *Engine) applyBurn(playerIdx int, selection []Card) error {
	var hand []Card
	if playerIdx >= 0 && playerIdx < len(e.Players) {
		hand = e.Players[playerIdx].Hand
	}
	if err := ValidateBurn(&e.State, playerIdx, hand, selection); err != nil {
		return err
	}
	p := e.Players[playerIdx]
	for n, c := range selection {
		next, err := e.Deck.Draw()
		if err != nil {
			e.evaluate(p)
			e.checkInvariants()
			return fmt.Errorf("burn %d of %d: %w", n+1, len(selection), err)
		}
		i := indexOf(p.Hand, c)
		p.Hand[i] = next
		e.discard = append(e.discard, c)
	}
	p.LastAction = ActionBurn
	e.evaluate(p)
	e.checkInvariants()
	e.nextPlayerTurn()
	return nil
}

// ForceReveal ends the game immediately on behalf of any seated player.
func (e *Engine) ForceReveal(playerIdx int) error {
	if e.State.Day == 0 {
		return ErrGameNotStarted
	}
	if e.State.GameOver {
		return ErrGameOver
	}
	if playerIdx < 0 || playerIdx >= len(e.Players) {
		return ErrInvalidPlayer
	}
	e.Players[playerIdx].LastAction = ActionReveal
	e.reveal()
	return nil
}

func (e *Engine) nextPlayerTurn() {
	e.State.CurrentPlayerIndex = (e.State.CurrentPlayerIndex + 1) % len(e.Players)
	e.State.RotationComplete = e.State.CurrentPlayerIndex == 0
	if !e.State.RotationComplete {
		return
	}
	if e.State.Phase == PhaseBetting {
		e.State.Phase = PhaseBurning
		return
	}
	if e.State.Day < FinalDay {
		e.State.Day++
		e.State.MaxBurnCards = MaxBurnCardsForDay(e.State.Day)
		e.State.Phase = PhaseBetting
		return
	}
	e.reveal()
}

func (e *Engine) reveal() {
	e.State.MaxBurnCards = 0
	e.State.GameOver = true
}

func (e *Engine) evaluate(p *Player) {
	p.MadeHand = IsMadeHand(p.Hand)
	made := false
	for _, pl := range e.Players {
		if pl.MadeHand {
			made = true
			break
		}
	}
	e.State.MadeHand = made
}

func (e *Engine) Snapshot() Snapshot {
	players := make([]Player, 0, len(e.Players))
	for _, p := range e.Players {
		players = append(players, p.clone())
	}
	remaining := 0
	if e.Deck != nil {
		remaining = e.Deck.Len()
	}
	return Snapshot{
		State:         e.State,
		Players:       players,
		DeckRemaining: remaining,
		Discarded:     len(e.discard),
	}
}

func (e *Engine) Discard() []Card {
	return append([]Card(nil), e.discard...)
}

// checkInvariants panics when the deck, hands and discard pile stop
// partitioning the 52 cards.
func (e *Engine) checkInvariants() {
	if e.Deck == nil {
		return
	}
	seen := make(map[Card]struct{}, DeckSize)
	add := func(c Card, where string) {
		if _, dup := seen[c]; dup {
			panic(fmt.Sprintf("game: duplicate card %s in %s", c, where))
		}
		seen[c] = struct{}{}
	}
	for _, c := range e.Deck.cards {
		add(c, "deck")
	}
	for _, p := range e.Players {
		if len(p.Hand) > HandSize {
			panic(fmt.Sprintf("game: player %s holds %d cards", p.ID, len(p.Hand)))
		}
		for _, c := range p.Hand {
			add(c, "hand "+p.ID)
		}
	}
	for _, c := range e.discard {
		add(c, "discard")
	}
	if len(seen) != DeckSize {
		panic(fmt.Sprintf("game: %d cards accounted for, want %d", len(seen), DeckSize))
	}
	if e.State.CurrentPlayerIndex < 0 || e.State.CurrentPlayerIndex >= len(e.Players) {
		panic(fmt.Sprintf("game: current player index %d out of range", e.State.CurrentPlayerIndex))
	}
}
