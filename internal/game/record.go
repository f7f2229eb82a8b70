package game

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRecord = errors.New("invalid_record")

type CardRecord struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

type PlayerRecord struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Bankroll   *int64       `json:"bankroll,omitempty"`
	Hand       []CardRecord `json:"hand"`
	MadeHand   bool         `json:"made_hand"`
	LastAction string       `json:"last_action,omitempty"`
	AITier     string       `json:"ai_tier,omitempty"`
}

type StateRecord struct {
	Day                int    `json:"day"`
	Phase              string `json:"phase,omitempty"`
	CurrentPlayerIndex int    `json:"current_player_index"`
	MaxBurnCards       int    `json:"max_burn_cards"`
	MadeHand           bool   `json:"made_hand"`
	RotationComplete   bool   `json:"rotation_complete"`
	GameOver           bool   `json:"game_over"`
}

func HandRecords(hand []Card) []CardRecord {
	out := make([]CardRecord, 0, len(hand))
	for _, c := range hand {
		out = append(out, CardRecord{Rank: string(c.Rank), Suit: string(c.Suit)})
	}
	return out
}

// DecodeCard rejects empty or unknown rank/suit strings instead of building a
// placeholder card.
func DecodeCard(r CardRecord) (Card, error) {
	c := Card{Rank: Rank(strings.TrimSpace(r.Rank)), Suit: Suit(strings.ToLower(strings.TrimSpace(r.Suit)))}
	if !c.Valid() {
		return Card{}, fmt.Errorf("%w: rank=%q suit=%q", ErrInvalidCard, r.Rank, r.Suit)
	}
	return c, nil
}

func DecodeHand(recs []CardRecord) ([]Card, error) {
	if len(recs) > HandSize {
		return nil, fmt.Errorf("%w: hand has %d cards", ErrInvalidRecord, len(recs))
	}
	hand := make([]Card, 0, len(recs))
	seen := make(map[Card]struct{}, len(recs))
	for i, r := range recs {
		c, err := DecodeCard(r)
		if err != nil {
			return nil, fmt.Errorf("hand[%d]: %w", i, err)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate card %s", ErrInvalidRecord, c)
		}
		seen[c] = struct{}{}
		hand = append(hand, c)
	}
	return hand, nil
}

func EncodePlayer(p Player) PlayerRecord {
	bankroll := p.Bankroll
	return PlayerRecord{
		ID:         p.ID,
		Name:       p.Name,
		Bankroll:   &bankroll,
		Hand:       HandRecords(p.Hand),
		MadeHand:   p.MadeHand,
		LastAction: string(p.LastAction),
		AITier:     p.AITier,
	}
}

// DecodePlayer builds a Player from a stored record. A missing bankroll
// takes DefaultBankroll; every other missing or malformed field is an error.
func DecodePlayer(r PlayerRecord) (*Player, error) {
	if strings.TrimSpace(r.ID) == "" {
		return nil, fmt.Errorf("%w: missing player id", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("%w: player %s has no name", ErrInvalidRecord, r.ID)
	}
	bankroll := DefaultBankroll
	if r.Bankroll != nil {
		bankroll = *r.Bankroll
	}
	if bankroll < 0 {
		return nil, fmt.Errorf("%w: player %s has negative bankroll", ErrInvalidRecord, r.ID)
	}
	hand, err := DecodeHand(r.Hand)
	if err != nil {
		return nil, fmt.Errorf("player %s: %w", r.ID, err)
	}
	action := ActionType(r.LastAction)
	if action != "" && !action.IsBet() && action != ActionBurn && action != ActionReveal {
		return nil, fmt.Errorf("%w: player %s has unknown last action %q", ErrInvalidRecord, r.ID, r.LastAction)
	}
	return &Player{
		ID:         r.ID,
		Name:       r.Name,
		Bankroll:   bankroll,
		Hand:       hand,
		MadeHand:   IsMadeHand(hand),
		LastAction: action,
		AITier:     r.AITier,
	}, nil
}

func EncodeState(s GameState) StateRecord {
	return StateRecord{
		Day:                s.Day,
		Phase:              string(s.Phase),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		MaxBurnCards:       s.MaxBurnCards,
		MadeHand:           s.MadeHand,
		RotationComplete:   s.RotationComplete,
		GameOver:           s.GameOver,
	}
}

// DecodeState validates r against playerCount and the burn allowance table.
func DecodeState(r StateRecord, playerCount int) (GameState, error) {
	if r.Day < 0 || r.Day > FinalDay {
		return GameState{}, fmt.Errorf("%w: day %d", ErrInvalidRecord, r.Day)
	}
	phase := Phase(r.Phase)
	switch {
	case r.Day == 0 && phase != "":
		return GameState{}, fmt.Errorf("%w: phase %q before start", ErrInvalidRecord, r.Phase)
	case r.Day > 0 && phase != PhaseBetting && phase != PhaseBurning:
		return GameState{}, fmt.Errorf("%w: phase %q", ErrInvalidRecord, r.Phase)
	}
	want := MaxBurnCardsForDay(r.Day)
	if r.GameOver {
		want = 0
	}
	if r.MaxBurnCards != want {
		return GameState{}, fmt.Errorf("%w: max_burn_cards %d on day %d", ErrInvalidRecord, r.MaxBurnCards, r.Day)
	}
	if r.CurrentPlayerIndex < 0 || (playerCount > 0 && r.CurrentPlayerIndex >= playerCount) {
		return GameState{}, fmt.Errorf("%w: current_player_index %d with %d players", ErrInvalidRecord, r.CurrentPlayerIndex, playerCount)
	}
	return GameState{
		Day:                r.Day,
		Phase:              phase,
		CurrentPlayerIndex: r.CurrentPlayerIndex,
		MaxBurnCards:       r.MaxBurnCards,
		MadeHand:           r.MadeHand,
		RotationComplete:   r.RotationComplete,
		GameOver:           r.GameOver,
	}, nil
}
