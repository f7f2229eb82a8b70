package game

import "errors"

var (
	ErrInvalidSelection   = errors.New("invalid_selection")
	ErrInvalidPhaseAction = errors.New("invalid_phase_action")
	ErrInvalidTurn        = errors.New("not_your_turn")
	ErrInvalidAction      = errors.New("invalid_action")
	ErrInvalidCard        = errors.New("invalid_card")
	ErrGameNotStarted     = errors.New("game_not_started")
	ErrGameOver           = errors.New("game_over")
	ErrAlreadyStarted     = errors.New("game_already_started")
	ErrNotEnoughPlayers   = errors.New("not_enough_players")
	ErrDuplicatePlayer    = errors.New("duplicate_player")
	ErrInvalidPlayer      = errors.New("invalid_player")
)

const (
	HandSize    = 4
	FinalDay    = 3
	MinPlayers  = 2
	MaxPlayers  = DeckSize / HandSize
	MaxBurnDay1 = 3
)

// MaxBurnCardsForDay is the burn allowance table: 1->3, 2->2, 3->1, else 0.
func MaxBurnCardsForDay(day int) int {
	switch day {
	case 1:
		return MaxBurnDay1
	case 2:
		return 2
	case 3:
		return 1
	default:
		return 0
	}
}

func validateTurn(s *GameState, playerIdx int) error {
	if s.Day == 0 {
		return ErrGameNotStarted
	}
	if s.GameOver {
		return ErrGameOver
	}
	if playerIdx != s.CurrentPlayerIndex {
		return ErrInvalidTurn
	}
	return nil
}

// ValidateBet checks a betting-phase action without mutating anything.
func ValidateBet(s *GameState, playerIdx int, action ActionType) error {
	if err := validateTurn(s, playerIdx); err != nil {
		return err
	}
	if !action.IsBet() {
		return ErrInvalidAction
	}
	if s.Phase != PhaseBetting {
		return ErrInvalidPhaseAction
	}
	return nil
}

// ValidateBurn checks that selection is a duplicate-free subset of hand no
// larger than the day's allowance.
func ValidateBurn(s *GameState, playerIdx int, hand, selection []Card) error {
	if err := validateTurn(s, playerIdx); err != nil {
		return err
	}
	if s.Phase != PhaseBurning {
		return ErrInvalidPhaseAction
	}
	if len(selection) > s.MaxBurnCards {
		return ErrInvalidSelection
	}
	seen := make(map[Card]struct{}, len(selection))
	for _, c := range selection {
		if !c.Valid() {
			return ErrInvalidSelection
		}
		if _, dup := seen[c]; dup {
			return ErrInvalidSelection
		}
		seen[c] = struct{}{}
		if indexOf(hand, c) < 0 {
			return ErrInvalidSelection
		}
	}
	return nil
}

func indexOf(hand []Card, c Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}
