package game

type ActionType string

const (
	ActionCheck  ActionType = "check"
	ActionBet    ActionType = "bet"
	ActionFold   ActionType = "fold"
	ActionCall   ActionType = "call"
	ActionRaise  ActionType = "raise"
	ActionBurn   ActionType = "burn"
	ActionReveal ActionType = "reveal"
)

// IsBet reports whether a is one of the five betting-phase actions.
func (a ActionType) IsBet() bool {
	switch a {
	case ActionCheck, ActionBet, ActionFold, ActionCall, ActionRaise:
		return true
	default:
		return false
	}
}

type Phase string

const (
	PhaseBetting Phase = "betting"
	PhaseBurning Phase = "burning"
)

// Stage is the coarse lifecycle position derived from GameState.
type Stage string

const (
	StageNotStarted Stage = "not_started"
	StageBetting    Stage = "betting"
	StageBurning    Stage = "burning"
	StageRevealed   Stage = "revealed"
)

const DefaultBankroll int64 = 1000

type Player struct {
	ID         string
	Name       string
	Bankroll   int64
	Hand       []Card
	MadeHand   bool
	LastAction ActionType
	// AITier is an opaque controller label; empty means human.
	AITier string
}

func NewPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name, Bankroll: DefaultBankroll}
}

func (p *Player) clone() Player {
	cp := *p
	cp.Hand = append([]Card(nil), p.Hand...)
	return cp
}

type GameState struct {
	Day                int
	Phase              Phase
	CurrentPlayerIndex int
	MaxBurnCards       int
	// MadeHand is true while any seated hand is a made hand.
	MadeHand bool
	// RotationComplete is set by the turn advance that wrapped to seat 0.
	RotationComplete bool
	GameOver         bool
}

func (s GameState) Stage() Stage {
	switch {
	case s.GameOver:
		return StageRevealed
	case s.Day == 0:
		return StageNotStarted
	case s.Phase == PhaseBurning:
		return StageBurning
	default:
		return StageBetting
	}
}

// Snapshot is an immutable copy of engine state for publication.
type Snapshot struct {
	State         GameState
	Players       []Player
	DeckRemaining int
	Discarded     int
}

func (s Snapshot) CurrentPlayer() (Player, bool) {
	if s.State.Day == 0 || s.State.GameOver || len(s.Players) == 0 {
		return Player{}, false
	}
	return s.Players[s.State.CurrentPlayerIndex], true
}
