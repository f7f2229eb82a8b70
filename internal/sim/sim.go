package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"burn-casino/internal/game"
	"burn-casino/internal/policy"
)

// maxSteps bounds one game: 13 seats * 3 days * 2 phases plus slack for
// empty-deck retries.
const maxSteps = 200

type Config struct {
	Games   int
	Players int
	Seed    int64
	Tiers   []policy.Tier
}

type TierStats struct {
	Seats      int
	MadeHands  int
	CardsBurnt int
}

type Result struct {
	Games          int
	MadeHandGames  int
	Actions        int
	EmptyDeckBurns int
	ByTier         map[policy.Tier]*TierStats
}

type actionRecord struct {
	Game  int
	Step  int
	Day   int
	Phase game.Phase
	P     int
	A     game.ActionType
	Cards []game.Card
}

// Run plays cfg.Games all-AI games, seat i using Tiers[i%len(Tiers)], and
// checks the engine invariants after every action.
func Run(cfg Config) (Result, error) {
	if cfg.Players < game.MinPlayers || cfg.Players > game.MaxPlayers {
		return Result{}, fmt.Errorf("players must be in [%d, %d], got %d", game.MinPlayers, game.MaxPlayers, cfg.Players)
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = policy.Tiers
	}
	res := Result{ByTier: map[policy.Tier]*TierStats{}}
	for _, t := range cfg.Tiers {
		res.ByTier[t] = &TierStats{}
	}
	for g := 0; g < cfg.Games; g++ {
		if err := playOne(cfg, g, &res); err != nil {
			return res, err
		}
		res.Games++
	}
	return res, nil
}

func playOne(cfg Config, g int, res *Result) error {
	seed := cfg.Seed + int64(g)
	e := game.NewEngine(rand.New(rand.NewSource(seed)))
	rnd := rand.New(rand.NewSource(seed ^ 0x5eed))
	policies := make([]policy.Policy, cfg.Players)
	for i := range policies {
		tier := cfg.Tiers[i%len(cfg.Tiers)]
		pol, err := policy.For(tier, rand.New(rand.NewSource(rnd.Int63())))
		if err != nil {
			return err
		}
		policies[i] = pol
		p := game.NewPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("%s-%d", tier, i))
		p.AITier = string(tier)
		if err := e.AddPlayer(p); err != nil {
			return err
		}
	}
	if err := e.StartGame(); err != nil {
		return err
	}

	records := []actionRecord{}
	for step := 0; step < maxSteps && !e.State.GameOver; step++ {
		idx := e.State.CurrentPlayerIndex
		pol := policies[idx]
		a := game.Action{Player: idx}
		if e.State.Phase == game.PhaseBetting {
			a.Type = pol.ChooseBet()
		} else {
			a.Type = game.ActionBurn
			a.Cards = policy.Clamp(pol.ChooseBurn(e.Players[idx].Hand, e.State.Day), e.State.MaxBurnCards)
		}
		err := e.ApplyAction(a)
		records = append(records, actionRecord{Game: g, Step: step, Day: e.State.Day, Phase: e.State.Phase, P: idx, A: a.Type, Cards: a.Cards})
		res.Actions++
		if a.Type == game.ActionBurn {
			res.ByTier[pol.Tier()].CardsBurnt += len(a.Cards)
		}
		switch {
		case err == nil:
		case errors.Is(err, game.ErrEmptyDeck):
			res.EmptyDeckBurns++
			if err := e.ApplyAction(game.Action{Player: idx, Type: game.ActionBurn}); err != nil {
				return failure(seed, g, step, idx, records, fmt.Sprintf("empty burn after exhausted deck: %v", err))
			}
		default:
			return failure(seed, g, step, idx, records, fmt.Sprintf("apply error: %v", err))
		}
		if err := checkInvariants(e); err != nil {
			return failure(seed, g, step, idx, records, err.Error())
		}
	}
	if !e.State.GameOver {
		return failure(seed, g, maxSteps, -1, records, "game did not reach reveal")
	}

	if e.State.MadeHand {
		res.MadeHandGames++
	}
	for i, p := range e.Players {
		st := res.ByTier[policies[i].Tier()]
		st.Seats++
		if p.MadeHand {
			st.MadeHands++
		}
	}
	return nil
}

func checkInvariants(e *game.Engine) error {
	seen := make(map[game.Card]bool, game.DeckSize)
	total := 0
	dup := false
	add := func(c game.Card) {
		total++
		if seen[c] {
			dup = true
		}
		seen[c] = true
	}
	for _, c := range e.Deck.Cards() {
		add(c)
	}
	anyMade := false
	for _, p := range e.Players {
		if len(p.Hand) != game.HandSize {
			return fmt.Errorf("player %s holds %d cards", p.ID, len(p.Hand))
		}
		for _, c := range p.Hand {
			add(c)
		}
		if p.MadeHand != game.IsMadeHand(p.Hand) {
			return fmt.Errorf("player %s made-hand flag is stale", p.ID)
		}
		anyMade = anyMade || p.MadeHand
	}
	for _, c := range e.Discard() {
		add(c)
	}
	if total != game.DeckSize || dup {
		return fmt.Errorf("card partition broken: total=%d duplicate=%v", total, dup)
	}
	if e.State.MadeHand != anyMade {
		return fmt.Errorf("game made-hand flag %v, seats say %v", e.State.MadeHand, anyMade)
	}
	want := game.MaxBurnCardsForDay(e.State.Day)
	if e.State.GameOver {
		want = 0
	}
	if e.State.MaxBurnCards != want {
		return fmt.Errorf("max burn %d on day %d", e.State.MaxBurnCards, e.State.Day)
	}
	return nil
}

func failure(seed int64, g, step, player int, records []actionRecord, reason string) error {
	start := 0
	if len(records) > 20 {
		start = len(records) - 20
	}
	var b strings.Builder
	for _, r := range records[start:] {
		fmt.Fprintf(&b, "[g%d s%d d%d %s p%d] %s %v\n", r.Game, r.Step, r.Day, r.Phase, r.P, r.A, r.Cards)
	}
	return fmt.Errorf("seed=%d game=%d step=%d player=%d reason=%s\nlast actions:\n%s",
		seed, g, step, player, reason, b.String())
}
