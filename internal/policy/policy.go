package policy

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"time"

	"burn-casino/internal/game"
)

var ErrUnknownTier = errors.New("unknown_tier")

type Tier string

const (
	TierEasy   Tier = "easy"
	TierNormal Tier = "normal"
	TierHard   Tier = "hard"
)

var Tiers = []Tier{TierEasy, TierNormal, TierHard}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", ErrUnknownTier
}

// BurnPolicy picks the cards to burn from hand on the given day. The result
// is a subset of hand with no repeats; it is not clamped to the day's
// allowance.
type BurnPolicy interface {
	ChooseBurn(hand []game.Card, day int) []game.Card
}

type BetPolicy interface {
	ChooseBet() game.ActionType
}

type Policy interface {
	BurnPolicy
	BetPolicy
	Tier() Tier
}

// For returns the policy for tier drawing from rnd. A nil rnd gets a
// time-seeded source.
func For(tier Tier, rnd *rand.Rand) (Policy, error) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bet := randomBet{rng: rnd}
	switch tier {
	case TierEasy:
		return &Easy{randomBet: bet}, nil
	case TierNormal:
		return &Normal{randomBet: bet}, nil
	case TierHard:
		return &Hard{randomBet: bet}, nil
	default:
		return nil, ErrUnknownTier
	}
}

var betChoices = []game.ActionType{game.ActionCheck, game.ActionBet, game.ActionRaise}

// randomBet is the betting policy every tier shares. It ignores the table.
type randomBet struct {
	rng *rand.Rand
}

func (b randomBet) ChooseBet() game.ActionType {
	return betChoices[b.rng.Intn(len(betChoices))]
}

func clampCount(n, hand int) int {
	if n < 0 {
		return 0
	}
	if n > hand {
		return hand
	}
	return n
}

// Easy burns `day` cards chosen uniformly at random.
type Easy struct {
	randomBet
}

func (p *Easy) Tier() Tier { return TierEasy }

func (p *Easy) ChooseBurn(hand []game.Card, day int) []game.Card {
	n := clampCount(day, len(hand))
	out := make([]game.Card, 0, n)
	for _, i := range p.rng.Perm(len(hand))[:n] {
		out = append(out, hand[i])
	}
	return out
}

// Normal burns the `day` highest-value cards.
type Normal struct {
	randomBet
}

func (p *Normal) Tier() Tier { return TierNormal }

func (p *Normal) ChooseBurn(hand []game.Card, day int) []game.Card {
	sorted := append([]game.Card(nil), hand...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value() > sorted[j].Value()
	})
	return sorted[:clampCount(day, len(sorted))]
}

// Hard burns up to `day` cards valued above HighCardThreshold, in hand order,
// and never pads with lower cards.
type Hard struct {
	randomBet
}

const HighCardThreshold = 7

func (p *Hard) Tier() Tier { return TierHard }

func (p *Hard) ChooseBurn(hand []game.Card, day int) []game.Card {
	limit := clampCount(day, len(hand))
	out := make([]game.Card, 0, limit)
	for _, c := range hand {
		if len(out) == limit {
			break
		}
		if c.Value() > HighCardThreshold {
			out = append(out, c)
		}
	}
	return out
}

// Clamp trims a policy's burn choice to the day's allowance, keeping its
// order. Day 3 allows one card while the policies pick three.
func Clamp(selection []game.Card, maxBurn int) []game.Card {
	if len(selection) <= maxBurn {
		return selection
	}
	if maxBurn < 0 {
		maxBurn = 0
	}
	return selection[:maxBurn]
}
