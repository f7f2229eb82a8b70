package game

// IsMadeHand reports whether a 4-card hand has four distinct ranks and four
// distinct suits at the same time. No ordering or straight check applies.
func IsMadeHand(hand []Card) bool {
	if len(hand) != HandSize {
		return false
	}
	ranks := make(map[Rank]struct{}, HandSize)
	suits := make(map[Suit]struct{}, HandSize)
	for _, c := range hand {
		ranks[c.Rank] = struct{}{}
		suits[c.Suit] = struct{}{}
	}
	return len(ranks) == HandSize && len(suits) == HandSize
}
