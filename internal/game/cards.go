package game

import (
	"errors"
	"math/rand"
	"strings"
	"time"
)

var ErrEmptyDeck = errors.New("empty_deck")

type Suit string

type Rank string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Base order used to build a deck before shuffling.
var (
	Suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

const DeckSize = 52

var rankValues = map[Rank]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 11, Queen: 12, King: 13,
}

var suitCodes = map[Suit]string{Hearts: "h", Diamonds: "d", Clubs: "c", Spades: "s"}

// Value maps A=1, 2..10 literal, J=11, Q=12, K=13. Unknown ranks are 0.
func (r Rank) Value() int {
	return rankValues[r]
}

func (r Rank) Valid() bool {
	_, ok := rankValues[r]
	return ok
}

func (s Suit) Valid() bool {
	_, ok := suitCodes[s]
	return ok
}

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) Value() int {
	return c.Rank.Value()
}

func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// String renders the short form, e.g. "10h" or "Qs".
func (c Card) String() string {
	code, ok := suitCodes[c.Suit]
	if !ok {
		code = "?"
	}
	return string(c.Rank) + code
}

// ParseCard reads the short form produced by Card.String. Suit letters are
// case-insensitive; "T" is accepted for ten.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, ErrInvalidCard
	}
	rank := Rank(strings.ToUpper(s[:len(s)-1]))
	if rank == "T" {
		rank = Ten
	}
	var suit Suit
	switch strings.ToLower(s[len(s)-1:]) {
	case "h":
		suit = Hearts
	case "d":
		suit = Diamonds
	case "c":
		suit = Clubs
	case "s":
		suit = Spades
	}
	c := Card{Rank: rank, Suit: suit}
	if !c.Valid() {
		return Card{}, ErrInvalidCard
	}
	return c, nil
}

type Deck struct {
	cards []Card
	rnd   *rand.Rand
}

// NewDeck builds the 52 cards suit-major and shuffles them. A nil rnd falls
// back to a time-seeded source.
func NewDeck(rnd *rand.Rand) *Deck {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cards := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	d := &Deck{cards: cards, rnd: rnd}
	d.Shuffle()
	return d
}

// NewDeckFromCards builds an unshuffled deck over a copy of cards; the first
// element is drawn first.
func NewDeckFromCards(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

func (d *Deck) Shuffle() {
	if d.rnd == nil {
		d.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d.rnd.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card. The supply is fixed per session, so
// ErrEmptyDeck is final for the calling action.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

func (d *Deck) Len() int {
	return len(d.cards)
}

func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}
