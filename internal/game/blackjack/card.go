// Package blackjack implements a single-deck player-versus-dealer blackjack
// round as a state machine.
package blackjack

import (
	"fmt"

	"github.com/cory-johannsen/starcase/internal/game/rng"
)

// Suit is a card suit.
type Suit string

const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

var suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Rank is 1 (ace) through 13 (king).
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Card is a playing card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Value is the card's initial count: aces 11, faces 10.
func (c Card) Value() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= Jack:
		return 10
	default:
		return int(c.Rank)
	}
}

func (c Card) String() string {
	names := map[Rank]string{Ace: "A", Jack: "J", Queen: "Q", King: "K"}
	name, ok := names[c.Rank]
	if !ok {
		name = fmt.Sprintf("%d", c.Rank)
	}
	return name + string(c.Suit[0])
}

// NewDeck returns the 52 cards in suit-then-rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ShuffledDeck returns a Fisher-Yates shuffled deck.
func ShuffledDeck(src rng.Source) []Card {
	deck := NewDeck()
	rng.Shuffle(src, len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// Score totals hand, counting each ace as 11 and softening aces to 1, one at
// a time, while the total exceeds 21.
func Score(hand []Card) int {
	total, aces := 0, 0
	for _, c := range hand {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
