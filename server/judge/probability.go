package judge

import (
	"errors"

	"blackjack-engine/server/engine"
)

// ErrNoCardsLeft is returned when probabilities are asked for over an empty deck.
var ErrNoCardsLeft = errors.New("judge: no cards left to draw")

// NumCategories is the number of draw buckets: the pooled ten-valued
// cards plus one bucket per other rank.
const NumCategories = 10

type category struct {
	label  string
	draw   engine.Card // appended to the hypothetical hand
	remove engine.Card // pulled from the hypothetical deck
	full   int         // copies in a fresh shoe
}

func (c category) matches(x engine.Card) bool {
	if c.draw == engine.Ten {
		return x.TenValued()
	}
	return x == c.draw
}

// Ordered as 10, 9, 8, ..., 2, Ace.
var categories = [NumCategories]category{
	{"10", engine.Ten, engine.Jack, 16},
	{"9", engine.Nine, engine.Nine, 4},
	{"8", engine.Eight, engine.Eight, 4},
	{"7", engine.Seven, engine.Seven, 4},
	{"6", engine.Six, engine.Six, 4},
	{"5", engine.Five, engine.Five, 4},
	{"4", engine.Four, engine.Four, 4},
	{"3", engine.Three, engine.Three, 4},
	{"2", engine.Two, engine.Two, 4},
	{"Ace", engine.Ace, engine.Ace, 4},
}

// CategoryLabels returns the bucket labels in probability-vector order.
func CategoryLabels() []string {
	out := make([]string, NumCategories)
	for i, c := range categories {
		out[i] = c.label
	}
	return out
}

type Probabilities [NumCategories]float64

func (p Probabilities) Sum() float64 {
	s := 0.0
	for _, v := range p {
		s += v
	}
	return s
}

// RankProbabilities prices each bucket as (fresh-shoe count minus copies
// visible in either hand) / deckSize. Cards that left the deck without
// landing in one of the two hands are not accounted for, and the ten
// bucket only knows how many ten-valued cards are visible, not which.
// Counts never go below zero.
func RankProbabilities(player, dealer engine.Hand, deckSize int) (Probabilities, error) {
	var p Probabilities
	if deckSize <= 0 {
		return p, ErrNoCardsLeft
	}
	for i, cat := range categories {
		remaining := cat.full - countIn(player, cat) - countIn(dealer, cat)
		if remaining < 0 {
			remaining = 0
		}
		p[i] = float64(remaining) / float64(deckSize)
	}
	return p, nil
}

func countIn(h engine.Hand, cat category) int {
	n := 0
	for _, c := range h {
		if cat.matches(c) {
			n++
		}
	}
	return n
}
