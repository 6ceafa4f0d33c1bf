package engine

import (
	"fmt"
	"strings"
)

// Hand is the ordered list of cards held by the player or the dealer.
type Hand []Card

// Score sums base values and downgrades Aces from 11 to 1, one at a time,
// while the total is over 21. A bust score is returned as is.
func (h Hand) Score() int {
	total := 0
	aces := 0
	for _, c := range h {
		total += c.Value()
		if c == Ace {
			aces++
		}
	}
	for total > Blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func (h Hand) Busted() bool { return h.Score() > Blackjack }

func (h Hand) Clone() Hand { return append(Hand(nil), h...) }

// With returns a new hand with c appended; h is not touched.
func (h Hand) With(c Card) Hand {
	out := make(Hand, 0, len(h)+1)
	return append(append(out, h...), c)
}

func (h Hand) Strings() []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}
	return out
}

func (h Hand) String() string { return "[" + strings.Join(h.Strings(), ", ") + "]" }

// Draw moves the top card of deck into hand.
func Draw(deck *Deck, hand *Hand) (score int, busted bool, err error) {
	d := *deck
	if len(d) == 0 {
		return hand.Score(), false, ErrEmptyDeck
	}
	c := d[len(d)-1]
	*deck = d[:len(d)-1]
	*hand = append(*hand, c)
	score = hand.Score()
	return score, score > Blackjack, nil
}

// DealerPlay draws until the hand reaches the stand threshold or busts.
func DealerPlay(hand *Hand, deck *Deck, rules Rules) (score int, busted bool, err error) {
	score = hand.Score()
	for score < rules.standOn() {
		if score, _, err = Draw(deck, hand); err != nil {
			return score, false, fmt.Errorf("dealer draw at %d: %w", score, err)
		}
	}
	return score, score > Blackjack, nil
}

// Settle compares two finished hands. A player bust loses before the dealer
// hand is looked at.
func Settle(player, dealer Hand) Outcome {
	ps := player.Score()
	if ps > Blackjack {
		return PlayerBust
	}
	ds := dealer.Score()
	switch {
	case ds > Blackjack:
		return DealerBust
	case ps > ds:
		return PlayerWin
	case ps < ds:
		return PlayerLoss
	default:
		return Push
	}
}
