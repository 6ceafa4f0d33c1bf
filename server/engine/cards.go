package engine

import (
	"fmt"
	"math/rand"
	"strings"

	poker "github.com/paulhankin/poker"
)

// Card is a rank; suits never matter for scoring.
// Values follow the usual 2..14 ordering with Ace high.
type Card int

const (
	Two Card = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var cardNames = [...]string{
	Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7", Eight: "8",
	Nine: "9", Ten: "10", Jack: "Jack", Queen: "Queen", King: "King", Ace: "Ace",
}

func (c Card) Valid() bool { return c >= Two && c <= Ace }

// Value is the base blackjack value: Ace counts 11 until the scorer downgrades it.
func (c Card) Value() int {
	switch {
	case c == Ace:
		return 11
	case c >= Ten && c <= King:
		return 10
	default:
		return int(c)
	}
}

func (c Card) TenValued() bool { return c >= Ten && c <= King }

func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Card(%d)", int(c))
	}
	return cardNames[c]
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("engine: invalid card %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	v, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCard accepts "2".."10", "T", "J"/"Jack", "Q"/"Queen", "K"/"King", "A"/"Ace", any case.
func ParseCard(s string) (Card, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2":
		return Two, nil
	case "3":
		return Three, nil
	case "4":
		return Four, nil
	case "5":
		return Five, nil
	case "6":
		return Six, nil
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "9":
		return Nine, nil
	case "10", "t":
		return Ten, nil
	case "j", "jack":
		return Jack, nil
	case "q", "queen":
		return Queen, nil
	case "k", "king":
		return King, nil
	case "a", "ace":
		return Ace, nil
	}
	return 0, fmt.Errorf("engine: unknown card %q", s)
}

// ParseCards parses every entry or fails on the first bad one.
func ParseCards(ss []string) ([]Card, error) {
	out := make([]Card, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

var shoeSuits = [...]poker.Suit{poker.Club, poker.Diamond, poker.Heart, poker.Spade}

// Library ranks: 1..13 with Ace=1.
func fromPokerRank(r int) Card {
	if r == 1 {
		return Ace
	}
	return Card(r)
}

// NewShoe builds the 52-card shoe, shuffled with r when r is non-nil.
// Suits are dropped once the card is validated.
func NewShoe(r *rand.Rand) Deck {
	deck := make(Deck, 0, ShoeSize)
	for _, s := range shoeSuits {
		for rnk := 1; rnk <= 13; rnk++ {
			if _, err := poker.MakeCard(s, poker.Rank(rnk)); err != nil {
				panic(fmt.Sprintf("engine: shoe card rank=%d suit=%v: %v", rnk, s, err))
			}
			deck = append(deck, fromPokerRank(rnk))
		}
	}
	if r != nil {
		deck.Shuffle(r)
	}
	return deck
}

// Unseen returns an unshuffled shoe minus every card in the known hands.
func Unseen(known ...Hand) (Deck, error) {
	deck := NewShoe(nil)
	for _, h := range known {
		for _, c := range h {
			var err error
			if deck, err = deck.Remove(c); err != nil {
				return nil, err
			}
		}
	}
	return deck, nil
}

// Deck is ordered; the last element is the top card.
type Deck []Card

func (d Deck) Clone() Deck { return append(Deck(nil), d...) }

func (d Deck) Shuffle(r *rand.Rand) {
	for i := len(d) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

func (d Deck) Count(c Card) int {
	n := 0
	for _, x := range d {
		if x == c {
			n++
		}
	}
	return n
}

// Remove returns a copy of d without the first instance of c.
func (d Deck) Remove(c Card) (Deck, error) {
	for i, x := range d {
		if x == c {
			out := make(Deck, 0, len(d)-1)
			out = append(out, d[:i]...)
			return append(out, d[i+1:]...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCardNotInDeck, c)
}

// CheckShoe returns ErrNotAShoe unless deck and the hands together could have
// come out of one 52-card shoe: every card valid, no rank more than 4 times.
func CheckShoe(deck Deck, hands ...Hand) error {
	var seen [Ace + 1]int
	count := func(c Card) error {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card %d", ErrNotAShoe, int(c))
		}
		if seen[c]++; seen[c] > 4 {
			return fmt.Errorf("%w: more than 4 of %s", ErrNotAShoe, c)
		}
		return nil
	}
	for _, c := range deck {
		if err := count(c); err != nil {
			return err
		}
	}
	for _, h := range hands {
		for _, c := range h {
			if err := count(c); err != nil {
				return err
			}
		}
	}
	return nil
}
