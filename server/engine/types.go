package engine

import "errors"

// Blackjack is the best possible score; anything above it is a bust.
const Blackjack = 21

// ShoeSize is the number of cards in a fresh single-deck shoe.
const ShoeSize = 52

type ActionKind string

const (
	Hit   ActionKind = "hit"
	Stand ActionKind = "stand"
)

type Outcome string

const (
	PlayerBust Outcome = "player_bust"
	DealerBust Outcome = "dealer_bust"
	PlayerWin  Outcome = "player_win"
	PlayerLoss Outcome = "player_loss"
	Push       Outcome = "push"
)

// Won reports whether the outcome counts as a player win.
func (o Outcome) Won() bool { return o == DealerBust || o == PlayerWin }

// Lost reports whether the outcome counts as a player loss.
func (o Outcome) Lost() bool { return o == PlayerBust || o == PlayerLoss }

// Rules holds the table knobs that change dealer behavior.
type Rules struct {
	DealerStandsOn int `json:"dealer_stands_on"` // dealer draws while below this (default 17)
}

func DefaultRules() Rules { return Rules{DealerStandsOn: 17} }

func (r Rules) standOn() int {
	if r.DealerStandsOn <= 0 {
		return 17
	}
	return r.DealerStandsOn
}

var (
	ErrEmptyDeck     = errors.New("engine: draw from empty deck")
	ErrCardNotInDeck = errors.New("engine: card not in deck")
	ErrNotAShoe      = errors.New("engine: cards do not fit in one shoe")
)
