package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"blackjack-engine/server/engine"
)

// Observation is what a decider gets at a player decision point: the player's
// own hand, the dealer's up card only, and the engine's advice.
type Observation struct {
	PlayerHand     []string          `json:"player_hand"`
	PlayerScore    int               `json:"player_score"`
	DealerUp       string            `json:"dealer_up"`
	DealerScore    int               `json:"dealer_score"` // up card only
	Recommendation engine.ActionKind `json:"recommendation"`
	EVStand        float64           `json:"ev_stand"`
	EVHit          float64           `json:"ev_hit"`
	Legal          []string          `json:"legal_actions"`
}

// BuildObservation converts engine state into the view we hand a decider.
func BuildObservation(player, dealerVisible engine.Hand, rec engine.ActionKind, evStand, evHit float64) Observation {
	up := ""
	if len(dealerVisible) > 0 {
		up = dealerVisible[0].String()
	}
	return Observation{
		PlayerHand:     player.Strings(),
		PlayerScore:    player.Score(),
		DealerUp:       up,
		DealerScore:    dealerVisible.Score(),
		Recommendation: rec,
		EVStand:        evStand,
		EVHit:          evHit,
		Legal:          []string{string(engine.Hit), string(engine.Stand)},
	}
}

var ErrInvalidAction = errors.New("invalid action")

// ParseAction reads "hit" or "stand" in any case; anything else is invalid.
func ParseAction(s string) (engine.ActionKind, error) {
	switch a := engine.ActionKind(strings.ToLower(strings.TrimSpace(s))); a {
	case engine.Hit, engine.Stand:
		return a, nil
	}
	return "", fmt.Errorf("%w %q (want hit or stand)", ErrInvalidAction, strings.TrimSpace(s))
}

// Validate the chosen action against the observation.
func Validate(o Observation, a engine.ActionKind) error {
	for _, la := range o.Legal {
		if la == string(a) {
			return nil
		}
	}
	return fmt.Errorf("%w %q (legals: %v)", ErrInvalidAction, a, o.Legal)
}

// Console asks a human on the other end of a text stream.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	once    sync.Once
	lines   chan string
	readErr error // set before lines is closed
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// readLines is the only reader of c.in, so a prompt abandoned on cancel
// leaves no second read racing the next one.
func (c *Console) readLines() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		if line != "" {
			c.lines <- line
		}
		if err != nil {
			c.readErr = err
			return
		}
	}
}

// Choose prompts until it reads a valid answer. Bad input is answered with a
// hint and a fresh prompt. It returns early when ctx is done, and an answer
// that arrives after cancellation is not applied.
func (c *Console) Choose(ctx context.Context, o Observation) (engine.ActionKind, error) {
	c.once.Do(func() {
		c.lines = make(chan string)
		go c.readLines()
	})
	rec := strings.ToUpper(string(o.Recommendation))
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(c.out, "\nYour hand: %s (score %d).\nDealer hand: ['%s', ####] (score %d).\nEngine recommends: %s (EV stand %+.3f, EV hit %+.3f).\n\nHit or stand? ",
			FormatHand(o.PlayerHand), o.PlayerScore, o.DealerUp, o.DealerScore, rec, o.EVStand, o.EVHit)

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok = <-c.lines:
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("read choice: %w", c.readErr)
		}
		a, err := ParseAction(line)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			continue
		}
		fmt.Fprintf(c.out, "Engine said: %s\n", rec)
		return a, nil
	}
}

// FormatHand renders card labels as a quoted list, e.g. ['10', 'Ace'].
func FormatHand(cards []string) string {
	q := make([]string, len(cards))
	for i, c := range cards {
		q[i] = "'" + c + "'"
	}
	return "[" + strings.Join(q, ", ") + "]"
}
