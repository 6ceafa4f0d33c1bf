package table

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"blackjack-engine/server/agent"
	"blackjack-engine/server/engine"
	"blackjack-engine/server/judge"
)

type State int

const (
	Dealing State = iota
	PlayerTurn
	DealerTurn
	Settled
)

func (s State) String() string {
	switch s {
	case Dealing:
		return "dealing"
	case PlayerTurn:
		return "player_turn"
	case DealerTurn:
		return "dealer_turn"
	case Settled:
		return "settled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrWrongState = errors.New("table: action not allowed in this state")

// Chooser picks the player's action at a decision point.
type Chooser interface {
	Choose(ctx context.Context, o agent.Observation) (engine.ActionKind, error)
}

// FollowEngine always plays the engine's recommendation.
type FollowEngine struct{}

func (FollowEngine) Choose(_ context.Context, o agent.Observation) (engine.ActionKind, error) {
	return o.Recommendation, nil
}

// Decision records one player decision point.
type Decision struct {
	PlayerScore int               `json:"player_score"`
	Recommended engine.ActionKind `json:"recommended"`
	Chosen      engine.ActionKind `json:"chosen"`
	EVStand     float64           `json:"ev_stand"`
	EVHit       float64           `json:"ev_hit"`
}

type Result struct {
	Outcome     engine.Outcome `json:"outcome"`
	Player      engine.Hand    `json:"player"`
	Dealer      engine.Hand    `json:"dealer"`
	PlayerScore int            `json:"player_score"`
	DealerScore int            `json:"dealer_score"`
	Decisions   []Decision     `json:"decisions"`
}

// Game owns the real deck and both hands for one played hand. Only Game
// mutates them; the judge works on snapshots.
type Game struct {
	state  State
	Player engine.Hand
	Dealer engine.Hand
	deck   engine.Deck

	rng       *rand.Rand
	judge     *judge.Engine
	decisions []Decision
}

func NewGame(rng *rand.Rand, j *judge.Engine) *Game {
	return &Game{state: Dealing, rng: rng, judge: j}
}

func (g *Game) State() State         { return g.state }
func (g *Game) Decisions() []Decision { return g.decisions }

// Deal shuffles a fresh shoe and deals player, player, dealer, dealer.
func (g *Game) Deal() error {
	if g.state != Dealing {
		return fmt.Errorf("deal in %s: %w", g.state, ErrWrongState)
	}
	g.deck = engine.NewShoe(g.rng)
	for _, h := range []*engine.Hand{&g.Player, &g.Player, &g.Dealer, &g.Dealer} {
		if _, _, err := engine.Draw(&g.deck, h); err != nil {
			return fmt.Errorf("deal: %w", err)
		}
	}
	g.state = PlayerTurn
	return nil
}

// DealerUp is the part of the dealer hand the player can see.
func (g *Game) DealerUp() engine.Hand {
	if len(g.Dealer) == 0 {
		return nil
	}
	return g.Dealer[:1]
}

// Spot is the decision point as the player sees it: the undrawn deck with the
// hole card put back as an unknown, and only the up card as the dealer hand.
func (g *Game) Spot() judge.Spot {
	deck := g.deck.Clone()
	if len(g.Dealer) > 1 {
		deck = append(deck, g.Dealer[1])
	}
	return judge.Spot{Player: g.Player.Clone(), Dealer: g.DealerUp().Clone(), Deck: deck}
}

// Step runs one player decision: ask the judge, let ch pick, apply it.
// Standing moves to the dealer turn; a bust settles the hand at once.
func (g *Game) Step(ctx context.Context, ch Chooser) (Decision, error) {
	if g.state != PlayerTurn {
		return Decision{}, fmt.Errorf("step in %s: %w", g.state, ErrWrongState)
	}
	ev, err := g.judge.Recommend(ctx, g.rng, g.Spot())
	if err != nil {
		return Decision{}, fmt.Errorf("recommend: %w", err)
	}
	obs := agent.BuildObservation(g.Player, g.DealerUp(), ev.Action, ev.EVStand, ev.EVHit)
	a, err := ch.Choose(ctx, obs)
	if err != nil {
		return Decision{}, err
	}
	if err := agent.Validate(obs, a); err != nil {
		return Decision{}, err
	}

	d := Decision{PlayerScore: ev.PlayerScore, Recommended: ev.Action, Chosen: a, EVStand: ev.EVStand, EVHit: ev.EVHit}
	g.decisions = append(g.decisions, d)

	if a == engine.Stand {
		g.state = DealerTurn
		return d, nil
	}
	_, busted, err := engine.Draw(&g.deck, &g.Player)
	if err != nil {
		return d, fmt.Errorf("player draw: %w", err)
	}
	if busted {
		g.state = Settled
	}
	return d, nil
}

// PlayDealer runs the dealer policy against the real deck.
func (g *Game) PlayDealer() error {
	if g.state != DealerTurn {
		return fmt.Errorf("dealer turn in %s: %w", g.state, ErrWrongState)
	}
	if _, _, err := engine.DealerPlay(&g.Dealer, &g.deck, g.judge.Rules()); err != nil {
		return err
	}
	g.state = Settled
	return nil
}

func (g *Game) Result() (Result, error) {
	if g.state != Settled {
		return Result{}, fmt.Errorf("result in %s: %w", g.state, ErrWrongState)
	}
	return Result{
		Outcome:     engine.Settle(g.Player, g.Dealer),
		Player:      g.Player.Clone(),
		Dealer:      g.Dealer.Clone(),
		PlayerScore: g.Player.Score(),
		DealerScore: g.Dealer.Score(),
		Decisions:   g.decisions,
	}, nil
}

// Play runs a whole hand from the deal to settlement.
func Play(ctx context.Context, rng *rand.Rand, j *judge.Engine, ch Chooser) (Result, error) {
	g := NewGame(rng, j)
	if err := g.Deal(); err != nil {
		return Result{}, err
	}
	for g.state == PlayerTurn {
		if _, err := g.Step(ctx, ch); err != nil {
			return Result{}, err
		}
	}
	if g.state == DealerTurn {
		if err := g.PlayDealer(); err != nil {
			return Result{}, err
		}
	}
	return g.Result()
}
