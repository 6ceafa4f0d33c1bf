package judge

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"blackjack-engine/server/engine"
)

// DefaultTrials is the number of dealer play-outs behind every stand estimate.
const DefaultTrials = 500

// Trials are split into fixed chunks so a given seed gives the same answer
// whatever the worker count.
const chunkSize = 64

type Config struct {
	Trials  int          `json:"trials"`
	Workers int          `json:"workers"` // <=0 means runtime.NumCPU()
	Rules   engine.Rules `json:"rules"`
}

func DefaultConfig() Config {
	return Config{Trials: DefaultTrials, Rules: engine.DefaultRules()}
}

// Engine compares standing now against taking exactly one more card.
type Engine struct{ cfg Config }

func New(cfg Config) *Engine {
	if cfg.Trials <= 0 {
		cfg.Trials = DefaultTrials
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Rules.DealerStandsOn <= 0 {
		cfg.Rules = engine.DefaultRules()
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config      { return e.cfg }
func (e *Engine) Rules() engine.Rules { return e.cfg.Rules }

// Spot is a decision point as the player sees it.
type Spot struct {
	Player engine.Hand // full player hand
	Dealer engine.Hand // dealer cards the player can see
	Deck   engine.Deck // every card the player cannot see
}

// Option is the hit branch for one draw bucket.
type Option struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
	Score       int     `json:"score"`
	StandEV     float64 `json:"stand_ev"`
}

type Evaluation struct {
	Action      engine.ActionKind `json:"action"`
	PlayerScore int               `json:"player_score"`
	EVStand     float64           `json:"ev_stand"`
	EVHit       float64           `json:"ev_hit"`
	Options     []Option          `json:"options"`
}

type tally struct{ win, loss, tie int }

// StandEV plays the dealer out Trials times over independently shuffled
// copies of deck and returns (wins - losses) / Trials for a player standing
// on playerScore. A busted player gets -1 without simulating.
func (e *Engine) StandEV(ctx context.Context, rng *rand.Rand, playerScore int, deck engine.Deck, dealer engine.Hand) (float64, error) {
	if playerScore > engine.Blackjack {
		return -1, nil
	}
	n := e.cfg.Trials
	chunks := (n + chunkSize - 1) / chunkSize
	seeds := make([]int64, chunks)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	results := make([]tally, chunks)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range seeds {
		trials := min(chunkSize, n-i*chunkSize)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := e.playOut(rand.New(rand.NewSource(seeds[i])), trials, playerScore, deck, dealer)
			results[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total tally
	for _, t := range results {
		total.win += t.win
		total.loss += t.loss
		total.tie += t.tie
	}
	return float64(total.win-total.loss) / float64(n), nil
}

// playOut runs trials on private copies; deck and dealer are only read.
func (e *Engine) playOut(r *rand.Rand, trials, playerScore int, deck engine.Deck, dealer engine.Hand) (tally, error) {
	var t tally
	buf := make(engine.Deck, len(deck))
	scratch := make(engine.Hand, 0, len(dealer)+8)
	for i := 0; i < trials; i++ {
		copy(buf, deck)
		d := buf
		d.Shuffle(r)
		h := append(scratch[:0], dealer...)
		score, busted, err := engine.DealerPlay(&h, &d, e.cfg.Rules)
		if err != nil {
			return t, err
		}
		switch {
		case busted || score < playerScore:
			t.win++
		case score > playerScore:
			t.loss++
		default:
			t.tie++
		}
	}
	return t, nil
}

// Recommend weighs EV(stand) against the probability-weighted EV of drawing
// one card and then standing. Ties go to HIT; a busted hand gets STAND.
func (e *Engine) Recommend(ctx context.Context, rng *rand.Rand, spot Spot) (Evaluation, error) {
	ev := Evaluation{PlayerScore: spot.Player.Score()}
	if ev.PlayerScore > engine.Blackjack {
		// nothing left to decide; a bust loses either way
		ev.Action, ev.EVStand, ev.EVHit = engine.Stand, -1, -1
		return ev, nil
	}

	var err error
	if ev.EVStand, err = e.StandEV(ctx, rng, ev.PlayerScore, spot.Deck, spot.Dealer); err != nil {
		return ev, fmt.Errorf("stand ev: %w", err)
	}
	probs, err := RankProbabilities(spot.Player, spot.Dealer, len(spot.Deck))
	if err != nil {
		return ev, err
	}

	for i, cat := range categories {
		p := probs[i]
		if p <= 0 {
			continue
		}
		reduced, err := removeFor(spot.Deck, cat)
		if err != nil {
			return ev, err
		}
		score := spot.Player.With(cat.draw).Score()
		sev, err := e.StandEV(ctx, rng, score, reduced, spot.Dealer)
		if err != nil {
			return ev, fmt.Errorf("hit ev (%s): %w", cat.label, err)
		}
		ev.EVHit += p * sev
		ev.Options = append(ev.Options, Option{Category: cat.label, Probability: p, Score: score, StandEV: sev})
	}

	ev.Action = engine.Hit
	if ev.EVStand > ev.EVHit {
		ev.Action = engine.Stand
	}
	return ev, nil
}

// removeFor pulls the bucket's representative card. The ten bucket prefers
// a Jack and falls back to any other ten-valued card.
func removeFor(deck engine.Deck, cat category) (engine.Deck, error) {
	out, err := deck.Remove(cat.remove)
	if err == nil || cat.draw != engine.Ten {
		return out, err
	}
	for _, c := range []engine.Card{engine.Ten, engine.Queen, engine.King} {
		if out, err2 := deck.Remove(c); err2 == nil {
			return out, nil
		} else if !errors.Is(err2, engine.ErrCardNotInDeck) {
			return nil, err2
		}
	}
	return nil, err
}
