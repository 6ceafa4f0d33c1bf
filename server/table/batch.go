package table

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"blackjack-engine/server/engine"
	"blackjack-engine/server/judge"
)

const DefaultHands = 1000

type Config struct {
	Hands int          `json:"hands"`
	Seed  uint64       `json:"seed"`
	Judge judge.Config `json:"judge"`

	// Stop is polled between hands; returning true ends the run early.
	Stop func() bool `json:"-"`
}

// Tally counts settled hands. Busts are also counted inside Wins/Losses.
type Tally struct {
	Hands       int `json:"hands"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Ties        int `json:"ties"`
	PlayerBusts int `json:"player_busts"`
	DealerBusts int `json:"dealer_busts"`
}

func (t *Tally) Add(o engine.Outcome) {
	t.Hands++
	switch {
	case o.Won():
		t.Wins++
	case o.Lost():
		t.Losses++
	default:
		t.Ties++
	}
	switch o {
	case engine.PlayerBust:
		t.PlayerBusts++
	case engine.DealerBust:
		t.DealerBusts++
	}
}

func percent(n, of int) decimal.Decimal {
	if of == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n) * 100).Div(decimal.NewFromInt(int64(of))).Round(2)
}

func (t Tally) WinPct() decimal.Decimal  { return percent(t.Wins, t.Hands) }
func (t Tally) LossPct() decimal.Decimal { return percent(t.Losses, t.Hands) }
func (t Tally) TiePct() decimal.Decimal  { return percent(t.Ties, t.Hands) }

// Net lists the per-hand result as +1, -1 or 0.
func (t Tally) Net() []float64 {
	out := make([]float64, 0, t.Hands)
	for i := 0; i < t.Wins; i++ {
		out = append(out, 1)
	}
	for i := 0; i < t.Losses; i++ {
		out = append(out, -1)
	}
	for i := 0; i < t.Ties; i++ {
		out = append(out, 0)
	}
	return out
}

func (t Tally) Summary() string {
	return fmt.Sprintf("The engine won %s%% of its games and lost %s%% of its games in %s simulated games.",
		t.WinPct().StringFixed(2), t.LossPct().StringFixed(2), humanize.Comma(int64(t.Hands)))
}

type Report struct {
	Config   Config        `json:"config"`
	Tally    Tally         `json:"tally"`
	Duration time.Duration `json:"duration"`
	Stopped  bool          `json:"stopped"`
}

// RunBatch plays cfg.Hands engine-driven hands. Each hand draws its own
// generator from a seed stream, so equal seeds give equal tallies. On
// cancellation the partial tally comes back along with ctx's error.
func RunBatch(ctx context.Context, cfg Config, onHand func(i int, r Result)) (Report, error) {
	if cfg.Hands <= 0 {
		cfg.Hands = DefaultHands
	}
	j := judge.New(cfg.Judge)
	rep := Report{Config: cfg}
	rep.Config.Judge = j.Config()

	start := time.Now()
	seeds := NewSeedStream(cfg.Seed)
	for i := 0; i < cfg.Hands; i++ {
		if err := ctx.Err(); err != nil {
			rep.Stopped = true
			rep.Duration = time.Since(start)
			return rep, err
		}
		if cfg.Stop != nil && cfg.Stop() {
			rep.Stopped = true
			break
		}
		rng := rand.New(rand.NewSource(int64(seeds.Next())))
		res, err := Play(ctx, rng, j, FollowEngine{})
		if err != nil {
			rep.Stopped = ctx.Err() != nil
			rep.Duration = time.Since(start)
			return rep, fmt.Errorf("hand %d: %w", i+1, err)
		}
		rep.Tally.Add(res.Outcome)
		if onHand != nil {
			onHand(i, res)
		}
	}
	rep.Duration = time.Since(start)
	return rep, nil
}
