package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-engine/server/engine"
	"blackjack-engine/server/judge"
)

func TestRunBatchSameSeedSameTally(t *testing.T) {
	if testing.Short() {
		t.Skip("plays 2000 hands")
	}
	cfg := Config{Hands: 1000, Seed: 20240601, Judge: judge.Config{Trials: 10}}

	a, err := RunBatch(context.Background(), cfg, nil)
	require.NoError(t, err)
	b, err := RunBatch(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Tally, b.Tally)
	assert.Equal(t, 1000, a.Tally.Hands)
	assert.Equal(t, a.Tally.Hands, a.Tally.Wins+a.Tally.Losses+a.Tally.Ties)
	assert.False(t, a.Stopped)
}

func TestRunBatchWorkerCountDoesNotMatter(t *testing.T) {
	one, err := RunBatch(context.Background(), Config{Hands: 40, Seed: 5, Judge: judge.Config{Trials: 70, Workers: 1}}, nil)
	require.NoError(t, err)
	many, err := RunBatch(context.Background(), Config{Hands: 40, Seed: 5, Judge: judge.Config{Trials: 70, Workers: 6}}, nil)
	require.NoError(t, err)
	assert.Equal(t, one.Tally, many.Tally)
}

func TestRunBatchDefaults(t *testing.T) {
	rep, err := RunBatch(context.Background(), Config{Hands: 3, Judge: judge.Config{Trials: 5}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Config.Judge.Trials)
	assert.Equal(t, 17, rep.Config.Judge.Rules.DealerStandsOn)
	assert.Positive(t, rep.Config.Judge.Workers)
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := RunBatch(ctx, Config{Hands: 10, Judge: judge.Config{Trials: 5}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rep.Stopped)
	assert.Zero(t, rep.Tally.Hands)
}

func TestRunBatchStopHook(t *testing.T) {
	played := 0
	cfg := Config{Hands: 50, Seed: 1, Judge: judge.Config{Trials: 5}, Stop: func() bool { return played >= 3 }}
	rep, err := RunBatch(context.Background(), cfg, func(i int, r Result) { played++ })
	require.NoError(t, err)
	assert.True(t, rep.Stopped)
	assert.Equal(t, 3, rep.Tally.Hands)
}

func TestTally(t *testing.T) {
	var tl Tally
	for _, o := range []engine.Outcome{engine.PlayerBust, engine.DealerBust, engine.PlayerWin, engine.PlayerLoss, engine.Push, engine.PlayerWin} {
		tl.Add(o)
	}
	assert.Equal(t, Tally{Hands: 6, Wins: 3, Losses: 2, Ties: 1, PlayerBusts: 1, DealerBusts: 1}, tl)
	assert.Equal(t, "50.00", tl.WinPct().StringFixed(2))
	assert.Equal(t, "33.33", tl.LossPct().StringFixed(2))
	assert.Equal(t, "16.67", tl.TiePct().StringFixed(2))

	net := tl.Net()
	assert.Len(t, net, 6)
	sum := 0.0
	for _, v := range net {
		sum += v
	}
	assert.Equal(t, 1.0, sum)
}

func TestTallySummary(t *testing.T) {
	tl := Tally{Hands: 1000, Wins: 430, Losses: 480, Ties: 90}
	assert.Equal(t,
		"The engine won 43.00% of its games and lost 48.00% of its games in 1,000 simulated games.",
		tl.Summary())
	assert.True(t, Tally{}.WinPct().IsZero())
}
