package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"blackjack-engine/server/table"
)

func TestScoreRateCI95(t *testing.T) {
	lo, hi := ScoreRateCI95(table.Tally{})
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = ScoreRateCI95(table.Tally{Hands: 1000, Wins: 430, Losses: 480, Ties: 90})
	assert.Less(t, lo, 0.475)
	assert.Greater(t, hi, 0.475)
	assert.InDelta(t, 0.475, (lo+hi)/2, 0.01)
	assert.Less(t, hi-lo, 0.07)

	lo, hi = ScoreRateCI95(table.Tally{Hands: 10, Wins: 10})
	assert.InDelta(t, 1.0, hi, 1e-9)
	assert.Greater(t, lo, 0.6)
}

func TestBootstrapCI95(t *testing.T) {
	lo, hi := BootstrapCI95(rand.New(rand.NewSource(1)), nil, 100)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	vals := make([]float64, 0, 400)
	for i := 0; i < 200; i++ {
		vals = append(vals, 1, -1)
	}
	lo, hi = BootstrapCI95(rand.New(rand.NewSource(7)), vals, 500)
	assert.Less(t, lo, 0.0)
	assert.Greater(t, hi, 0.0)
	assert.LessOrEqual(t, lo, hi)

	again1, again2 := BootstrapCI95(rand.New(rand.NewSource(7)), vals, 500)
	assert.Equal(t, lo, again1)
	assert.Equal(t, hi, again2)

	lo, hi = BootstrapCI95(rand.New(rand.NewSource(7)), []float64{1, 1, 1}, 50)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 1.0, hi)
}
