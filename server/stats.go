package main

import (
	"math"
	"math/rand"
	"sort"

	"blackjack-engine/server/table"
)

// ScoreRateCI95 is the Wilson 95% interval for the score rate, where a push
// counts as half a win.
func ScoreRateCI95(t table.Tally) (low, hi float64) {
	if t.Hands <= 0 {
		return 0, 1
	}
	const z2 = 1.96 * 1.96
	n := float64(t.Hands)
	rate := (float64(t.Wins) + float64(t.Ties)/2) / n
	scale := 1 / (1 + z2/n)
	mid := scale * (rate + z2/(2*n))
	spread := scale * math.Sqrt(z2*rate*(1-rate)/n+z2*z2/(4*n*n))
	return mid - spread, mid + spread
}

// BootstrapCI95 for the mean of values (net result per hand).
func BootstrapCI95(r *rand.Rand, vals []float64, B int) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	res := make([]float64, B)
	for b := 0; b < B; b++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[r.Intn(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}
