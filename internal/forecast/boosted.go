package forecast

import (
	"context"
	"math"

	"portfolioDashboard/internal/finance"
)

// Boosted trains a fresh tree ensemble on every call and predicts the
// forward return from the most recent feature row.
type Boosted struct {
	Horizon int
	Params  GBTParams
}

func NewBoosted(horizon int) *Boosted {
	if horizon <= 0 {
		horizon = 20
	}
	return &Boosted{Horizon: horizon, Params: DefaultGBTParams()}
}

func (b *Boosted) Name() string { return "boosted" }

// Predict returns 0 without error when there is too little history to build
// a training set.
func (b *Boosted) Predict(ctx context.Context, bars []finance.Bar) (float64, error) {
	closes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if p := bar.Price(); !math.IsNaN(p) {
			closes = append(closes, p)
		}
	}
	rows := BuildFeatures(closes)
	if len(rows) == 0 {
		return 0, nil
	}
	targets := Targets(closes, rows, b.Horizon)

	var x [][]float64
	var y []float64
	for i, r := range rows {
		if math.IsNaN(targets[i]) {
			continue
		}
		x = append(x, r.Values)
		y = append(y, targets[i])
	}
	if len(x) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	model, err := FitGBT(x, y, b.Params)
	if err != nil {
		return 0, nil
	}
	return model.Predict(rows[len(rows)-1].Values), nil
}
