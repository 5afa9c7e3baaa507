// Package forecast predicts short-horizon asset returns and blends them into
// a portfolio-level expectation.
package forecast

import (
	"context"
	"sort"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/logging"
)

// Forecaster predicts the return over its horizon from daily bars.
type Forecaster interface {
	Name() string
	Predict(ctx context.Context, bars []finance.Bar) (float64, error)
}

// BarsFunc loads the daily bars of one ticker.
type BarsFunc func(ctx context.Context, ticker string) ([]finance.Bar, error)

// AssetForecast is one held asset's contribution.
type AssetForecast struct {
	Name       string
	Ticker     string
	Weight     int // percent
	Prediction float64
	Err        error
}

type Blended struct {
	Total  float64
	Assets []AssetForecast
}

// Blend sums prediction × weight/100 over every asset with a positive weight.
// An asset whose bars or prediction fail contributes 0.
func Blend(ctx context.Context, f Forecaster, fetch BarsFunc, assets []config.Asset,
	weights map[string]int, logger *logging.Logger) (Blended, error) {
	var out Blended
	for _, a := range assets {
		w := weights[a.Name]
		if w <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		af := AssetForecast{Name: a.Name, Ticker: a.Ticker, Weight: w}
		bars, err := fetch(ctx, a.Ticker)
		if err == nil {
			af.Prediction, err = f.Predict(ctx, bars)
		}
		if err != nil {
			af.Prediction = 0
			af.Err = err
			logger.Warn().Err(err).Str("asset", a.Name).Str("forecaster", f.Name()).Msg("forecast failed, using 0")
		}
		out.Total += af.Prediction * float64(w) / 100
		out.Assets = append(out.Assets, af)
	}
	sort.SliceStable(out.Assets, func(i, j int) bool { return out.Assets[i].Weight > out.Assets[j].Weight })
	return out, nil
}
