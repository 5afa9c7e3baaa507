package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolioDashboard/internal/cache"
	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/logging"
)

// BarSource supplies daily bars for one symbol.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]finance.Bar, error)
}

// Fetcher builds price tables from a BarSource and memoizes them by the
// ordered ticker list and date range.
type Fetcher struct {
	source BarSource
	prices *cache.TTL[*finance.Table]
	bars   *cache.TTL[[]finance.Bar]
	logger *logging.Logger
}

func NewFetcher(source BarSource, ttl time.Duration, logger *logging.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		prices: cache.NewTTL[*finance.Table](ttl),
		bars:   cache.NewTTL[[]finance.Bar](ttl),
		logger: logger.Component("fetcher"),
	}
}

// FetchPrices downloads every asset's adjusted close over [start, end) and
// joins them into one table whose columns are the display names. Tickers
// that fail or return nothing are dropped, as are all-NaN rows and columns.
// The result is empty, not an error, when nothing could be fetched.
func (f *Fetcher) FetchPrices(ctx context.Context, assets []config.Asset, start, end time.Time) (*finance.Table, error) {
	tickers := make([]string, len(assets))
	for i, a := range assets {
		tickers[i] = a.Ticker
	}
	key := cache.FetchKey("prices", tickers, start, end)
	if t, ok := f.prices.Get(key); ok {
		f.logger.Debug().Strs("tickers", tickers).Msg("price table cache hit")
		return t, nil
	}

	var names []string
	var series []finance.Series
	for _, a := range assets {
		bars, err := f.bars1(ctx, a.Ticker, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn().Err(err).Str("ticker", a.Ticker).Msg("dropping ticker")
			continue
		}
		names = append(names, a.Name)
		series = append(series, closeSeries(bars))
	}

	table, err := finance.AlignSeries(names, series)
	if err != nil {
		return nil, err
	}
	if table, err = table.DropEmpty(ctx); err != nil {
		return nil, err
	}
	f.logger.Info().Int("assets", table.Cols()).Int("days", table.Rows()).
		Str("start", start.Format("2006-01-02")).Msg("price table built")
	f.prices.Set(key, table)
	return table, nil
}

// FetchBenchmark returns the adjusted close series of one index.
func (f *Fetcher) FetchBenchmark(ctx context.Context, ticker string, start, end time.Time) (finance.Series, error) {
	bars, err := f.bars1(ctx, ticker, start, end)
	if err != nil {
		return finance.Series{}, fmt.Errorf("benchmark %s: %w", ticker, err)
	}
	s := closeSeries(bars)
	if s.Len() == 0 {
		return finance.Series{}, fmt.Errorf("benchmark %s: %w", ticker, ErrNoData)
	}
	return s, nil
}

// FetchOHLCV returns the complete daily bars of one ticker; bars with any missing
// field are dropped.
func (f *Fetcher) FetchOHLCV(ctx context.Context, ticker string, start, end time.Time) ([]finance.Bar, error) {
	bars, err := f.bars1(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	out := completeBars(bars)
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	return out, nil
}

func (f *Fetcher) bars1(ctx context.Context, ticker string, start, end time.Time) ([]finance.Bar, error) {
	key := cache.FetchKey("bars", []string{ticker}, start, end)
	if b, ok := f.bars.Get(key); ok {
		return b, nil
	}
	bars, err := f.source.DailyBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, errors.Join(ErrNoData, fmt.Errorf("ticker %s", ticker))
	}
	f.bars.Set(key, bars)
	return bars, nil
}

func closeSeries(bars []finance.Bar) finance.Series {
	s := finance.Series{
		Dates:  make([]time.Time, len(bars)),
		Values: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Dates[i] = b.Date
		s.Values[i] = b.Price()
	}
	return s
}
