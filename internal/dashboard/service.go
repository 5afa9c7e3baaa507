// Package dashboard ties market data, the returns engine, forecasts and
// session state together into the reports the bot and the CLI show.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolioDashboard/internal/cache"
	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/forecast"
	"portfolioDashboard/internal/logging"
	"portfolioDashboard/internal/session"
)

// ErrNoPrices is returned when no asset of the universe could be loaded.
var ErrNoPrices = errors.New("no price data available")

// PriceSource is the market data the dashboard reads.
type PriceSource interface {
	FetchPrices(ctx context.Context, assets []config.Asset, start, end time.Time) (*finance.Table, error)
	FetchBenchmark(ctx context.Context, ticker string, start, end time.Time) (finance.Series, error)
	FetchOHLCV(ctx context.Context, ticker string, start, end time.Time) ([]finance.Bar, error)
}

// Universe is the loaded price history of every configured asset.
type Universe struct {
	Start      time.Time
	End        time.Time
	Prices     *finance.Table
	Daily      *finance.Table
	Cumulative *finance.Table
}

// Names are the asset display names that have data, in column order.
func (u *Universe) Names() []string { return u.Prices.Columns }

type Service struct {
	cfg        *config.Config
	prices     PriceSource
	forecaster forecast.Forecaster
	charts     *cache.TTL[[]byte]
	logger     *logging.Logger
	now        func() time.Time
}

func NewService(cfg *config.Config, prices PriceSource, forecaster forecast.Forecaster, logger *logging.Logger) *Service {
	return &Service{
		cfg:        cfg,
		prices:     prices,
		forecaster: forecaster,
		charts:     cache.NewTTL[[]byte](cfg.Yahoo.GetCacheTTL()),
		logger:     logger.Component("dashboard"),
		now:        time.Now,
	}
}

func (s *Service) Config() *config.Config { return s.cfg }

// period is [configured start, tomorrow). End is day-aligned so repeated
// loads within a day share cache entries.
func (s *Service) period() (time.Time, time.Time, error) {
	start, err := s.cfg.Start()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, finance.TruncateDay(s.now()).AddDate(0, 0, 1), nil
}

// Universe loads prices for every configured asset and derives the daily
// and cumulative return tables.
func (s *Service) Universe(ctx context.Context) (*Universe, error) {
	start, end, err := s.period()
	if err != nil {
		return nil, err
	}
	prices, err := s.prices.FetchPrices(ctx, config.Assets(s.cfg.Universe), start, end)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	if prices.Empty() {
		return nil, ErrNoPrices
	}
	daily, cumulative := finance.CalculateReturns(prices)
	return &Universe{Start: start, End: end, Prices: prices, Daily: daily, Cumulative: cumulative}, nil
}

// FreshState is the state of a chat that has not touched its weights yet:
// every loaded asset at the default weight.
func (s *Service) FreshState(ctx context.Context) (session.State, error) {
	u, err := s.Universe(ctx)
	if err != nil {
		return session.State{}, err
	}
	return session.New(0, u.Names()), nil
}

// Performance evaluates fractional weights aligned to the universe columns.
func (s *Service) Performance(weights []float64, u *Universe) (finance.Performance, error) {
	return finance.PortfolioPerformance(weights, u.Daily, finance.WithRiskFreeRate(s.cfg.RiskFreeRate))
}

// ReportOptions selects the optional sections of a report.
type ReportOptions struct {
	Benchmark bool
	Forecast  bool
}

// Report is the analysis of one chat's weights.
type Report struct {
	Composition []session.Holding
	Total       int
	Complete    bool

	Performance finance.Performance
	MaxDrawdown float64
	Cumulative  finance.Series

	Comparison    finance.Comparison
	BenchmarkName string
	Forecast      *forecast.Blended
}

// Report analyses st. Performance, comparison and forecast are only computed
// when the weights total 100%; otherwise the report carries the composition
// alone and Complete is false.
func (s *Service) Report(ctx context.Context, st session.State, opts ReportOptions) (Report, error) {
	rep := Report{Composition: st.Held(), Total: st.Total(), Complete: st.Complete()}
	if !rep.Complete {
		return rep, nil
	}

	u, err := s.Universe(ctx)
	if err != nil {
		return rep, err
	}
	weights := st.WeightVector(u.Daily.Columns)
	perf, err := s.Performance(weights, u)
	if err != nil {
		return rep, fmt.Errorf("performance: %w", err)
	}
	growth, err := finance.PortfolioCumulative(weights, u.Daily)
	if err != nil {
		return rep, fmt.Errorf("cumulative: %w", err)
	}
	rep.Performance = perf
	rep.Cumulative = growth
	rep.MaxDrawdown = finance.MaxDrawdown(growth.Values)

	if opts.Benchmark {
		rep.BenchmarkName = s.cfg.Benchmark.Name
		bench, err := s.prices.FetchBenchmark(ctx, s.cfg.Benchmark.Ticker, u.Start, u.End)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", s.cfg.Benchmark.Ticker).Msg("benchmark unavailable")
		} else {
			rep.Comparison = finance.Compare(growth, bench)
		}
	}

	if opts.Forecast && s.forecaster != nil {
		fetch := func(ctx context.Context, ticker string) ([]finance.Bar, error) {
			return s.prices.FetchOHLCV(ctx, ticker, u.Start, u.End)
		}
		blended, err := forecast.Blend(ctx, s.forecaster, fetch, config.Assets(s.cfg.Universe), st.Weights, s.logger)
		if err != nil {
			return rep, fmt.Errorf("forecast: %w", err)
		}
		rep.Forecast = &blended
	}
	return rep, nil
}

// PortReport is the analysis of an ad-hoc /port portfolio.
type PortReport struct {
	Request     finance.PortfolioRequest
	Start       time.Time
	Performance finance.Performance
	MaxDrawdown float64
	Cumulative  finance.Series
	Missing     []string
}

// AnalyzePort fetches the request's symbols over its window and evaluates
// the weighted portfolio. Capital left unassigned earns nothing. Symbols
// without data are reported in Missing and their weight is held as cash.
func (s *Service) AnalyzePort(ctx context.Context, req finance.PortfolioRequest) (PortReport, error) {
	w, err := finance.ParseWindow(req.Window)
	if err != nil {
		return PortReport{}, err
	}
	end := finance.TruncateDay(s.now()).AddDate(0, 0, 1)
	start := w.Start(end)

	assets := make([]config.Asset, len(req.Assets))
	for i, a := range req.Assets {
		assets[i] = config.Asset{Name: a.Symbol, Ticker: a.Symbol}
	}
	prices, err := s.prices.FetchPrices(ctx, assets, start, end)
	if err != nil {
		return PortReport{}, err
	}
	if prices.Empty() {
		return PortReport{}, ErrNoPrices
	}

	rep := PortReport{Request: req, Start: start}
	weights := make([]float64, prices.Cols())
	for _, a := range req.Assets {
		idx := prices.ColumnIndex(a.Symbol)
		if idx < 0 {
			rep.Missing = append(rep.Missing, a.Symbol)
			continue
		}
		weights[idx] = a.Weight
	}

	daily := finance.DailyReturns(prices)
	if rep.Performance, err = finance.PortfolioPerformance(weights, daily, finance.WithRiskFreeRate(s.cfg.RiskFreeRate)); err != nil {
		return PortReport{}, fmt.Errorf("performance: %w", err)
	}
	if rep.Cumulative, err = finance.PortfolioCumulative(weights, daily); err != nil {
		return PortReport{}, fmt.Errorf("cumulative: %w", err)
	}
	rep.MaxDrawdown = finance.MaxDrawdown(rep.Cumulative.Values)
	return rep, nil
}

// Forecast predicts one asset's return over the configured horizon.
func (s *Service) Forecast(ctx context.Context, asset config.Asset) (float64, error) {
	if s.forecaster == nil {
		return 0, errors.New("no forecaster configured")
	}
	start, end, err := s.period()
	if err != nil {
		return 0, err
	}
	bars, err := s.prices.FetchOHLCV(ctx, asset.Ticker, start, end)
	if err != nil {
		return 0, err
	}
	return s.forecaster.Predict(ctx, bars)
}
