package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/logging"
	"portfolioDashboard/internal/session"
)

var closes = map[string][]float64{
	"AAA": {100, 102, 101, 105, 107, 106},
	"BBB": {50, 50.5, 51, 50, 52, 53},
	"IDX": {1000, 1005, 1003, 1010, 1012, 1011},
}

func testDays(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

type fakePrices struct {
	priceCalls int
	benchErr   error
}

func (f *fakePrices) FetchPrices(ctx context.Context, assets []config.Asset, _, _ time.Time) (*finance.Table, error) {
	f.priceCalls++
	var names []string
	var series []finance.Series
	for _, a := range assets {
		c, ok := closes[a.Ticker]
		if !ok {
			continue
		}
		names = append(names, a.Name)
		series = append(series, finance.Series{Dates: testDays(len(c)), Values: c})
	}
	t, err := finance.AlignSeries(names, series)
	if err != nil {
		return nil, err
	}
	return t.DropEmpty(ctx)
}

func (f *fakePrices) FetchBenchmark(_ context.Context, ticker string, _, _ time.Time) (finance.Series, error) {
	if f.benchErr != nil {
		return finance.Series{}, f.benchErr
	}
	c := closes[ticker]
	return finance.Series{Dates: testDays(len(c)), Values: c}, nil
}

func (f *fakePrices) FetchOHLCV(_ context.Context, ticker string, _, _ time.Time) ([]finance.Bar, error) {
	c, ok := closes[ticker]
	if !ok {
		return nil, errors.New("no data")
	}
	bars := make([]finance.Bar, len(c))
	for i, d := range testDays(len(c)) {
		bars[i] = finance.Bar{Date: d, Open: c[i], High: c[i], Low: c[i], Close: c[i], AdjClose: c[i], Volume: 1}
	}
	return bars, nil
}

type lastCloseForecaster struct{}

func (lastCloseForecaster) Name() string { return "test" }

func (lastCloseForecaster) Predict(_ context.Context, bars []finance.Bar) (float64, error) {
	return bars[len(bars)-1].Close / 1000, nil
}

func testService(t *testing.T, prices PriceSource) *Service {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Universe = []config.AssetClass{{
		Name: "Test",
		Assets: []config.Asset{
			{Name: "Alpha", Ticker: "AAA"},
			{Name: "Beta", Ticker: "BBB"},
			{Name: "Gamma", Ticker: "MISSING"},
		},
	}}
	cfg.Benchmark = config.Benchmark{Name: "Index", Ticker: "IDX"}
	svc := NewService(cfg, prices, lastCloseForecaster{}, logging.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_FreshStateUsesLoadedColumns(t *testing.T) {
	svc := testService(t, &fakePrices{})
	st, err := svc.FreshState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, st.Assets)
	assert.Equal(t, 50, st.Weights["Alpha"])
	assert.True(t, st.Complete())
}

func TestService_ReportIncompleteSkipsAnalysis(t *testing.T) {
	prices := &fakePrices{}
	svc := testService(t, prices)
	st, err := session.New(1, []string{"Alpha", "Beta"}).SetWeight("Alpha", 40, 5)
	require.NoError(t, err)

	rep, err := svc.Report(context.Background(), st, ReportOptions{Benchmark: true, Forecast: true})
	require.NoError(t, err)
	assert.False(t, rep.Complete)
	assert.Equal(t, 90, rep.Total)
	assert.Len(t, rep.Composition, 2)
	assert.Nil(t, rep.Forecast)
	assert.Zero(t, prices.priceCalls)
	assert.Contains(t, FormatReport(rep), "currently 90%")
}

func TestService_ReportComplete(t *testing.T) {
	svc := testService(t, &fakePrices{})
	st, err := session.New(1, []string{"Alpha", "Beta"}).SetWeight("Alpha", 70, 5)
	require.NoError(t, err)
	st, err = st.SetWeight("Beta", 30, 5)
	require.NoError(t, err)

	rep, err := svc.Report(context.Background(), st, ReportOptions{Benchmark: true, Forecast: true})
	require.NoError(t, err)
	require.True(t, rep.Complete)

	u, err := svc.Universe(context.Background())
	require.NoError(t, err)
	want, err := finance.PortfolioPerformance([]float64{0.7, 0.3}, u.Daily)
	require.NoError(t, err)
	assert.InDelta(t, want.AnnualReturn, rep.Performance.AnnualReturn, 1e-12)
	assert.InDelta(t, want.SharpeRatio, rep.Performance.SharpeRatio, 1e-12)
	assert.Equal(t, 5, rep.Cumulative.Len())

	require.False(t, rep.Comparison.Empty())
	assert.Equal(t, "Index", rep.BenchmarkName)
	assert.InDelta(t, 1011.0/1005, rep.Comparison.BenchmarkFinal, 1e-9)

	require.NotNil(t, rep.Forecast)
	assert.InDelta(t, 0.7*0.106+0.3*0.053, rep.Forecast.Total, 1e-12)

	text := FormatReport(rep)
	assert.Contains(t, text, "Sharpe ratio")
	assert.Contains(t, text, "Versus Index")
	assert.Contains(t, FormatComparison(rep), fmt.Sprintf("Difference: **%+.2f**", rep.Comparison.Excess()))
}

func TestService_BenchmarkFailureIsNotFatal(t *testing.T) {
	svc := testService(t, &fakePrices{benchErr: errors.New("down")})
	st := session.New(1, []string{"Alpha", "Beta"})

	rep, err := svc.Report(context.Background(), st, ReportOptions{Benchmark: true})
	require.NoError(t, err)
	assert.True(t, rep.Comparison.Empty())
	assert.Contains(t, FormatReport(rep), "Benchmark data unavailable")
}

func TestService_EmptyUniverse(t *testing.T) {
	svc := testService(t, &fakePrices{})
	svc.cfg.Universe = []config.AssetClass{{Name: "X", Assets: []config.Asset{{Name: "Nope", Ticker: "NOPE"}}}}
	_, err := svc.Universe(context.Background())
	assert.ErrorIs(t, err, ErrNoPrices)
}

func TestService_AnalyzePort(t *testing.T) {
	svc := testService(t, &fakePrices{})
	req, err := finance.ParsePortfolioCommand("/port AAA 0.5 ZZZ 25% 1m")
	require.NoError(t, err)

	rep, err := svc.AnalyzePort(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZZZ"}, rep.Missing)
	assert.Equal(t, time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC), rep.Start)

	want, err := finance.PortfolioPerformance([]float64{0.5}, finance.DailyReturns(mustPrices(t, "AAA")))
	require.NoError(t, err)
	assert.InDelta(t, want.AnnualReturn, rep.Performance.AnnualReturn, 1e-12)
	assert.Contains(t, FormatPortReport(rep), "No data for ZZZ")
}

func mustPrices(t *testing.T, ticker string) *finance.Table {
	t.Helper()
	c := closes[ticker]
	tbl, err := finance.AlignSeries([]string{ticker}, []finance.Series{{Dates: testDays(len(c)), Values: c}})
	require.NoError(t, err)
	return tbl
}

func TestService_ChartsAreCached(t *testing.T) {
	svc := testService(t, &fakePrices{})
	st := session.New(1, []string{"Alpha", "Beta"})

	a, err := svc.CompositionChart(st)
	require.NoError(t, err)
	b, err := svc.CompositionChart(st)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, svc.charts.Len())

	_, err = svc.PerformanceChart(Report{})
	assert.ErrorIs(t, err, session.ErrIncomplete)
}
