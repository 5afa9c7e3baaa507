package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/dashboard"
	"portfolioDashboard/internal/logging"
	"portfolioDashboard/internal/session"
)

var commands = []subcommands.Command{
	&assetsCmd{},
	&returnsCmd{},
	&perfCmd{},
	&benchCmd{},
	&forecastCmd{},
}

// env loads the config and builds the dashboard service.
type env struct {
	logLevel string
}

func (e *env) setFlags(f *flag.FlagSet) {
	f.StringVar(&e.logLevel, "log", "warn", "log level (debug, info, warn, error)")
}

func (e *env) load(ctx context.Context, withService bool) (*config.Config, *dashboard.Service, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, err
	}
	if !withService {
		return cfg, nil, nil
	}
	svc, err := dashboard.NewFromConfig(ctx, cfg, logging.NewLogger(e.logLevel))
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

// weightsState parses "Name=50,Other Name=50" into a session state over the
// loaded universe.
func weightsState(ctx context.Context, svc *dashboard.Service, list string) (session.State, error) {
	st, err := svc.FreshState(ctx)
	if err != nil {
		return session.State{}, err
	}
	if strings.TrimSpace(list) == "" {
		return st, nil
	}
	st = st.ClearWeights()
	for _, part := range strings.Split(list, ",") {
		name, pct, ok := strings.Cut(part, "=")
		if !ok {
			return session.State{}, fmt.Errorf("weight %q is not NAME=PCT", part)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(pct), "%"))
		if err != nil {
			return session.State{}, fmt.Errorf("weight %q: %w", part, err)
		}
		if st, err = st.SetWeight(name, n, 0); err != nil {
			return session.State{}, err
		}
	}
	return st, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func writeChart(path string, png []byte, err error) error {
	if path == "" {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

type assetsCmd struct{ env env }

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list the configured asset universe" }
func (*assetsCmd) Usage() string {
	return `portfolioctl assets

  Lists the asset classes, assets and the benchmark index.
`
}
func (c *assetsCmd) SetFlags(f *flag.FlagSet) { c.env.setFlags(f) }

func (c *assetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, _, err := c.env.load(ctx, false)
	if err != nil {
		return fail(err)
	}
	printMarkdown("# Asset universe\n\n" + dashboard.FormatUniverse(cfg.Universe, cfg.Benchmark))
	return subcommands.ExitSuccess
}

type returnsCmd struct {
	env   env
	chart string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "show cumulative and annualized returns of every asset" }
func (*returnsCmd) Usage() string {
	return `portfolioctl returns [-chart out.png]

  Loads every asset since the configured start date and prints its
  cumulative return, annual return and annual volatility.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	c.env.setFlags(f)
	f.StringVar(&c.chart, "chart", "", "write the cumulative return chart to this PNG file")
}

func (c *returnsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, svc, err := c.env.load(ctx, true)
	if err != nil {
		return fail(err)
	}
	u, err := svc.Universe(ctx)
	if err != nil {
		return fail(err)
	}

	type row struct {
		name       string
		cumulative float64
		ann        float64
		vol        float64
	}
	var rows []row
	for i, name := range u.Names() {
		w := make([]float64, len(u.Names()))
		w[i] = 1
		r := row{name: name, cumulative: math.NaN(), ann: math.NaN(), vol: math.NaN()}
		if perf, err := svc.Performance(w, u); err == nil {
			r.ann, r.vol = perf.AnnualReturn, perf.AnnualVolatility
		}
		if col, ok := u.Cumulative.Column(name); ok {
			for j := col.Len() - 1; j >= 0; j-- {
				if !math.IsNaN(col.Values[j]) {
					r.cumulative = col.Values[j]
					break
				}
			}
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].cumulative > rows[j].cumulative })

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Returns since %s\n\n", u.Start.Format("2006-01-02"))
	sb.WriteString("| Asset | Growth of 1 | Annual return | Annual volatility |\n|---|---:|---:|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f%% | %.2f%% |\n", r.name, r.cumulative, r.ann*100, r.vol*100)
	}
	printMarkdown(sb.String())

	if c.chart != "" {
		png, err := svc.UniverseChart(u)
		if err := writeChart(c.chart, png, err); err != nil {
			return fail(err)
		}
	}
	return subcommands.ExitSuccess
}

type perfCmd struct {
	env     env
	weights string
	chart   string
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "analyse a weighted portfolio of the universe" }
func (*perfCmd) Usage() string {
	return `portfolioctl perf -w "Apple=50,Gold=50" [-chart out.png]

  Prints annual return, volatility, Sharpe ratio and max drawdown.
  Without -w every asset gets the default equal weight.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	c.env.setFlags(f)
	f.StringVar(&c.weights, "w", "", "weights as NAME=PCT,... (must total 100)")
	f.StringVar(&c.chart, "chart", "", "write the portfolio growth chart to this PNG file")
}

func (c *perfCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, svc, err := c.env.load(ctx, true)
	if err != nil {
		return fail(err)
	}
	st, err := weightsState(ctx, svc, c.weights)
	if err != nil {
		return fail(err)
	}
	rep, err := svc.Report(ctx, st, dashboard.ReportOptions{})
	if err != nil {
		return fail(err)
	}
	printMarkdown("# Portfolio\n\n" + dashboard.FormatReport(rep))
	if c.chart != "" && rep.Complete {
		png, err := svc.PerformanceChart(rep)
		if err := writeChart(c.chart, png, err); err != nil {
			return fail(err)
		}
	}
	if !rep.Complete {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}

type benchCmd struct {
	env     env
	weights string
	chart   string
}

func (*benchCmd) Name() string     { return "bench" }
func (*benchCmd) Synopsis() string { return "compare a weighted portfolio with the benchmark" }
func (*benchCmd) Usage() string {
	return `portfolioctl bench -w "Apple=50,Gold=50" [-chart out.png]

  Normalizes the portfolio and the benchmark to 1.0 on their first common
  day and reports which finished higher.
`
}

func (c *benchCmd) SetFlags(f *flag.FlagSet) {
	c.env.setFlags(f)
	f.StringVar(&c.weights, "w", "", "weights as NAME=PCT,... (must total 100)")
	f.StringVar(&c.chart, "chart", "", "write the comparison chart to this PNG file")
}

func (c *benchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, svc, err := c.env.load(ctx, true)
	if err != nil {
		return fail(err)
	}
	st, err := weightsState(ctx, svc, c.weights)
	if err != nil {
		return fail(err)
	}
	rep, err := svc.Report(ctx, st, dashboard.ReportOptions{Benchmark: true})
	if err != nil {
		return fail(err)
	}
	if !rep.Complete {
		printMarkdown(dashboard.FormatReport(rep))
		return subcommands.ExitUsageError
	}
	printMarkdown("# Benchmark\n\n" + dashboard.FormatComparison(rep))
	if c.chart != "" && !rep.Comparison.Empty() {
		png, err := svc.ComparisonChart(rep)
		if err := writeChart(c.chart, png, err); err != nil {
			return fail(err)
		}
	}
	return subcommands.ExitSuccess
}

type forecastCmd struct {
	env     env
	weights string
	asset   string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "forecast a portfolio or a single asset" }
func (*forecastCmd) Usage() string {
	return `portfolioctl forecast [-w "Apple=50,Gold=50"] [-a NAME]

  With -a forecasts one asset; otherwise blends the per-asset forecasts
  by portfolio weight.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	c.env.setFlags(f)
	f.StringVar(&c.weights, "w", "", "weights as NAME=PCT,... (must total 100)")
	f.StringVar(&c.asset, "a", "", "forecast only this asset (name or ticker)")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, svc, err := c.env.load(ctx, true)
	if err != nil {
		return fail(err)
	}
	if c.asset != "" {
		asset, ok := config.FindAsset(cfg.Universe, c.asset)
		if !ok {
			return fail(fmt.Errorf("unknown asset %q", c.asset))
		}
		pred, err := svc.Forecast(ctx, asset)
		if err != nil {
			return fail(err)
		}
		printMarkdown(fmt.Sprintf("# %s\n\nExpected return over %d trading days: **%.2f%%**\n",
			asset.Name, cfg.Forecast.Horizon, pred*100))
		return subcommands.ExitSuccess
	}

	st, err := weightsState(ctx, svc, c.weights)
	if err != nil {
		return fail(err)
	}
	rep, err := svc.Report(ctx, st, dashboard.ReportOptions{Forecast: true})
	if err != nil {
		return fail(err)
	}
	printMarkdown("# Forecast\n\n" + dashboard.FormatReport(rep))
	if !rep.Complete {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
