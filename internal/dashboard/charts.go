package dashboard

import (
	"fmt"
	"sort"
	"strconv"

	"portfolioDashboard/internal/cache"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/session"
)

// chart memoizes a rendered PNG under the hash of parts.
func (s *Service) chart(render func() ([]byte, error), parts ...string) ([]byte, error) {
	key := cache.Key(parts...)
	if png, ok := s.charts.Get(key); ok {
		return png, nil
	}
	png, err := render()
	if err != nil {
		return nil, err
	}
	s.charts.Set(key, png)
	return png, nil
}

func weightsKey(holdings []session.Holding) []string {
	parts := make([]string, 0, 2*len(holdings))
	sorted := append([]session.Holding(nil), holdings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, h := range sorted {
		parts = append(parts, h.Name, strconv.Itoa(h.Percent))
	}
	return parts
}

// CompositionChart is the pie of the held assets.
func (s *Service) CompositionChart(st session.State) ([]byte, error) {
	held := st.Held()
	names := make([]string, len(held))
	weights := make([]float64, len(held))
	for i, h := range held {
		names[i] = h.Name
		weights[i] = float64(h.Percent)
	}
	return s.chart(func() ([]byte, error) {
		return finance.MakeCompositionChart(names, weights)
	}, append([]string{"pie"}, weightsKey(held)...)...)
}

// PerformanceChart is the portfolio growth line of a complete report.
func (s *Service) PerformanceChart(rep Report) ([]byte, error) {
	if !rep.Complete {
		return nil, session.ErrIncomplete
	}
	last := ""
	if n := len(rep.Cumulative.Dates); n > 0 {
		last = rep.Cumulative.Dates[n-1].Format("2006-01-02")
	}
	parts := append([]string{"perf", last}, weightsKey(rep.Composition)...)
	return s.chart(func() ([]byte, error) {
		return finance.MakePerformanceChart(rep.Cumulative, rep.Performance, rep.MaxDrawdown, "My Portfolio")
	}, parts...)
}

// ComparisonChart plots the normalized portfolio against the benchmark.
func (s *Service) ComparisonChart(rep Report) ([]byte, error) {
	if rep.Comparison.Empty() {
		return nil, fmt.Errorf("no common dates with %s", rep.BenchmarkName)
	}
	last := rep.Comparison.Dates[len(rep.Comparison.Dates)-1].Format("2006-01-02")
	parts := append([]string{"bench", rep.BenchmarkName, last}, weightsKey(rep.Composition)...)
	return s.chart(func() ([]byte, error) {
		return finance.RenderComparisonChart(rep.Comparison, rep.BenchmarkName)
	}, parts...)
}

// UniverseChart draws the cumulative return of every asset.
func (s *Service) UniverseChart(u *Universe) ([]byte, error) {
	last := ""
	if n := len(u.Cumulative.Dates); n > 0 {
		last = u.Cumulative.Dates[n-1].Format("2006-01-02")
	}
	parts := append([]string{"universe", last}, u.Names()...)
	return s.chart(func() ([]byte, error) {
		return finance.MakeCumulativeChart(u.Cumulative, "Asset Cumulative Returns")
	}, parts...)
}

// PortChart draws an ad-hoc portfolio's growth.
func (s *Service) PortChart(rep PortReport) ([]byte, error) {
	title := fmt.Sprintf("Portfolio %s", rep.Request.Window)
	return finance.MakePerformanceChart(rep.Cumulative, rep.Performance, rep.MaxDrawdown, title)
}
