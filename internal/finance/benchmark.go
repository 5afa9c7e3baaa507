package finance

import (
	"math"
	"time"
)

// Comparison is a portfolio and a benchmark normalized to 1.0 on their first
// common day.
type Comparison struct {
	Dates          []time.Time
	Portfolio      []float64
	Benchmark      []float64
	PortfolioFinal float64
	BenchmarkFinal float64
	Outperformed   bool
}

func (c Comparison) Empty() bool { return len(c.Dates) == 0 }

// Excess is the final portfolio value minus the final benchmark value.
func (c Comparison) Excess() float64 {
	return c.PortfolioFinal - c.BenchmarkFinal
}

// Compare inner-joins two cumulative value series on calendar day, drops days
// where either is NaN, and rescales both by their first common value.
func Compare(portfolio, benchmark Series) Comparison {
	bench := make(map[string]float64, len(benchmark.Dates))
	for i, d := range benchmark.Dates {
		if v := benchmark.Values[i]; !math.IsNaN(v) {
			bench[dayKey(d)] = v
		}
	}

	var c Comparison
	var p0, b0 float64
	for i, d := range portfolio.Dates {
		pv := portfolio.Values[i]
		bv, ok := bench[dayKey(d)]
		if !ok || math.IsNaN(pv) {
			continue
		}
		if len(c.Dates) == 0 {
			if pv == 0 || bv == 0 {
				continue
			}
			p0, b0 = pv, bv
		}
		c.Dates = append(c.Dates, d)
		c.Portfolio = append(c.Portfolio, pv/p0)
		c.Benchmark = append(c.Benchmark, bv/b0)
	}
	if c.Empty() {
		return c
	}

	c.PortfolioFinal = c.Portfolio[len(c.Portfolio)-1]
	c.BenchmarkFinal = c.Benchmark[len(c.Benchmark)-1]
	c.Outperformed = c.PortfolioFinal > c.BenchmarkFinal
	return c
}
