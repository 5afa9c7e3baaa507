package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_InnerJoinAndNormalize(t *testing.T) {
	d := days(4)
	portfolio := Series{Dates: d[1:], Values: []float64{1.1, 1.21, 1.331}}
	benchmark := Series{Dates: []time.Time{d[0], d[1], d[3]}, Values: []float64{3000, 4000, 4400}}

	c := Compare(portfolio, benchmark)

	require.Equal(t, []time.Time{d[1], d[3]}, c.Dates)
	assert.InDelta(t, 1.0, c.Portfolio[0], 1e-12)
	assert.InDelta(t, 1.0, c.Benchmark[0], 1e-12)
	assert.InDelta(t, 1.21, c.PortfolioFinal, 1e-12)
	assert.InDelta(t, 1.1, c.BenchmarkFinal, 1e-12)
	assert.True(t, c.Outperformed)
	assert.InDelta(t, 0.11, c.Excess(), 1e-12)
}

func TestCompare_Underperformed(t *testing.T) {
	d := days(2)
	c := Compare(
		Series{Dates: d, Values: []float64{1, 1.05}},
		Series{Dates: d, Values: []float64{10, 11}},
	)
	assert.False(t, c.Outperformed)
}

func TestCompare_TieIsNotOutperformance(t *testing.T) {
	d := days(2)
	c := Compare(
		Series{Dates: d, Values: []float64{1, 1.1}},
		Series{Dates: d, Values: []float64{2, 2.2}},
	)
	assert.False(t, c.Outperformed)
}

func TestCompare_NoOverlap(t *testing.T) {
	d := days(4)
	c := Compare(
		Series{Dates: d[:2], Values: []float64{1, 2}},
		Series{Dates: d[2:], Values: []float64{1, 2}},
	)
	assert.True(t, c.Empty())
	assert.False(t, c.Outperformed)
}

func TestCompare_SkipsNaN(t *testing.T) {
	d := days(3)
	c := Compare(
		Series{Dates: d, Values: []float64{nan, 2, 3}},
		Series{Dates: d, Values: []float64{1, 1, nan}},
	)
	require.Len(t, c.Dates, 1)
	assert.Equal(t, d[1], c.Dates[0])
}
