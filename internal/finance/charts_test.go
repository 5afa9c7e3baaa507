package finance

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioDashboard/internal/storage"
)

var pngMagic = []byte("\x89PNG")

func TestMakeCompositionChart(t *testing.T) {
	img, err := MakeCompositionChart([]string{"Apple", "Gold", "Bitcoin"}, []float64{50, 0, 50})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = MakeCompositionChart([]string{"Apple"}, []float64{0})
	assert.Error(t, err)

	_, err = MakeCompositionChart([]string{"Apple"}, nil)
	assert.Error(t, err)
}

func TestMakeCumulativeChart(t *testing.T) {
	cum := mustTable(t, []string{"A", "B"},
		[]float64{1.01, nan},
		[]float64{1.02, 0.99},
		[]float64{1.05, 1.01},
	)
	img, err := MakeCumulativeChart(cum, "Cumulative Returns")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = MakeCumulativeChart(EmptyTable(nil), "x")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestMakePerformanceChart(t *testing.T) {
	growth := Series{Dates: days(3), Values: []float64{1, 1.1, 1.05}}
	img, err := MakePerformanceChart(growth, Performance{AnnualReturn: 0.1, AnnualVolatility: 0.2, SharpeRatio: 0.5}, 0.05, "Portfolio")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestRenderComparisonChart(t *testing.T) {
	d := days(3)
	c := Compare(Series{Dates: d, Values: []float64{1, 1.1, 1.2}}, Series{Dates: d, Values: []float64{10, 10.5, 11}})
	img, err := RenderComparisonChart(c, "S&P 500")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = RenderComparisonChart(Comparison{}, "S&P 500")
	assert.Error(t, err)
}

func TestFormatUsageStatsText(t *testing.T) {
	stats := map[string]*storage.UsageStats{
		"analysis": {Count: 3, Commands: map[string]int{"/perf": 2, "/bench": 1}},
		"session":  {Count: 1, Commands: map[string]int{"/set": 1}},
	}
	text := FormatUsageStatsText(stats, 7)
	assert.Contains(t, text, "Total commands: 4")
	assert.Contains(t, text, "/perf: 2")
	assert.Contains(t, text, "75.0%")

	assert.Contains(t, FormatUsageStatsText(nil, 7), "No usage data")
}
