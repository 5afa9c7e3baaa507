package finance

import (
	"errors"
	"fmt"
	"math"

	"github.com/vicanso/go-charts/v2"
)

// MakeCompositionChart renders a pie of the held assets. Weights are in
// percent; assets with a zero weight are left out.
func MakeCompositionChart(names []string, weights []float64) ([]byte, error) {
	if len(names) != len(weights) {
		return nil, fmt.Errorf("names and weights length mismatch")
	}

	var values []float64
	var labels []string
	total := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		values = append(values, w)
		labels = append(labels, fmt.Sprintf("%s (%.0f%%)", names[i], w))
		total += w
	}
	if len(values) == 0 {
		return nil, errors.New("no assets held")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Portfolio Composition (%.0f%%)", total)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return p.Bytes()
}

// MakeCumulativeChart draws the compounded growth of each column of a
// cumulative return table. NaN cells are carried forward so lines stay
// continuous; leading NaNs start at 1.
func MakeCumulativeChart(cumulative *Table, title string) ([]byte, error) {
	if cumulative.Empty() {
		return nil, ErrEmptyTable
	}
	if cumulative.Rows() < 2 {
		return nil, errors.New("not enough data points")
	}

	values := make([][]float64, cumulative.Cols())
	for c := range values {
		line := make([]float64, cumulative.Rows())
		last := 1.0
		for r, row := range cumulative.Values {
			if !math.IsNaN(row[c]) {
				last = row[c]
			}
			line[r] = last
		}
		values[c] = line
	}
	return renderLines(values, cumulative.Columns, dateLabels(cumulative), title, "")
}

// MakePerformanceChart plots a single portfolio growth line with its
// statistics in the subtitle.
func MakePerformanceChart(growth Series, perf Performance, maxDrawdown float64, title string) ([]byte, error) {
	if growth.Len() < 2 {
		return nil, errors.New("not enough data points")
	}
	subtitle := fmt.Sprintf("Return: %.2f%% | Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%%",
		perf.AnnualReturn*100, perf.SharpeRatio, perf.AnnualVolatility*100, maxDrawdown*100)
	return renderLines([][]float64{growth.Values}, nil, dateLabels(growth.Table("growth")), title, subtitle)
}

func renderLines(values [][]float64, names, xLabels []string, title, subtitle string) ([]byte, error) {
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, line := range values {
		for _, v := range line {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	opts := []charts.OptionFunc{
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	}
	if len(names) > 0 {
		opts = append(opts, charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionBottom,
		}))
	}

	p, err := charts.LineRender(values, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

func dateLabels(t *Table) []string {
	labels := make([]string, t.Rows())
	for i, d := range t.Dates {
		if t.Rows() <= 60 {
			labels[i] = d.Format("Jan 02")
		} else {
			labels[i] = d.Format("Jan '06")
		}
	}
	return labels
}
