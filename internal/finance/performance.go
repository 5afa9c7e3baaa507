package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization constant.
const TradingDaysPerYear = 252

// Performance holds annualized portfolio statistics.
type Performance struct {
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	Days             int // return observations used
}

type perfOptions struct {
	riskFree float64
}

// Option configures PortfolioPerformance.
type Option func(*perfOptions)

// WithRiskFreeRate sets the annual risk-free rate subtracted from the
// annualized return before dividing by volatility. Default 0.
func WithRiskFreeRate(rate float64) Option {
	return func(o *perfOptions) { o.riskFree = rate }
}

// PortfolioReturns forms the per-day portfolio return R·w, with weights in
// column order. Zero-weight columns never contribute, even when NaN. A day on
// which any positively weighted asset has no return is skipped.
func PortfolioReturns(weights []float64, daily *Table) (Series, error) {
	if daily.Empty() {
		return Series{}, ErrEmptyTable
	}
	if len(weights) != daily.Cols() {
		return Series{}, fmt.Errorf("%w: %d weights for %d columns", ErrShapeMismatch, len(weights), daily.Cols())
	}

	cols := daily.Cols()
	data := make([]float64, 0, daily.Rows()*cols)
	var kept Series
	for r, row := range daily.Values {
		complete := true
		for c, v := range row {
			if weights[c] != 0 && math.IsNaN(v) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for c, v := range row {
			if weights[c] == 0 {
				v = 0
			}
			data = append(data, v)
		}
		kept.Dates = append(kept.Dates, daily.Dates[r])
	}
	if len(kept.Dates) == 0 {
		return Series{}, ErrEmptyTable
	}

	R := mat.NewDense(len(kept.Dates), cols, data)
	w := mat.NewVecDense(cols, append([]float64(nil), weights...))
	var out mat.VecDense
	out.MulVec(R, w)

	kept.Values = make([]float64, out.Len())
	for i := range kept.Values {
		kept.Values[i] = out.AtVec(i)
	}
	return kept, nil
}

// PortfolioPerformance annualizes the mean and population standard deviation
// of the weighted daily returns. The ratio is 0 when volatility is 0.
func PortfolioPerformance(weights []float64, daily *Table, opts ...Option) (Performance, error) {
	returns, err := PortfolioReturns(weights, daily)
	if err != nil {
		return Performance{}, err
	}
	return Summarize(returns.Values, opts...)
}

// Summarize computes the annualized statistics of a plain return series.
// Compounding can overflow; the result then carries +Inf rather than an error.
func Summarize(returns []float64, opts ...Option) (Performance, error) {
	o := perfOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if len(returns) == 0 {
		return Performance{}, ErrEmptyTable
	}

	mean, std := stat.PopMeanStdDev(returns, nil)
	annual := math.Pow(1+mean, TradingDaysPerYear) - 1
	vol := std * math.Sqrt(TradingDaysPerYear)

	p := Performance{
		AnnualReturn:     annual,
		AnnualVolatility: vol,
		Days:             len(returns),
	}
	if vol != 0 {
		p.SharpeRatio = (annual - o.riskFree) / vol
	}
	return p, nil
}

// PortfolioCumulative is the compounded growth of 1 unit invested at the
// given weights.
func PortfolioCumulative(weights []float64, daily *Table) (Series, error) {
	returns, err := PortfolioReturns(weights, daily)
	if err != nil {
		return Series{}, err
	}
	return CumulativeSeries(returns), nil
}

// MaxDrawdown is the largest peak-to-trough decline of a value series, as a
// fraction of the peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}

	maxDrawdown := 0.0
	peak := math.NaN()
	for _, value := range values {
		if math.IsNaN(value) || value <= 0 {
			continue
		}
		if math.IsNaN(peak) || value > peak {
			peak = value
		}
		if drawdown := (peak - value) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
