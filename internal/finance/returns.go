package finance

import (
	"math"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// DailyReturns computes the simple percentage change of every column from the
// prior trading day. Missing prices are padded with the last known price
// before differencing, so a gap yields a zero return rather than breaking the
// chain; values before a column's first price stay NaN. Rows that are
// entirely NaN (always the first row) are dropped.
func DailyReturns(prices *Table) *Table {
	if prices.Empty() {
		return EmptyTable(columnsOf(prices))
	}
	df := prices.frame()
	series := []dataframe.Series{df.Series[0]}
	for _, s := range floatSeries(df) {
		series = append(series, pctChange(s))
	}
	return tableFromFrame(mustDropEmptyRows(dataframe.NewDataFrame(series...)))
}

// CumulativeReturns is the running product of (1 + daily return), so the
// first retained row equals 1 + its daily return. A NaN cell stays NaN and
// the product carries on from the last defined value.
func CumulativeReturns(daily *Table) *Table {
	if daily.Empty() {
		return EmptyTable(columnsOf(daily))
	}
	df := daily.frame()
	series := []dataframe.Series{df.Series[0]}
	for _, s := range floatSeries(df) {
		series = append(series, cumProd(s))
	}
	return tableFromFrame(dataframe.NewDataFrame(series...))
}

// CalculateReturns returns the daily and cumulative return tables of a price table.
func CalculateReturns(prices *Table) (daily, cumulative *Table) {
	daily = DailyReturns(prices)
	cumulative = CumulativeReturns(daily)
	return daily, cumulative
}

// CumulativeSeries is the running product of (1 + r) over a return series,
// skipping NaN the same way CumulativeReturns does.
func CumulativeSeries(returns Series) Series {
	out := Series{
		Dates:  append([]time.Time(nil), returns.Dates...),
		Values: make([]float64, len(returns.Values)),
	}
	acc := 1.0
	for i, v := range returns.Values {
		if math.IsNaN(v) {
			out.Values[i] = math.NaN()
			continue
		}
		acc *= 1 + v
		out.Values[i] = acc
	}
	return out
}

func columnsOf(t *Table) []string {
	if t == nil {
		return nil
	}
	return t.Columns
}
