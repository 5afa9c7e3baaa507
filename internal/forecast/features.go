package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Feature window lengths.
const (
	shortMA   = 5
	longMA    = 20
	rsiPeriod = 14
	volWindow = 20
)

// FeatureNames is the column order of a feature row.
var FeatureNames = []string{"ma5", "ma20", "rsi", "volatility"}

// FeatureRow holds the indicators of one day. Index points into the close
// series the row was built from.
type FeatureRow struct {
	Index  int
	Close  float64
	Values []float64
}

// BuildFeatures computes MA5, MA20, RSI14 and the 20-day sample standard
// deviation for each day where all four are defined. RSI uses simple rolling
// means of gains and losses; a window with no movement at all is undefined
// and the day is skipped.
func BuildFeatures(closes []float64) []FeatureRow {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	var rows []FeatureRow
	for i := range closes {
		if i+1 < longMA || i+1 < volWindow || i+1 < rsiPeriod {
			continue
		}
		ma5 := stat.Mean(closes[i+1-shortMA:i+1], nil)
		ma20 := stat.Mean(closes[i+1-longMA:i+1], nil)
		vol := stat.StdDev(closes[i+1-volWindow:i+1], nil)
		rsi := relativeStrength(
			stat.Mean(gains[i+1-rsiPeriod:i+1], nil),
			stat.Mean(losses[i+1-rsiPeriod:i+1], nil),
		)

		vals := []float64{ma5, ma20, rsi, vol}
		if anyNaN(vals) {
			continue
		}
		rows = append(rows, FeatureRow{Index: i, Close: closes[i], Values: vals})
	}
	return rows
}

func relativeStrength(gain, loss float64) float64 {
	switch {
	case gain == 0 && loss == 0:
		return math.NaN()
	case loss == 0:
		return 100
	default:
		return 100 - 100/(1+gain/loss)
	}
}

// Targets returns, for each feature row, the percentage change of the close
// horizon trading days later. Rows whose horizon runs past the data get NaN.
func Targets(closes []float64, rows []FeatureRow, horizon int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		j := r.Index + horizon
		if j >= len(closes) || r.Close == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = closes[j]/r.Close - 1
	}
	return out
}

func anyNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
