package marketdata

import (
	"math"

	"portfolioDashboard/internal/finance"
)

// maskNonPositive replaces non-positive prices with NaN. Yahoo occasionally
// reports 0 or negative closes for halted days.
func maskNonPositive(bars []finance.Bar) []finance.Bar {
	for i := range bars {
		for _, p := range []*float64{&bars[i].Open, &bars[i].High, &bars[i].Low, &bars[i].Close, &bars[i].AdjClose} {
			if *p <= 0 {
				*p = math.NaN()
			}
		}
	}
	return bars
}

// completeBars keeps only bars with every OHLCV field present.
func completeBars(bars []finance.Bar) []finance.Bar {
	out := make([]finance.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Complete() {
			out = append(out, b)
		}
	}
	return out
}

// dedupeDays keeps the last bar for each calendar day. Yahoo appends a live
// bar for the current session that can share a day with the final daily bar.
func dedupeDays(bars []finance.Bar) []finance.Bar {
	out := make([]finance.Bar, 0, len(bars))
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
