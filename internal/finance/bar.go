package finance

import (
	"math"
	"time"
)

// Bar is one daily OHLCV observation. Missing fields are NaN.
type Bar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Complete reports whether the OHLCV fields are present. AdjClose is optional.
func (b Bar) Complete() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Price is the adjusted close when Yahoo reports one, else the close.
func (b Bar) Price() float64 {
	if !math.IsNaN(b.AdjClose) {
		return b.AdjClose
	}
	return b.Close
}
