package marketdata

import (
	"time"

	"portfolioDashboard/internal/finance"
)

// exchangeLocation returns the named exchange zone, falling back to the
// reported fixed offset if tzdata is missing.
func exchangeLocation(name string, gmtoffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtoffset)
}

// tradingDay maps a bar timestamp to its calendar day on the exchange.
func tradingDay(ts int64, loc *time.Location) time.Time {
	return finance.TruncateDay(time.Unix(ts, 0).In(loc))
}
