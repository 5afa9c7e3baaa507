package finance

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Window is a lookback period such as 30d, 6w, 3m or 2y.
type Window struct {
	N    int
	Unit byte // d, w, m, y
}

// ParseWindow parses a lookback like "30d", "6w", "3m" or "2y".
// An empty string means one year.
func ParseWindow(window string) (Window, error) {
	window = strings.ToLower(strings.TrimSpace(window))
	if window == "" {
		return Window{N: 1, Unit: 'y'}, nil
	}

	unit := window[len(window)-1]
	switch unit {
	case 'd', 'w', 'm', 'y':
	default:
		return Window{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y)", window)
	}
	n, err := strconv.Atoi(window[:len(window)-1])
	if err != nil || n <= 0 {
		return Window{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y)", window)
	}
	if unit == 'y' && n > 30 {
		return Window{}, fmt.Errorf("window %s is longer than 30 years", window)
	}
	return Window{N: n, Unit: unit}, nil
}

// Start returns the first calendar day covered when the window ends at end.
func (w Window) Start(end time.Time) time.Time {
	switch w.Unit {
	case 'd':
		return end.AddDate(0, 0, -w.N)
	case 'w':
		return end.AddDate(0, 0, -7*w.N)
	case 'm':
		return end.AddDate(0, -w.N, 0)
	default:
		return end.AddDate(-w.N, 0, 0)
	}
}

func (w Window) String() string {
	return fmt.Sprintf("%d%c", w.N, w.Unit)
}

// AlignSeries outer-joins dated series on calendar day into one table. Days a
// series has no observation for are NaN; forward filling is left to
// DailyReturns.
func AlignSeries(names []string, series []Series) (*Table, error) {
	if len(names) != len(series) {
		return nil, fmt.Errorf("%d names for %d series", len(names), len(series))
	}
	if len(series) == 0 {
		return EmptyTable(nil), nil
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("duplicate column %q", n)
		}
		seen[n] = true
	}

	days := map[string]time.Time{}
	for _, s := range series {
		for _, d := range s.Dates {
			day := TruncateDay(d)
			days[dayKey(day)] = day
		}
	}
	dates := make([]time.Time, 0, len(days))
	for _, d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[string]int, len(dates))
	for i, d := range dates {
		index[dayKey(d)] = i
	}
	cols := make([][]interface{}, len(series))
	for c, s := range series {
		cols[c] = make([]interface{}, len(dates))
		for i, d := range s.Dates {
			if i < len(s.Values) && !math.IsNaN(s.Values[i]) {
				cols[c][index[dayKey(d)]] = s.Values[i]
			}
		}
	}

	ds := make([]interface{}, len(dates))
	for i, d := range dates {
		ds[i] = d
	}
	frame := []dataframe.Series{dataframe.NewSeriesTime(dateSeries, nil, ds...)}
	for c, name := range names {
		frame = append(frame, dataframe.NewSeriesFloat64(name, nil, cols[c]...))
	}
	return tableFromFrame(dataframe.NewDataFrame(frame...)), nil
}

// TruncateDay drops the clock part, keeping the calendar day in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
