package finance

import (
	"context"
	"math"
	"time"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// dateSeries names the leading time series of every frame. It cannot collide
// with an asset name.
const dateSeries = "\x00date"

// newFrame builds a dataframe with the date series first and one float64
// series per column. NaN cells become nil values.
func newFrame(dates []time.Time, columns []string, values [][]float64) *dataframe.DataFrame {
	ds := make([]interface{}, len(dates))
	for i, d := range dates {
		ds[i] = d
	}
	series := []dataframe.Series{dataframe.NewSeriesTime(dateSeries, nil, ds...)}
	for c, name := range columns {
		vals := make([]interface{}, len(dates))
		for r := range dates {
			if v := values[r][c]; !math.IsNaN(v) {
				vals[r] = v
			}
		}
		series = append(series, dataframe.NewSeriesFloat64(name, nil, vals...))
	}
	return dataframe.NewDataFrame(series...)
}

func (t *Table) frame() *dataframe.DataFrame {
	if t == nil {
		return newFrame(nil, nil, nil)
	}
	return newFrame(t.Dates, t.Columns, t.Values)
}

// floatSeries returns the value series of a frame, skipping the date series.
func floatSeries(df *dataframe.DataFrame) []*dataframe.SeriesFloat64 {
	out := make([]*dataframe.SeriesFloat64, 0, len(df.Series))
	for _, s := range df.Series[1:] {
		out = append(out, s.(*dataframe.SeriesFloat64))
	}
	return out
}

// tableFromFrame reads a frame built by newFrame back into a table.
func tableFromFrame(df *dataframe.DataFrame) *Table {
	floats := floatSeries(df)
	out := &Table{Columns: make([]string, len(floats))}
	for c, s := range floats {
		out.Columns[c] = s.Name()
	}

	iterator := df.ValuesIterator(dataframe.ValuesOptions{InitialRow: 0, Step: 1, DontReadLock: false})
	for {
		row, vals, _ := iterator(dataframe.SeriesName)
		if row == nil {
			break
		}
		values := make([]float64, len(out.Columns))
		for c, name := range out.Columns {
			if v, ok := vals[name].(float64); ok {
				values[c] = v
			} else {
				values[c] = math.NaN()
			}
		}
		out.Dates = append(out.Dates, vals[dateSeries].(time.Time))
		out.Values = append(out.Values, values)
	}
	return out
}

// dropEmptyRows removes rows whose value series are all NaN.
func dropEmptyRows(ctx context.Context, df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	floats := floatSeries(df)
	keep := dataframe.FilterDataFrameFn(func(_ map[interface{}]interface{}, row, _ int) (dataframe.FilterAction, error) {
		for _, s := range floats {
			if !math.IsNaN(s.Values[row]) {
				return dataframe.KEEP, nil
			}
		}
		return dataframe.DROP, nil
	})
	res, err := dataframe.Filter(ctx, df, keep)
	if err != nil {
		return nil, err
	}
	return res.(*dataframe.DataFrame), nil
}

// mustDropEmptyRows is dropEmptyRows on frames the package built itself.
// Filter only fails on cancellation or a failing predicate.
func mustDropEmptyRows(df *dataframe.DataFrame) *dataframe.DataFrame {
	out, err := dropEmptyRows(context.Background(), df)
	if err != nil {
		panic(err)
	}
	return out
}

// dropEmptyColumns removes value series that hold no defined value.
func dropEmptyColumns(df *dataframe.DataFrame) *dataframe.DataFrame {
	keep := []dataframe.Series{df.Series[0]}
	for _, s := range floatSeries(df) {
		for _, v := range s.Values {
			if !math.IsNaN(v) {
				keep = append(keep, s)
				break
			}
		}
	}
	if len(keep) == len(df.Series) {
		return df
	}
	return dataframe.NewDataFrame(keep...)
}

// pctChange is the simple return of a price series against the last known
// price. A leading gap stays NaN; later gaps are padded forward.
func pctChange(s *dataframe.SeriesFloat64) *dataframe.SeriesFloat64 {
	vals := make([]interface{}, len(s.Values))
	last := math.NaN()
	for i, p := range s.Values {
		cur := p
		if math.IsNaN(cur) {
			cur = last
		}
		if !math.IsNaN(last) && !math.IsNaN(cur) && last != 0 {
			vals[i] = cur/last - 1
		}
		last = cur
	}
	return dataframe.NewSeriesFloat64(s.Name(), nil, vals...)
}

// cumProd is the running product of (1 + r). NaN cells stay NaN and the
// product carries on from the last defined value.
func cumProd(s *dataframe.SeriesFloat64) *dataframe.SeriesFloat64 {
	vals := make([]interface{}, len(s.Values))
	acc := 1.0
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		acc *= 1 + v
		vals[i] = acc
	}
	return dataframe.NewSeriesFloat64(s.Name(), nil, vals...)
}
