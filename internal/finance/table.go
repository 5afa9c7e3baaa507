package finance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptyTable    = errors.New("table is empty")
	ErrShapeMismatch = errors.New("weights do not match table columns")
)

// Table is a date-indexed matrix of values with named columns.
// Rows are ascending trading dates, Values[row][col], NaN marks a missing value.
type Table struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

// NewTable validates the shape, date order and column uniqueness.
func NewTable(dates []time.Time, columns []string, values [][]float64) (*Table, error) {
	if len(values) != len(dates) {
		return nil, fmt.Errorf("table has %d dates but %d rows", len(dates), len(values))
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	for i, row := range values {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
		if i > 0 && !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates must be strictly ascending: %s after %s",
				dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}
	return &Table{Dates: dates, Columns: columns, Values: values}, nil
}

// EmptyTable returns a table with the given columns and no rows.
func EmptyTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t == nil || len(t.Dates) == 0 || len(t.Columns) == 0
}

func (t *Table) Rows() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

func (t *Table) Cols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column as a dated series.
func (t *Table) Column(name string) (Series, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return Series{}, false
	}
	s := Series{
		Dates:  append([]time.Time(nil), t.Dates...),
		Values: make([]float64, len(t.Dates)),
	}
	for i, row := range t.Values {
		s.Values[i] = row[idx]
	}
	return s, true
}

// Select keeps the named columns in the given order. Unknown names are skipped.
func (t *Table) Select(names []string) *Table {
	var idx []int
	var cols []string
	for _, n := range names {
		if i := t.ColumnIndex(n); i >= 0 {
			idx = append(idx, i)
			cols = append(cols, n)
		}
	}
	out := &Table{
		Dates:   append([]time.Time(nil), t.Dates...),
		Columns: cols,
		Values:  make([][]float64, len(t.Values)),
	}
	for r, row := range t.Values {
		nr := make([]float64, len(idx))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Values[r] = nr
	}
	return out
}

// DropEmpty removes rows where every value is NaN, then columns where every
// remaining value is NaN.
func (t *Table) DropEmpty(ctx context.Context) (*Table, error) {
	if t == nil {
		return EmptyTable(nil), nil
	}
	df, err := dropEmptyRows(ctx, t.frame())
	if err != nil {
		return nil, fmt.Errorf("drop empty rows: %w", err)
	}
	return tableFromFrame(dropEmptyColumns(df)), nil
}

// Series is a single dated column.
type Series struct {
	Dates  []time.Time
	Values []float64
}

func (s Series) Len() int { return len(s.Values) }

// Last returns the final value, or NaN for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// Table turns the series into a one-column table.
func (s Series) Table(name string) *Table {
	t := &Table{
		Dates:   append([]time.Time(nil), s.Dates...),
		Columns: []string{name},
		Values:  make([][]float64, len(s.Values)),
	}
	for i, v := range s.Values {
		t.Values[i] = []float64{v}
	}
	return t
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
