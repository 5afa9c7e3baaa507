package finance

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_Validation(t *testing.T) {
	d := days(2)

	_, err := NewTable(d, []string{"A"}, [][]float64{{1}})
	assert.Error(t, err, "row count")

	_, err = NewTable(d, []string{"A", "A"}, [][]float64{{1, 2}, {3, 4}})
	assert.Error(t, err, "duplicate column")

	_, err = NewTable(d, []string{"A"}, [][]float64{{1, 2}, {3}})
	assert.Error(t, err, "ragged row")

	_, err = NewTable([]time.Time{d[1], d[0]}, []string{"A"}, [][]float64{{1}, {2}})
	assert.Error(t, err, "descending dates")
}

func TestTable_DropEmpty(t *testing.T) {
	tbl := mustTable(t, []string{"A", "B", "C"},
		[]float64{nan, nan, nan},
		[]float64{1, nan, 2},
		[]float64{3, nan, nan},
	)
	out, err := tbl.DropEmpty(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C"}, out.Columns)
	require.Equal(t, 2, out.Rows())
	assert.Equal(t, tbl.Dates[1], out.Dates[0])
	assert.Equal(t, 3.0, out.Values[1][0])
	assert.True(t, math.IsNaN(out.Values[1][1]))
}

func TestTable_SelectAndColumn(t *testing.T) {
	tbl := mustTable(t, []string{"A", "B"}, []float64{1, 2}, []float64{3, 4})

	sel := tbl.Select([]string{"B", "missing", "A"})
	assert.Equal(t, []string{"B", "A"}, sel.Columns)
	assert.Equal(t, []float64{4, 3}, sel.Values[1])

	col, ok := tbl.Column("B")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4}, col.Values)

	_, ok = tbl.Column("Z")
	assert.False(t, ok)
}

func TestTable_Empty(t *testing.T) {
	var nilTable *Table
	assert.True(t, nilTable.Empty())
	assert.Equal(t, 0, nilTable.Rows())
	assert.True(t, EmptyTable([]string{"A"}).Empty())
	assert.False(t, mustTable(t, []string{"A"}, []float64{1}).Empty())
}

func TestAlignSeries_OuterJoin(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	a := Series{
		Dates:  []time.Time{time.Date(2024, 1, 2, 15, 30, 0, 0, seoul), time.Date(2024, 1, 3, 15, 30, 0, 0, seoul)},
		Values: []float64{100, 101},
	}
	b := Series{
		Dates:  []time.Time{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		Values: []float64{50, 51},
	}

	tbl, err := AlignSeries([]string{"Samsung", "Apple"}, []Series{a, b})
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Rows())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), tbl.Dates[0])
	assert.Equal(t, 100.0, tbl.Values[0][0])
	assert.True(t, math.IsNaN(tbl.Values[0][1]))
	assert.Equal(t, []float64{101, 50}, tbl.Values[1])
	assert.True(t, math.IsNaN(tbl.Values[2][0]))

	_, err = AlignSeries([]string{"x"}, nil)
	assert.Error(t, err)
	_, err = AlignSeries([]string{"x", "x"}, []Series{a, b})
	assert.Error(t, err)
}
