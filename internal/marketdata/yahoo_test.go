package marketdata

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/logging"
)

// Three sessions starting 2024-01-02 09:30 New York time.
const chartJSON = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","currency":"USD","gmtoffset":-18000,"exchangeTimezoneName":"America/New_York"},
  "timestamp":[1704205800,1704292200,1704378600],
  "indicators":{
    "quote":[{"open":[10,11,null],"high":[10.5,11.5,12.5],"low":[9.5,10.5,11.5],"close":[10,11,12],"volume":[100,200,300]}],
    "adjclose":[{"adjclose":[9,10,null]}]
  }}],"error":null}}`

const sparkJSON = `{"spark":{"result":[{"symbol":"AAPL","response":[{
  "meta":{"gmtoffset":-18000,"exchangeTimezoneName":"America/New_York"},
  "timestamp":[1704205800,1704292200],
  "indicators":{"quote":[{"close":[50,0]}]}}]}],"error":null}}`

func testClient(hosts ...string) *Client {
	return NewClient(config.YahooConfig{Timeout: "2s"}, logging.NewSilentLogger(),
		WithHosts(hosts...), WithBackoffs(time.Millisecond))
}

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan9 = time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
)

func TestDailyBars_ParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	bars, err := testClient(srv.URL).DailyBars(context.Background(), "aapl", jan1, jan9)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 9.0, bars[0].Price())
	assert.Equal(t, 10.0, bars[0].Close)
	assert.Equal(t, 12.0, bars[2].Price(), "falls back to close when adjclose is null")
	assert.True(t, math.IsNaN(bars[2].Open))
	assert.False(t, bars[2].Complete())
	assert.True(t, bars[1].Complete())
}

func TestDailyBars_RotatesHosts(t *testing.T) {
	var badHits int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&badHits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Edge: Too Many Requests"))
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	}))
	defer good.Close()

	bars, err := testClient(bad.URL, good.URL).DailyBars(context.Background(), "AAPL", jan1, jan9)
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&badHits))
}

func TestDailyBars_SparkFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/") {
			w.Write([]byte("<html>consent</html>"))
			return
		}
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
		w.Write([]byte(sparkJSON))
	}))
	defer srv.Close()

	bars, err := testClient(srv.URL).DailyBars(context.Background(), "AAPL", jan1, jan9)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 50.0, bars[0].Price())
	assert.True(t, math.IsNaN(bars[1].Price()), "zero close is masked")
}

func TestDailyBars_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyBars(context.Background(), "AAPL", jan1, jan9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestDailyBars_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/") {
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}
		w.Write([]byte(`{"spark":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyBars(context.Background(), "NOPE", jan1, jan9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDailyBars_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL).DailyBars(ctx, "AAPL", jan1, jan9)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSparkRange(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1y", sparkRange(now.AddDate(0, -6, 0), now))
	assert.Equal(t, "5y", sparkRange(now.AddDate(-4, 0, 0), now))
	assert.Equal(t, "max", sparkRange(now.AddDate(-20, 0, 0), now))
}

func TestDedupeDays(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := dedupeDays([]finance.Bar{{Date: d, Close: 1}, {Date: d, Close: 2}, {Date: d.AddDate(0, 0, 1), Close: 3}})
	require.Len(t, bars, 2)
	assert.Equal(t, 2.0, bars[0].Close)
}
