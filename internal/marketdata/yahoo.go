package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/logging"
)

var ErrNoData = errors.New("no data")

var defaultHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

// Client downloads daily bars from the Yahoo chart API, rotating hosts and
// retrying with backoff, then falling back to the spark endpoint.
type Client struct {
	http     *http.Client
	hosts    []string
	backoffs []time.Duration
	limiter  *rate.Limiter
	logger   *logging.Logger
}

type ClientOption func(*Client)

// WithHosts replaces the Yahoo base URLs.
func WithHosts(hosts ...string) ClientOption {
	return func(c *Client) { c.hosts = hosts }
}

// WithBackoffs replaces the retry schedule.
func WithBackoffs(backoffs ...time.Duration) ClientOption {
	return func(c *Client) { c.backoffs = backoffs }
}

func NewClient(cfg config.YahooConfig, logger *logging.Logger, opts ...ClientOption) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	c := &Client{
		http:     &http.Client{Timeout: cfg.GetTimeout()},
		hosts:    defaultHosts,
		backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.Component("yahoo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DailyBars returns daily bars for symbol in [start, end), ascending by day.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]finance.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")

	var chart chartResponse
	err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol)+"?"+q.Encode(), symbol, &chart)
	if err == nil {
		bars, perr := barsFromChart(&chart)
		if perr == nil {
			return filterRange(bars, start, end), nil
		}
		err = perr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.logger.Warn().Err(err).Str("symbol", symbol).Msg("chart endpoint failed, trying spark")
	q = url.Values{}
	q.Set("symbols", symbol)
	q.Set("range", sparkRange(start, time.Now()))
	q.Set("interval", "1d")
	var spark sparkResponse
	if serr := c.getJSON(ctx, "/v7/finance/spark?"+q.Encode(), symbol, &spark); serr != nil {
		return nil, fmt.Errorf("%s: %w", symbol, errors.Join(err, serr))
	}
	bars, serr := barsFromSpark(&spark)
	if serr != nil {
		return nil, fmt.Errorf("%s: %w", symbol, errors.Join(err, serr))
	}
	return filterRange(bars, start, end), nil
}

// getJSON walks every host once per attempt, sleeping between attempts.
func (c *Client) getJSON(ctx context.Context, path, symbol string, out any) error {
	var lastErr error
	for attempt := 0; attempt < len(c.backoffs)+1; attempt++ {
		for _, host := range c.hosts {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			lastErr = c.fetchOnce(ctx, host+path, symbol, out)
			if lastErr == nil {
				return nil
			}
			c.logger.Debug().Err(lastErr).Str("host", host).Int("attempt", attempt).Msg("yahoo request failed")
		}
		if attempt < len(c.backoffs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoffs[attempt]):
			}
		}
	}
	return lastErr
}

func (c *Client) fetchOnce(ctx context.Context, u, symbol string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", symbol))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read yahoo response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return fmt.Errorf("yahoo returned 429: Edge: Too Many Requests")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	return nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func barsFromChart(resp *chartResponse) ([]finance.Bar, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	r := resp.Chart.Result[0]
	quote := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}
	loc := exchangeLocation(r.Meta.ExchangeTimezoneName, r.Meta.GmtOffset)

	bars := make([]finance.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bars = append(bars, finance.Bar{
			Date:     tradingDay(ts, loc),
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    at(quote.Close, i),
			AdjClose: at(adj, i),
			Volume:   at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return dedupeDays(maskNonPositive(bars)), nil
}

func barsFromSpark(resp *sparkResponse) ([]finance.Bar, error) {
	if e := resp.Spark.Error; e != nil {
		return nil, fmt.Errorf("yahoo spark error %s: %s", e.Code, e.Description)
	}
	if len(resp.Spark.Result) == 0 || len(resp.Spark.Result[0].Response) == 0 {
		return nil, ErrNoData
	}
	r := resp.Spark.Result[0].Response[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	closes := r.Indicators.Quote[0].Close
	loc := exchangeLocation(r.Meta.ExchangeTimezoneName, r.Meta.GmtOffset)

	bars := make([]finance.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(closes, i)
		bars = append(bars, finance.Bar{
			Date:     tradingDay(ts, loc),
			Open:     cl,
			High:     cl,
			Low:      cl,
			Close:    cl,
			AdjClose: cl,
			Volume:   0,
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return dedupeDays(maskNonPositive(bars)), nil
}

// sparkRange picks the smallest spark range covering start.
func sparkRange(start, now time.Time) string {
	years := now.Sub(start).Hours() / 24 / 365
	switch {
	case years <= 1:
		return "1y"
	case years <= 2:
		return "2y"
	case years <= 5:
		return "5y"
	case years <= 10:
		return "10y"
	default:
		return "max"
	}
}

func filterRange(bars []finance.Bar, start, end time.Time) []finance.Bar {
	from := finance.TruncateDay(start)
	out := make([]finance.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(from) || !b.Date.Before(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
