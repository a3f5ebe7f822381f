package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"market-sync/core/feed"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client is the raw Yahoo Finance chart provider. It only serves historical
// daily bars; the remaining Provider operations report ErrUnsupported.
type Client struct {
	http *resty.Client
}

// New creates a Yahoo provider from the feed configuration.
func New(cfg feed.Config) *Client {
	return NewWithBaseURL(cfg, defaultBaseURL)
}

// NewWithBaseURL creates a provider against a specific endpoint, used by tests.
func NewWithBaseURL(cfg feed.Config, baseURL string) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(timeout) * time.Second).
		SetHeader("User-Agent", "market-sync/1.0")
	return &Client{http: httpClient}
}

type chartPayload struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ListSymbols is not offered by the chart endpoint.
func (c *Client) ListSymbols(ctx context.Context, venue string) ([]feed.SymbolRecord, error) {
	return nil, feed.ErrUnsupported
}

// GetQuote is not offered by the chart endpoint.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*feed.QuoteRecord, error) {
	return nil, feed.ErrUnsupported
}

// GetMarketStatus is not offered by the chart endpoint.
func (c *Client) GetMarketStatus(ctx context.Context, venue string) (*feed.MarketStatus, error) {
	return nil, feed.ErrUnsupported
}

// GetDailyBars returns daily bars for the symbol from start up to now.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start time.Time) ([]feed.BarRecord, error) {
	var payload chartPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			"period2":  strconv.FormatInt(time.Now().Unix(), 10),
			"interval": "1d",
			"events":   "div,split",
		}).
		SetResult(&payload).
		Get("/v8/finance/chart/" + symbol)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode() == http.StatusForbidden, resp.StatusCode() == http.StatusUnauthorized:
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, feed.ErrPermission)
	case resp.StatusCode() == http.StatusNotFound:
		// Unknown symbol: nothing to backfill.
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("yahoo chart %s: unexpected status %d", symbol, resp.StatusCode())
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n ||
		len(quote.Close) != n || len(quote.Volume) != n {
		return nil, fmt.Errorf("yahoo chart %s: ragged payload", symbol)
	}

	var adj []float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]feed.BarRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := feed.BarRecord{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: quote.Volume[i],
		}
		if i < len(adj) {
			bar.AdjClose = adj[i]
		} else {
			bar.AdjClose = bar.Close
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// Close releases the underlying transport's idle connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}
