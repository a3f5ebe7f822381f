package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"market-sync/core/feed"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// Client is the raw Finnhub REST provider. Resilience (rate limiting, retry,
// recycling) lives in feed.Client, not here.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New creates a Finnhub provider from the feed configuration.
func New(cfg feed.Config) *Client {
	return NewWithBaseURL(cfg, defaultBaseURL)
}

// NewWithBaseURL creates a provider against a specific endpoint. Tests point
// this at a local server.
func NewWithBaseURL(cfg feed.Config, baseURL string) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(timeout) * time.Second).
		SetHeader("X-Finnhub-Token", cfg.APIKey)
	return &Client{http: httpClient, apiKey: cfg.APIKey}
}

type symbolPayload struct {
	Currency       string `json:"currency"`
	Description    string `json:"description"`
	DisplaySymbol  string `json:"displaySymbol"`
	Figi           string `json:"figi"`
	Mic            string `json:"mic"`
	ShareClassFigi string `json:"shareClassFIGI"`
	Symbol         string `json:"symbol"`
	Symbol2        string `json:"symbol2"`
	Type           string `json:"type"`
}

type quotePayload struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Time          int64   `json:"t"`
}

type statusPayload struct {
	Exchange string `json:"exchange"`
	Holiday  string `json:"holiday"`
	IsOpen   bool   `json:"isOpen"`
	Session  string `json:"session"`
	Timezone string `json:"timezone"`
	Time     int64  `json:"t"`
}

type candlePayload struct {
	Close  []float64 `json:"c"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Open   []float64 `json:"o"`
	Status string    `json:"s"`
	Time   []int64   `json:"t"`
	Volume []float64 `json:"v"`
}

// ListSymbols returns all instruments Finnhub reports for the venue.
func (c *Client) ListSymbols(ctx context.Context, venue string) ([]feed.SymbolRecord, error) {
	var payload []symbolPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("exchange", venue).
		SetResult(&payload).
		Get("/stock/symbol")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	records := make([]feed.SymbolRecord, 0, len(payload))
	for _, p := range payload {
		records = append(records, feed.SymbolRecord{
			Currency:       p.Currency,
			Description:    p.Description,
			DisplaySymbol:  p.DisplaySymbol,
			Figi:           p.Figi,
			Mic:            p.Mic,
			ShareClassFigi: p.ShareClassFigi,
			Symbol:         p.Symbol,
			Symbol2:        p.Symbol2,
			Type:           p.Type,
		})
	}
	return records, nil
}

// GetQuote returns the current snapshot quote, or nil when Finnhub reports a
// zero timestamp (no data yet).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*feed.QuoteRecord, error) {
	var payload quotePayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&payload).
		Get("/quote")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	if payload.Time == 0 {
		return nil, nil
	}
	return &feed.QuoteRecord{
		Price:         payload.Current,
		Change:        payload.Change,
		PercentChange: payload.PercentChange,
		High:          payload.High,
		Low:           payload.Low,
		Open:          payload.Open,
		PreviousClose: payload.PreviousClose,
		At:            time.Unix(payload.Time, 0),
	}, nil
}

// GetMarketStatus returns the venue's session state.
func (c *Client) GetMarketStatus(ctx context.Context, venue string) (*feed.MarketStatus, error) {
	var payload statusPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("exchange", venue).
		SetResult(&payload).
		Get("/stock/market-status")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return &feed.MarketStatus{
		Venue:    payload.Exchange,
		Holiday:  payload.Holiday,
		IsOpen:   payload.IsOpen,
		Session:  payload.Session,
		Timezone: payload.Timezone,
		At:       time.Unix(payload.Time, 0),
	}, nil
}

// GetDailyBars returns daily candles from start up to now.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start time.Time) ([]feed.BarRecord, error) {
	var payload candlePayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     symbol,
			"resolution": "D",
			"from":       strconv.FormatInt(start.Unix(), 10),
			"to":         strconv.FormatInt(time.Now().Unix(), 10),
		}).
		SetResult(&payload).
		Get("/stock/candle")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	if payload.Status == "no_data" {
		return nil, nil
	}
	n := len(payload.Time)
	if len(payload.Open) != n || len(payload.High) != n || len(payload.Low) != n ||
		len(payload.Close) != n || len(payload.Volume) != n {
		return nil, fmt.Errorf("finnhub candles %s: ragged payload", symbol)
	}
	bars := make([]feed.BarRecord, 0, n)
	for i := range payload.Time {
		bars = append(bars, feed.BarRecord{
			Date:     time.Unix(payload.Time[i], 0),
			Open:     payload.Open[i],
			High:     payload.High[i],
			Low:      payload.Low[i],
			Close:    payload.Close[i],
			AdjClose: payload.Close[i],
			Volume:   int64(payload.Volume[i]),
		})
	}
	return bars, nil
}

// Close releases the underlying transport's idle connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

func checkStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("finnhub %s: %w", resp.Request.URL, feed.ErrPermission)
	case resp.IsError():
		return fmt.Errorf("finnhub %s: unexpected status %d", resp.Request.URL, resp.StatusCode())
	}
	return nil
}
