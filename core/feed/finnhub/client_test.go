package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"market-sync/core/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithBaseURL(feed.Config{APIKey: "test-key", TimeoutSeconds: 5}, srv.URL)
}

func TestListSymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/symbol", r.URL.Path)
		assert.Equal(t, "US", r.URL.Query().Get("exchange"))
		assert.Equal(t, "test-key", r.Header.Get("X-Finnhub-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"currency":"USD","description":"APPLE INC","displaySymbol":"AAPL",
			 "figi":"BBG000B9XRY4","mic":"XNAS","symbol":"AAPL","type":"Common Stock"}
		]`))
	})

	recs, err := c.ListSymbols(context.Background(), "US")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "AAPL", recs[0].Symbol)
	assert.Equal(t, "XNAS", recs[0].Mic)
	assert.Equal(t, "APPLE INC", recs[0].Description)
}

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":191.45,"d":-0.55,"dp":-0.286,"h":192.93,"l":190.82,"o":192.0,"pc":192.0,"t":1710532800}`))
	})

	q, err := c.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 191.45, q.Price)
	assert.Equal(t, int64(1710532800), q.At.Unix())
}

func TestGetQuote_NoDataYet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	q, err := c.GetQuote(context.Background(), "NEWIPO")
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestGetMarketStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"exchange":"US","holiday":"","isOpen":true,"session":"regular","timezone":"America/New_York","t":1710532800}`))
	})

	s, err := c.GetMarketStatus(context.Background(), "US")
	require.NoError(t, err)
	assert.True(t, s.IsOpen)
	assert.Equal(t, "regular", s.Session)
}

func TestPermissionDenied(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, feed.ErrPermission)
}

func TestGetDailyBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"s":"ok","t":[1710460800,1710547200],
			"o":[190.0,191.0],"h":[192.0,193.0],"l":[189.0,190.5],
			"c":[191.5,192.5],"v":[1000000,1200000]}`))
	})

	bars, err := c.GetDailyBars(context.Background(), "AAPL", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 191.5, bars[0].Close)
	assert.Equal(t, int64(1710547200), bars[1].Date.Unix())
}

func TestGetDailyBars_RaggedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"s":"ok","t":[1710460800,1710547200],
			"o":[190.0],"h":[192.0,193.0],"l":[189.0,190.5],
			"c":[191.5,192.5],"v":[1000000,1200000]}`))
	})

	_, err := c.GetDailyBars(context.Background(), "AAPL", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged payload")
}

func TestGetDailyBars_NoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"s":"no_data"}`))
	})

	bars, err := c.GetDailyBars(context.Background(), "AAPL", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, bars)
}
