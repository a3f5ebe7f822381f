package mocks

import (
	"context"
	"time"

	"market-sync/core/feed"

	"github.com/stretchr/testify/mock"
)

// Provider is a mock implementation of feed.Provider.
type Provider struct {
	mock.Mock
}

func (m *Provider) ListSymbols(ctx context.Context, venue string) ([]feed.SymbolRecord, error) {
	args := m.Called(ctx, venue)
	if recs, ok := args.Get(0).([]feed.SymbolRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Provider) GetQuote(ctx context.Context, symbol string) (*feed.QuoteRecord, error) {
	args := m.Called(ctx, symbol)
	if q, ok := args.Get(0).(*feed.QuoteRecord); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Provider) GetMarketStatus(ctx context.Context, venue string) (*feed.MarketStatus, error) {
	args := m.Called(ctx, venue)
	if s, ok := args.Get(0).(*feed.MarketStatus); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Provider) GetDailyBars(ctx context.Context, symbol string, start time.Time) ([]feed.BarRecord, error) {
	args := m.Called(ctx, symbol, start)
	if bars, ok := args.Get(0).([]feed.BarRecord); ok {
		return bars, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Provider) Close() error {
	args := m.Called()
	return args.Error(0)
}
