package feed

import (
	"context"
	"errors"
	"time"
)

// ErrPermission indicates an entitlement failure (HTTP 403 class). Such
// calls are skipped, never retried: retrying cannot succeed.
var ErrPermission = errors.New("feed permission denied")

// ErrMarketOpen signals that the venue is currently open, so end-of-day data
// is not final. It is a cooperative stop condition, not a failure.
var ErrMarketOpen = errors.New("market currently open")

// ErrUnsupported is returned by providers for operations they do not offer.
var ErrUnsupported = errors.New("operation not supported by provider")

// SymbolRecord is one tradable instrument as reported by a reference feed.
type SymbolRecord struct {
	Currency       string
	Description    string
	DisplaySymbol  string
	Figi           string
	Mic            string
	ShareClassFigi string
	Symbol         string
	Symbol2        string
	Type           string
}

// QuoteRecord is one intraday snapshot quote. At is the provider's quote
// timestamp; a zero At means the provider has no data yet.
type QuoteRecord struct {
	Price         float64
	Change        float64
	PercentChange float64
	High          float64
	Low           float64
	Open          float64
	PreviousClose float64
	At            time.Time
}

// BarRecord is one daily OHLC bar.
type BarRecord struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// MarketStatus is the ephemeral open/closed state of a venue. It is never
// persisted; FetchedAt anchors the half-hour staleness window.
type MarketStatus struct {
	Venue     string
	Holiday   string
	IsOpen    bool
	Session   string
	Timezone  string
	At        time.Time
	FetchedAt time.Time
}

// Provider is the raw capability surface of one external market-data source.
// Implementations are not resilient; the Client wrapper owns rate limiting,
// retry and recycling.
type Provider interface {
	// ListSymbols returns all instruments the source reports for a venue.
	ListSymbols(ctx context.Context, venue string) ([]SymbolRecord, error)
	// GetQuote returns the current snapshot quote for a symbol, or nil when
	// the source has no data yet.
	GetQuote(ctx context.Context, symbol string) (*QuoteRecord, error)
	// GetMarketStatus returns the venue's current session state.
	GetMarketStatus(ctx context.Context, venue string) (*MarketStatus, error)
	// GetDailyBars returns daily bars for a symbol from start onward.
	GetDailyBars(ctx context.Context, symbol string, start time.Time) ([]BarRecord, error)
	// Close releases the provider's resources.
	Close() error
}
