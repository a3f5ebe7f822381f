package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory creates a fresh provider connection. The client calls it lazily on
// first use and again whenever it recycles the provider after a transient
// failure.
type Factory func() (Provider, error)

// Client wraps a Provider with rate limiting, transparent client-recycling
// retry and market-status caching. One Client per provider instance; pacing
// state is never shared across providers.
type Client struct {
	name    string
	factory Factory
	limiter *Limiter
	log     *zap.Logger

	retryPause   time.Duration
	timeoutPause time.Duration

	mu       sync.Mutex
	provider Provider
	status   *MarketStatus

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a resilient client around the given provider factory.
func NewClient(name string, factory Factory, limiter *Limiter, cfg Config, log *zap.Logger) *Client {
	return &Client{
		name:         name,
		factory:      factory,
		limiter:      limiter,
		log:          log,
		retryPause:   time.Duration(cfg.RetryPauseSeconds) * time.Second,
		timeoutPause: time.Duration(cfg.TimeoutPauseSeconds) * time.Second,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

// WithClock overrides the client's time source, which drives the market
// status refresh window. Tests step it to cross half-hour boundaries.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// ListSymbols lists a venue's instruments through the resilience wrapper.
func (c *Client) ListSymbols(ctx context.Context, venue string) ([]SymbolRecord, error) {
	recs, _, err := call(ctx, c, "list_symbols", func(ctx context.Context, p Provider) ([]SymbolRecord, error) {
		return p.ListSymbols(ctx, venue)
	})
	return recs, err
}

// GetQuote fetches a snapshot quote. A permission skip or "no data yet"
// both surface as a nil quote with a nil error.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*QuoteRecord, error) {
	q, ok, err := call(ctx, c, "get_quote", func(ctx context.Context, p Provider) (*QuoteRecord, error) {
		return p.GetQuote(ctx, symbol)
	})
	if err != nil || !ok {
		return nil, err
	}
	return q, nil
}

// GetDailyBars fetches daily bars from start onward.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start time.Time) ([]BarRecord, error) {
	bars, _, err := call(ctx, c, "get_daily_bars", func(ctx context.Context, p Provider) ([]BarRecord, error) {
		return p.GetDailyBars(ctx, symbol, start)
	})
	return bars, err
}

// FreshStatus returns the venue's market status, re-fetching only when the
// wall-clock half-hour bucket has advanced past the cached observation.
func (c *Client) FreshStatus(ctx context.Context, venue string) (*MarketStatus, error) {
	c.mu.Lock()
	cached := c.status
	c.mu.Unlock()

	now := c.now()
	if cached != nil && cached.Venue == venue && sameHalfHour(cached.FetchedAt, now) {
		return cached, nil
	}

	status, ok, err := call(ctx, c, "get_market_status", func(ctx context.Context, p Provider) (*MarketStatus, error) {
		return p.GetMarketStatus(ctx, venue)
	})
	if err != nil {
		return nil, err
	}
	if !ok || status == nil {
		return nil, fmt.Errorf("market status unavailable for %s", venue)
	}
	status.Venue = venue
	status.FetchedAt = now

	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
	return status, nil
}

// Close releases the underlying provider, if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider == nil {
		return nil
	}
	err := c.provider.Close()
	c.provider = nil
	return err
}

// call runs one provider operation under the rate limiter with the retry
// policy: transient failures recycle the provider and retry exactly once
// (longer pause for timeouts); permission failures are skipped (ok=false);
// a second failure is fatal for the call.
func call[T any](ctx context.Context, c *Client, op string, fn func(context.Context, Provider) (T, error)) (ret T, ok bool, err error) {
	var zero T

	p, err := c.ensureProvider()
	if err != nil {
		return zero, false, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return zero, false, err
	}
	defer c.limiter.Mark()

	ret, err = fn(ctx, p)
	if err == nil {
		return ret, true, nil
	}

	if errors.Is(err, ErrPermission) {
		c.log.Warn("feed request not permitted, skipping",
			zap.String("provider", c.name), zap.String("op", op), zap.Error(err))
		return zero, false, nil
	}

	pause := c.retryPause
	if isTimeout(err) {
		pause = c.timeoutPause
	}
	c.log.Error("feed request failed, recycling client",
		zap.String("provider", c.name), zap.String("op", op),
		zap.Duration("pause", pause), zap.Error(err))

	p, rerr := c.recycle()
	if rerr != nil {
		return zero, false, fmt.Errorf("%s %s: recycle: %w", c.name, op, rerr)
	}
	if serr := c.sleep(ctx, pause); serr != nil {
		return zero, false, serr
	}

	ret, err = fn(ctx, p)
	if err != nil {
		return zero, false, fmt.Errorf("%s %s failed after retry: %w", c.name, op, err)
	}
	return ret, true, nil
}

func (c *Client) ensureProvider() (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	c.log.Debug("opening feed provider", zap.String("provider", c.name))
	p, err := c.factory()
	if err != nil {
		return nil, fmt.Errorf("%s: create provider: %w", c.name, err)
	}
	c.provider = p
	return p, nil
}

func (c *Client) recycle() (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		_ = c.provider.Close()
		c.provider = nil
	}
	p, err := c.factory()
	if err != nil {
		return nil, err
	}
	c.provider = p
	return p, nil
}

// isTimeout distinguishes timeout failures from other transient errors; only
// the pre-retry pause differs.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// sameHalfHour reports whether both times fall into the same wall-clock
// half-hour bucket.
func sameHalfHour(a, b time.Time) bool {
	return a.Truncate(30 * time.Minute).Equal(b.Truncate(30 * time.Minute))
}
