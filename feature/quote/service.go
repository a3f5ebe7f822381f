package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-sync/core/cache"
	"market-sync/core/feed"
	"market-sync/core/idgen"
	"market-sync/feature/quote/models"
	"market-sync/feature/symbol"
	symmodels "market-sync/feature/symbol/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteStats summarizes one quote collection run.
type QuoteStats struct {
	// Due is how many symbols needed a fresh quote.
	Due int
	// Stored counts quotes persisted.
	Stored int
	// Empty counts attempts the feed answered with no data, including
	// permission skips. Their symbols still advance the check timestamp.
	Empty int
	// Failed counts attempts the feed could not serve even after the retry.
	// Their symbols still advance the check timestamp; the failure stays
	// scoped to the one symbol.
	Failed int
}

// BarStats summarizes one history backfill run.
type BarStats struct {
	// Checked is how many listed symbols were inspected.
	Checked int
	// Fetched is how many symbols were stale enough to fetch.
	Fetched int
	// Bars counts daily bars persisted.
	Bars int
	// Failed counts fetches the feed could not serve even after the retry.
	Failed int
}

// Service collects end-of-day quotes and backfills historical daily bars.
type Service struct {
	db      *gorm.DB
	alloc   *idgen.Allocator
	symbols *cache.Cache[*symmodels.Symbol]
	quotes  *feed.Client
	history *feed.Client
	cfg     feed.Config
	log     *zap.Logger

	now func() time.Time
}

// NewService creates a quote service. The quotes client serves snapshot
// quotes and market status; the history client serves daily bars.
func NewService(db *gorm.DB, alloc *idgen.Allocator, symbols *cache.Cache[*symmodels.Symbol], quotes, history *feed.Client, cfg feed.Config, log *zap.Logger) *Service {
	return &Service{
		db:      db,
		alloc:   alloc,
		symbols: symbols,
		quotes:  quotes,
		history: history,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// SyncQuotes fetches an end-of-day quote for every listed symbol whose last
// check predates the current publication cutoff. The run aborts with
// feed.ErrMarketOpen if the venue opens mid-run; symbols already committed
// stay committed and drop out of the next run's due list.
func (s *Service) SyncQuotes(ctx context.Context) (QuoteStats, error) {
	var stats QuoteStats

	status, err := s.quotes.FreshStatus(ctx, s.cfg.Venue)
	if err != nil {
		return stats, err
	}
	if status.IsOpen {
		return stats, fmt.Errorf("venue %s: %w", s.cfg.Venue, feed.ErrMarketOpen)
	}

	// One cutoff for the whole run, so a run crossing the publish hour does
	// not chase a moving target.
	cutoff := feed.EODCutoff(s.now(), status.Holiday != "", s.cfg.PublishHour)
	s.log.Info("collecting quotes", zap.String("venue", s.cfg.Venue), zap.Time("cutoff", cutoff))

	due, err := s.dueSymbols(ctx, cutoff)
	if err != nil {
		return stats, err
	}
	stats.Due = len(due)

	for _, sym := range due {
		status, err := s.quotes.FreshStatus(ctx, s.cfg.Venue)
		if err != nil {
			return stats, err
		}
		if status.IsOpen {
			return stats, fmt.Errorf("venue %s opened mid-run: %w", s.cfg.Venue, feed.ErrMarketOpen)
		}

		q, err := s.quotes.GetQuote(ctx, sym.Ticker)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			// The attempt is over; the failure stays scoped to this symbol
			// and the rest of the due list proceeds.
			s.log.Error("quote fetch failed",
				zap.String("symbol", sym.Ticker), zap.Error(err))
			if err := s.persistQuote(ctx, sym, nil); err != nil {
				return stats, err
			}
			stats.Failed++
			continue
		}

		if err := s.persistQuote(ctx, sym, q); err != nil {
			return stats, err
		}
		if q != nil {
			stats.Stored++
		} else {
			stats.Empty++
		}
	}
	return stats, nil
}

// dueSymbols returns listed symbols whose last quote check is null or before
// the cutoff, resolved through the cache so later persistence hits warm
// entries.
func (s *Service) dueSymbols(ctx context.Context, cutoff time.Time) ([]*symmodels.Symbol, error) {
	var uids []string
	err := s.db.WithContext(ctx).Model(&symmodels.Symbol{}).
		Where("feed_listed = ?", true).
		Where("last_quote_check IS NULL OR last_quote_check < ?", cutoff).
		Order("uid").
		Pluck("uid", &uids).Error
	if err != nil {
		return nil, fmt.Errorf("select due symbols: %w", err)
	}
	return s.symbols.GetAllOrLoad(ctx, symbol.AttrUID, uids)
}

// persistQuote stores the quote, if any, and advances the symbol's check
// timestamp in the same transaction. Every attempt advances the timestamp,
// including empty answers and permission skips, so one bad symbol cannot pin
// the due list.
func (s *Service) persistQuote(ctx context.Context, sym *symmodels.Symbol, q *feed.QuoteRecord) error {
	checked := s.now()
	var row *models.Quote
	if q != nil {
		id, err := s.alloc.NextID(ctx)
		if err != nil {
			return fmt.Errorf("allocate quote id: %w", err)
		}
		row = &models.Quote{
			ID:            id,
			SymbolID:      sym.ID,
			Price:         q.Price,
			Change:        q.Change,
			PercentChange: q.PercentChange,
			High:          q.High,
			Low:           q.Low,
			Open:          q.Open,
			PreviousClose: q.PreviousClose,
			QuoteTime:     q.At,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row != nil {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return err
			}
		}
		return tx.Model(sym).Update("last_quote_check", checked).Error
	})
	if err != nil {
		return fmt.Errorf("persist quote for %s: %w", sym.Ticker, err)
	}

	sym.LastQuoteCheck = &checked
	s.symbols.Put(sym)
	return nil
}

// BackfillBars fetches missing daily history for every listed symbol. A
// symbol is fetched when it has no bars yet or its newest bar is at least the
// configured backfill period old; the fetch starts the day after that bar so
// history is never re-downloaded.
func (s *Service) BackfillBars(ctx context.Context) (BarStats, error) {
	var stats BarStats

	var listed []*symmodels.Symbol
	if err := s.db.WithContext(ctx).Where("feed_listed = ?", true).Order("uid").Find(&listed).Error; err != nil {
		return stats, fmt.Errorf("select listed symbols: %w", err)
	}
	backfillAge := time.Duration(s.cfg.BackfillDays) * 24 * time.Hour

	for _, sym := range listed {
		stats.Checked++

		last, err := s.latestBarDate(ctx, sym.ID)
		if err != nil {
			return stats, err
		}
		start := time.Unix(0, 0)
		if last != nil {
			if s.now().Sub(*last) < backfillAge {
				continue
			}
			start = last.AddDate(0, 0, 1)
		}
		stats.Fetched++

		bars, err := s.history.GetDailyBars(ctx, sym.Ticker, start)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			s.log.Error("bar fetch failed",
				zap.String("symbol", sym.Ticker), zap.Error(err))
			if _, perr := s.persistBars(ctx, sym, start, nil); perr != nil {
				return stats, perr
			}
			stats.Failed++
			continue
		}

		n, err := s.persistBars(ctx, sym, start, bars)
		if err != nil {
			return stats, err
		}
		stats.Bars += n
	}
	return stats, nil
}

func (s *Service) latestBarDate(ctx context.Context, symbolID int64) (*time.Time, error) {
	var bar models.DailyBar
	err := s.db.WithContext(ctx).
		Where("symbol_id = ?", symbolID).
		Order("bar_date DESC").
		Limit(1).
		Take(&bar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest bar for symbol %d: %w", symbolID, err)
	}
	return &bar.Date, nil
}

// persistBars writes the fetched bars and the advanced check timestamp in one
// transaction. Bars older than the requested start are dropped; providers
// sometimes pad the response with the preceding session.
func (s *Service) persistBars(ctx context.Context, sym *symmodels.Symbol, start time.Time, bars []feed.BarRecord) (int, error) {
	fresh := make([]feed.BarRecord, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(start) {
			continue
		}
		fresh = append(fresh, b)
	}

	checked := s.now()
	var rows []*models.DailyBar
	if len(fresh) > 0 {
		ids, err := s.alloc.NextIDs(ctx, len(fresh))
		if err != nil {
			return 0, fmt.Errorf("allocate bar ids: %w", err)
		}
		rows = make([]*models.DailyBar, len(fresh))
		for i, b := range fresh {
			rows[i] = &models.DailyBar{
				ID:       ids[i],
				SymbolID: sym.ID,
				Date:     b.Date,
				Open:     b.Open,
				High:     b.High,
				Low:      b.Low,
				Close:    b.Close,
				AdjClose: b.AdjClose,
				Volume:   b.Volume,
			}
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 200).Error; err != nil {
				return err
			}
		}
		return tx.Model(sym).Update("last_bar_check", checked).Error
	})
	if err != nil {
		return 0, fmt.Errorf("persist bars for %s: %w", sym.Ticker, err)
	}

	sym.LastBarCheck = &checked
	s.symbols.Put(sym)
	return len(rows), nil
}
