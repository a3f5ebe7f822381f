package symbol

import (
	"context"
	"fmt"
	"time"

	"market-sync/core/cache"
	"market-sync/core/feed"
	"market-sync/core/idgen"
	"market-sync/core/reconcile"
	"market-sync/feature/exchange"
	exmodels "market-sync/feature/exchange/models"
	"market-sync/feature/symbol/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service synchronizes the symbol table against the reference feed.
type Service struct {
	db        *gorm.DB
	alloc     *idgen.Allocator
	symbols   *cache.Cache[*models.Symbol]
	exchanges *cache.Cache[*exmodels.Exchange]
	client    *feed.Client
	log       *zap.Logger
	venue     string
}

// NewService creates a symbol sync service.
func NewService(db *gorm.DB, alloc *idgen.Allocator, symbols *cache.Cache[*models.Symbol], exchanges *cache.Cache[*exmodels.Exchange], client *feed.Client, venue string, log *zap.Logger) *Service {
	return &Service{
		db:        db,
		alloc:     alloc,
		symbols:   symbols,
		exchanges: exchanges,
		client:    client,
		log:       log,
		venue:     venue,
	}
}

// Sync lists the venue's instruments and reconciles them into the symbol
// table. Symbols the feed no longer reports keep their row and history but
// lose the listed flag.
func (s *Service) Sync(ctx context.Context) (reconcile.Result, error) {
	records, err := s.client.ListSymbols(ctx, s.venue)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("list symbols for %s: %w", s.venue, err)
	}
	s.log.Info("feed reported symbols", zap.String("venue", s.venue), zap.Int("count", len(records)))

	venueIDs, err := s.resolveVenues(ctx, records)
	if err != nil {
		return reconcile.Result{}, err
	}
	return reconcile.Run(ctx, s.db, s.alloc, s.spec(venueIDs), records, s.log)
}

// resolveVenues maps each distinct listing MIC in the batch to its exchange
// ID through the exchange cache. Unknown venues map to zero; a later registry
// import repairs those rows on the next sync.
func (s *Service) resolveVenues(ctx context.Context, records []feed.SymbolRecord) (map[string]int64, error) {
	distinct := make(map[string]struct{})
	for _, r := range records {
		if r.Mic != "" {
			distinct[r.Mic] = struct{}{}
		}
	}
	mics := make([]string, 0, len(distinct))
	for mic := range distinct {
		mics = append(mics, mic)
	}

	known, err := s.exchanges.GetAllOrLoad(ctx, exchange.AttrMic, mics)
	if err != nil {
		return nil, fmt.Errorf("resolve venues: %w", err)
	}
	ids := make(map[string]int64, len(known))
	for _, e := range known {
		ids[e.Mic] = e.ID
	}
	if missing := len(distinct) - len(ids); missing > 0 {
		s.log.Warn("symbols reference unknown venues", zap.Int("count", missing))
	}
	return ids, nil
}

func (s *Service) spec(venueIDs map[string]int64) *reconcile.Spec[*models.Symbol, feed.SymbolRecord] {
	return &reconcile.Spec[*models.Symbol, feed.SymbolRecord]{
		Name:    "symbol",
		Cache:   s.symbols,
		KeyAttr: AttrUID,
		Key: func(r feed.SymbolRecord) (string, error) {
			if r.Symbol == "" {
				return "", fmt.Errorf("record without symbol")
			}
			return models.UIDOf(r.Symbol, r.Mic), nil
		},
		Fields: fields(venueIDs),
		New: func(r feed.SymbolRecord, id int64) (*models.Symbol, error) {
			sym := &models.Symbol{
				ID:         id,
				UID:        models.UIDOf(r.Symbol, r.Mic),
				Ticker:     r.Symbol,
				Mic:        r.Mic,
				FeedListed: true,
				UpdateTime: time.Now(),
			}
			for _, f := range fields(venueIDs) {
				f.Assign(sym, r)
			}
			return sym, nil
		},
		Touch: func(sym *models.Symbol) {
			sym.UpdateCount++
			sym.UpdateTime = time.Now()
		},
		Vanished: func(ctx context.Context, tx *gorm.DB, seen map[string]struct{}) (int, error) {
			var listed []*models.Symbol
			if err := tx.Where("feed_listed = ?", true).Find(&listed).Error; err != nil {
				return 0, err
			}
			n := 0
			for _, sym := range listed {
				if _, ok := seen[sym.UID]; ok {
					continue
				}
				if err := tx.Model(sym).Update("feed_listed", false).Error; err != nil {
					return 0, err
				}
				sym.FeedListed = false
				s.symbols.Put(sym)
				n++
			}
			return n, nil
		},
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func textField(name string, cur func(*models.Symbol) **string, inc func(feed.SymbolRecord) string) reconcile.Field[*models.Symbol, feed.SymbolRecord] {
	return reconcile.Field[*models.Symbol, feed.SymbolRecord]{
		Name:     name,
		Current:  func(s *models.Symbol) any { return *cur(s) },
		Incoming: func(r feed.SymbolRecord) any { return optional(inc(r)) },
		Assign:   func(s *models.Symbol, r feed.SymbolRecord) { *cur(s) = optional(inc(r)) },
	}
}

// fields is the declarative list of tracked Symbol fields. The feed_listed
// field re-lists a previously vanished symbol the feed reports again.
func fields(venueIDs map[string]int64) []reconcile.Field[*models.Symbol, feed.SymbolRecord] {
	return []reconcile.Field[*models.Symbol, feed.SymbolRecord]{
		textField("currency", func(s *models.Symbol) **string { return &s.Currency }, func(r feed.SymbolRecord) string { return r.Currency }),
		textField("description", func(s *models.Symbol) **string { return &s.Description }, func(r feed.SymbolRecord) string { return r.Description }),
		textField("display_symbol", func(s *models.Symbol) **string { return &s.DisplaySymbol }, func(r feed.SymbolRecord) string { return r.DisplaySymbol }),
		textField("figi", func(s *models.Symbol) **string { return &s.Figi }, func(r feed.SymbolRecord) string { return r.Figi }),
		textField("share_class_figi", func(s *models.Symbol) **string { return &s.ShareClassFigi }, func(r feed.SymbolRecord) string { return r.ShareClassFigi }),
		textField("symbol2", func(s *models.Symbol) **string { return &s.Ticker2 }, func(r feed.SymbolRecord) string { return r.Symbol2 }),
		textField("type", func(s *models.Symbol) **string { return &s.Type }, func(r feed.SymbolRecord) string { return r.Type }),
		{
			Name:     "exchange_id",
			Current:  func(s *models.Symbol) any { return s.ExchangeID },
			Incoming: func(r feed.SymbolRecord) any { return venueIDs[r.Mic] },
			Assign:   func(s *models.Symbol, r feed.SymbolRecord) { s.ExchangeID = venueIDs[r.Mic] },
		},
		{
			Name:     "feed_listed",
			Current:  func(s *models.Symbol) any { return s.FeedListed },
			Incoming: func(r feed.SymbolRecord) any { return true },
			Assign:   func(s *models.Symbol, r feed.SymbolRecord) { s.FeedListed = true },
		},
	}
}
