package cmd

import (
	"context"
	"fmt"
	"time"

	"market-sync/core/cache"
	"market-sync/core/config"
	"market-sync/core/database"
	"market-sync/core/feed"
	"market-sync/core/feed/finnhub"
	"market-sync/core/feed/yahoo"
	"market-sync/core/idgen"
	"market-sync/core/logger"
	"market-sync/core/storage"
	"market-sync/feature/exchange"
	exmodels "market-sync/feature/exchange/models"
	qmodels "market-sync/feature/quote/models"
	"market-sync/feature/symbol"
	symmodels "market-sync/feature/symbol/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds everything a sync command needs: configuration, logging with
// a per-run ID, the database with its ID sequence, the entity caches and the
// shared allocator.
type runtime struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	alloc     *idgen.Allocator
	exchanges *cache.Cache[*exmodels.Exchange]
	symbols   *cache.Cache[*symmodels.Symbol]
}

func newRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	base, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.WithRunID(base)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&exmodels.Exchange{},
		&symmodels.Symbol{},
		&qmodels.Quote{},
		&qmodels.DailyBar{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := database.EnsureSequence(db, cfg.Database.SequenceName, 1, cfg.Database.SequenceIncrement); err != nil {
		return nil, fmt.Errorf("failed to ensure id sequence: %w", err)
	}

	exchanges, err := exchange.NewCache(db, log)
	if err != nil {
		return nil, err
	}
	symbols, err := symbol.NewCache(db, log)
	if err != nil {
		return nil, err
	}
	alloc := idgen.New(database.NewSequenceSource(db, cfg.Database.SequenceName), log)

	ctx := context.Background()
	ne, err := exchanges.Prime(ctx)
	if err != nil {
		return nil, err
	}
	ns, err := symbols.Prime(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("caches primed", zap.Int("exchanges", ne), zap.Int("symbols", ns))

	return &runtime{
		cfg:       cfg,
		log:       log,
		db:        db,
		alloc:     alloc,
		exchanges: exchanges,
		symbols:   symbols,
	}, nil
}

// archive connects to object storage and makes sure the snapshot bucket
// exists.
func (r *runtime) archive(ctx context.Context) (*storage.Archive, error) {
	client, err := storage.NewClient(r.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	archive := storage.NewArchive(client, r.cfg.Storage.Bucket)
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

// finnhubClient builds the resilient client over the reference feed.
func (r *runtime) finnhubClient() *feed.Client {
	spacing := time.Duration(r.cfg.Feed.MinRequestIntervalMS) * time.Millisecond
	cfg := r.cfg.Feed
	return feed.NewClient("finnhub", func() (feed.Provider, error) {
		return finnhub.New(cfg), nil
	}, feed.NewLimiter(spacing), cfg, r.log)
}

// yahooClient builds the resilient client over the historical bar source.
func (r *runtime) yahooClient() *feed.Client {
	spacing := time.Duration(r.cfg.Feed.MinRequestIntervalMS) * time.Millisecond
	cfg := r.cfg.Feed
	return feed.NewClient("yahoo", func() (feed.Provider, error) {
		return yahoo.New(cfg), nil
	}, feed.NewLimiter(spacing), cfg, r.log)
}

func (r *runtime) close() {
	_ = r.log.Sync()
}
