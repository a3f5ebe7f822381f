package cmd

import (
	"context"
	"errors"

	"market-sync/core/feed"
	"market-sync/core/storage"
	"market-sync/feature/exchange"
	"market-sync/feature/quote"
	"market-sync/feature/symbol"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipArchive bool

// syncCmd is the parent command for all synchronization operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize reference data against its upstream sources",
}

var syncExchangesCmd = &cobra.Command{
	Use:   "exchanges",
	Short: "Import the ISO 10383 exchange registry",
	Long: `Download the published ISO 10383 MIC list, archive a dated snapshot
and reconcile every market identifier into the exchange table.`,
	RunE: runSyncExchanges,
}

var syncSymbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Synchronize the symbol directory from the reference feed",
	RunE:  runSyncSymbols,
}

var syncQuotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Collect end-of-day quotes for listed symbols",
	Long: `Collect one end-of-day quote per listed symbol. The run only starts
while the venue is closed and skips symbols already checked since the
current publication cutoff, so repeating an interrupted run is safe.`,
	RunE: runSyncQuotes,
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Backfill historical daily bars for listed symbols",
	RunE:  runSyncHistory,
}

func init() {
	syncExchangesCmd.Flags().BoolVar(&skipArchive, "skip-archive", false, "Do not archive the registry snapshot to object storage")

	syncCmd.AddCommand(syncExchangesCmd)
	syncCmd.AddCommand(syncSymbolsCmd)
	syncCmd.AddCommand(syncQuotesCmd)
	syncCmd.AddCommand(syncHistoryCmd)
	RootCmd.AddCommand(syncCmd)
}

func runSyncExchanges(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var archive *storage.Archive
	if !skipArchive {
		a, err := rt.archive(ctx)
		if err != nil {
			return err
		}
		archive = a
	}

	imp := exchange.NewImporter(rt.db, rt.alloc, rt.exchanges, archive, rt.log)
	res, err := imp.Run(ctx)
	if err != nil {
		return err
	}
	rt.log.Info("exchange import finished",
		zap.Int("total", res.Total),
		zap.Int("new", res.New),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("rejected", res.Rejected))
	return nil
}

func runSyncSymbols(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	client := rt.finnhubClient()
	defer client.Close()

	svc := symbol.NewService(rt.db, rt.alloc, rt.symbols, rt.exchanges, client, rt.cfg.Feed.Venue, rt.log)
	res, err := svc.Sync(ctx)
	if err != nil {
		return err
	}
	rt.log.Info("symbol sync finished",
		zap.Int("total", res.Total),
		zap.Int("new", res.New),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("vanished", res.Vanished),
		zap.Int("rejected", res.Rejected))
	return nil
}

func runSyncQuotes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	quotes := rt.finnhubClient()
	defer quotes.Close()

	svc := quote.NewService(rt.db, rt.alloc, rt.symbols, quotes, nil, rt.cfg.Feed, rt.log)
	stats, err := svc.SyncQuotes(ctx)
	if errors.Is(err, feed.ErrMarketOpen) {
		rt.log.Warn("venue is open, quote collection postponed",
			zap.String("venue", rt.cfg.Feed.Venue),
			zap.Int("stored", stats.Stored))
		return nil
	}
	if err != nil {
		return err
	}
	rt.log.Info("quote collection finished",
		zap.Int("due", stats.Due),
		zap.Int("stored", stats.Stored),
		zap.Int("empty", stats.Empty),
		zap.Int("failed", stats.Failed))
	return nil
}

func runSyncHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	history := rt.yahooClient()
	defer history.Close()

	svc := quote.NewService(rt.db, rt.alloc, rt.symbols, nil, history, rt.cfg.Feed, rt.log)
	stats, err := svc.BackfillBars(ctx)
	if err != nil {
		return err
	}
	rt.log.Info("history backfill finished",
		zap.Int("checked", stats.Checked),
		zap.Int("fetched", stats.Fetched),
		zap.Int("bars", stats.Bars),
		zap.Int("failed", stats.Failed))
	return nil
}
