package cmd

import (
	"context"

	exmodels "market-sync/feature/exchange/models"
	qmodels "market-sync/feature/quote/models"
	symmodels "market-sync/feature/symbol/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// statusCmd reports local table counts and the venue's market state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report local data counts and the venue's market state",
	RunE:  runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	counts := map[string]any{}
	for name, model := range map[string]any{
		"exchanges": &exmodels.Exchange{},
		"symbols":   &symmodels.Symbol{},
		"quotes":    &qmodels.Quote{},
		"bars":      &qmodels.DailyBar{},
	} {
		var n int64
		if err := rt.db.Model(model).Count(&n).Error; err != nil {
			return err
		}
		counts[name] = n
	}

	var listed int64
	if err := rt.db.Model(&symmodels.Symbol{}).Where("feed_listed = ?", true).Count(&listed).Error; err != nil {
		return err
	}

	rt.log.Info("local data",
		zap.Any("counts", counts),
		zap.Int64("listed_symbols", listed))

	client := rt.finnhubClient()
	defer client.Close()

	status, err := client.FreshStatus(ctx, rt.cfg.Feed.Venue)
	if err != nil {
		rt.log.Warn("market status unavailable", zap.Error(err))
		return nil
	}
	rt.log.Info("market status",
		zap.String("venue", status.Venue),
		zap.Bool("open", status.IsOpen),
		zap.String("session", status.Session),
		zap.String("holiday", status.Holiday),
		zap.String("timezone", status.Timezone))
	return nil
}
