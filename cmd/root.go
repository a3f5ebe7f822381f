package cmd

import (
	"fmt"
	"os"

	"market-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "market-sync",
	Short: "Market reference data synchronization",
	Long: `market-sync keeps a local market reference database in step with its
upstream sources: the ISO 10383 exchange registry, the reference feed's
symbol directory, end-of-day quotes and historical daily bars.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format for CLI error reporting regardless of the
		// configured run format
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
