package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dyluth/teamboard/internal/notify"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchCount        int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream move outcomes as they happen",
	Long: `Stream outcome notifications published by other teamboard commands.

Requires the redis storage driver; notifications are delivered over Redis
Pub/Sub at most once.

Output Formats:
  default - Human-readable output with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  teamboard watch
  teamboard watch --output=json > outcomes.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many notifications (0 = run until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			err.Error(),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.rdb == nil {
		return printer.Error(
			"watch needs Redis",
			fmt.Sprintf("Notifications are only shared between commands with the redis driver (current: %s).", a.cfg.Storage.Driver),
			[]string{"Set in teamboard.yml:\n  storage:\n    driver: redis"},
		)
	}

	sub, err := notify.Subscribe(ctx, a.rdb, a.cfg.Instance)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Close()

	if format == watch.OutputFormatDefault {
		printer.Step("Watching instance '%s'...\n", a.cfg.Instance)
	}

	return watch.StreamNotifications(ctx, sub, format, watchCount, cmd.OutOrStdout())
}
