package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [KIND]",
	Short: "Clear cached collections so the next command starts cold",
	Long: `Remove one kind, or every kind when KIND is omitted, from the durable store.

The next command that needs the kind fetches it from the source again.

Examples:
  teamboard reset
  teamboard reset employees`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var kinds []record.Kind
	if len(args) == 1 {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Clear(ctx, kinds...); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}

	if len(kinds) == 0 {
		kinds = record.Kinds()
	}
	for _, kind := range kinds {
		printer.Success("Cleared %s\n", kind)
	}
	return nil
}
