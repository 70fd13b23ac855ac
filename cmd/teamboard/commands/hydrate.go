package commands

import (
	"context"

	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/spf13/cobra"
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate [KIND]",
	Short: "Populate the store from the source if it is empty",
	Long: `Populate the durable store for one kind, or for every kind when KIND is omitted.

A kind already in the store is left untouched (warm start). An empty kind is
fetched from the source after the configured loader delay (cold start).

Examples:
  teamboard hydrate
  teamboard hydrate tasks`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHydrate,
}

func init() {
	rootCmd.AddCommand(hydrateCmd)
}

func runHydrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kinds := record.Kinds()
	if len(args) == 1 {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		kinds = []record.Kind{kind}
	}

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	for _, kind := range kinds {
		before := a.loader.ColdFetches()
		coll, err := a.loader.Hydrate(ctx, kind)
		if err != nil {
			return loadFailure(kind, err)
		}

		start := "warm"
		if a.loader.ColdFetches() > before {
			start = "cold"
		}
		printer.Success("%s: %d records (%s start)\n", kind, len(coll), start)
	}

	return nil
}
