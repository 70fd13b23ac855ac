package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/teamboard/internal/board"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get KIND ID",
	Short: "Show one employee or task as JSON",
	Long: `Show every field of a single record as pretty-printed JSON.

Examples:
  teamboard get employees 3
  teamboard get tasks 1`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := board.GetRecord(ctx, a.loader, kind, id, cmd.OutOrStdout()); err != nil {
		if board.IsNotFound(err) {
			return printer.ErrorWithContext(
				fmt.Sprintf("%s not found", kind.Noun()),
				fmt.Sprintf("No %s with ID '%s' exists.", kind.Noun(), id),
				map[string]string{"Instance": a.cfg.Instance, "Kind": string(kind)},
				[]string{fmt.Sprintf("List available records:\n  teamboard list %s", kind)},
			)
		}
		return loadFailure(kind, err)
	}

	return nil
}
