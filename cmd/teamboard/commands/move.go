package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/teamboard/internal/optimistic"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
	"github.com/spf13/cobra"
)

var (
	moveKind string
	moveFrom string
)

var moveCmd = &cobra.Command{
	Use:   "move ID STATUS",
	Short: "Move a task (or employee) to another status",
	Long: `Move a record to another workflow status.

The move is applied optimistically and then confirmed according to the
confirmation policy. A rejected move is rolled back and reported.

Task statuses:     To Do, In Progress, Done
Employee statuses: Active, Inactive

Examples:
  teamboard move 1 "In Progress"
  teamboard move 2 Done --from "To Do"
  teamboard move 4 Inactive --kind employees`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	moveCmd.Flags().StringVarP(&moveKind, "kind", "k", "tasks", "Record kind: tasks or employees")
	moveCmd.Flags().StringVar(&moveFrom, "from", "", "Expected current status (fails if the record has moved)")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind, err := parseKind(moveKind)
	if err != nil {
		return err
	}
	id, to := args[0], record.Status(args[1])

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	outcome, moveErr := move(ctx, a, kind, id, record.Status(moveFrom), to)

	// Flush before rendering so the outcome notification prints first.
	if err := a.Close(); err != nil {
		printer.Warning("failed to close store: %v\n", err)
	}

	switch {
	case moveErr == nil && outcome == optimistic.OutcomeNoop:
		printer.Info("%s %q is already %s\n", kind.Noun(), id, to)
		return nil

	case moveErr == nil:
		return nil

	case errors.Is(moveErr, optimistic.ErrConfirmationFailed):
		return printer.Error(
			"move rolled back",
			"The change was rejected and the previous status has been restored.",
			[]string{"Retry the move"},
		)

	case errors.Is(moveErr, record.ErrInvalidStatus):
		return printer.Error(
			"invalid status",
			moveErr.Error(),
			[]string{fmt.Sprintf("Valid %s statuses: %s", kind, joinStatuses(record.Workflow(kind)))},
		)

	case errors.Is(moveErr, optimistic.ErrStatusMismatch):
		return printer.Error(
			"status has changed",
			moveErr.Error(),
			[]string{fmt.Sprintf("Check the current status:\n  teamboard get %s %s", kind, id)},
		)

	case errors.Is(moveErr, store.ErrNotFound):
		return printer.ErrorWithContext(
			fmt.Sprintf("%s not found", kind.Noun()),
			fmt.Sprintf("No %s with ID '%s' exists.", kind.Noun(), id),
			map[string]string{"Instance": a.cfg.Instance, "Kind": string(kind)},
			[]string{fmt.Sprintf("List available records:\n  teamboard list %s", kind)},
		)

	default:
		return moveErr
	}
}

func move(ctx context.Context, a *app, kind record.Kind, id string, from, to record.Status) (optimistic.Outcome, error) {
	e, err := a.engine(ctx, kind)
	if err != nil {
		return "", loadFailure(kind, err)
	}
	return e.Transition(ctx, id, from, to)
}

func joinStatuses(statuses []record.Status) string {
	s := make([]string, len(statuses))
	for i, st := range statuses {
		s[i] = string(st)
	}
	return strings.Join(s, ", ")
}
