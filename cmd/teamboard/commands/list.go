package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/teamboard/internal/board"
	"github.com/dyluth/teamboard/internal/filter"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listStatus       string
	listFields       []string
	listSearch       string
)

var listCmd = &cobra.Command{
	Use:   "list KIND",
	Short: "List employees or tasks with filtering",
	Long: `List the records of one kind as a table or JSONL stream.

Output Formats:
  default - Human-readable table
  jsonl   - Line-delimited JSON, one record per line

Filters (ANDed together):
  --status  - Exact workflow status ("Active", "In Progress")
  --field   - Field equality, case-insensitive, repeatable (department=Sales)
  --search  - Substring of the name or title, case-insensitive

Examples:
  teamboard list employees --field department=Technical --status Active
  teamboard list tasks --output=jsonl | jq .title`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (exact match)")
	listCmd.Flags().StringArrayVar(&listFields, "field", nil, "Filter by field value (key=value, repeatable)")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by name or title substring")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	var format board.OutputFormat
	switch listOutputFormat {
	case "default":
		format = board.OutputFormatDefault
	case "jsonl":
		format = board.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	criteria := &filter.Criteria{NameContains: listSearch}
	if listStatus != "" {
		status := record.Status(listStatus)
		if err := record.ValidateStatus(kind, status); err != nil {
			return printer.Error("invalid status", err.Error(), nil)
		}
		criteria.Status = status
	}
	for _, arg := range listFields {
		k, v, ok := filter.ParseField(arg)
		if !ok {
			return printer.Error(
				"invalid field filter",
				fmt.Sprintf("Expected key=value, got %q", arg),
				[]string{"Example: --field department=Sales"},
			)
		}
		if criteria.Fields == nil {
			criteria.Fields = make(map[string]string)
		}
		criteria.Fields[k] = v
	}

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := board.ListRecords(ctx, a.loader, kind, a.cfg.Instance, format, criteria, cmd.OutOrStdout()); err != nil {
		return loadFailure(kind, err)
	}

	return nil
}
