package board

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
)

// Columns returns the table columns shown for a kind. Fields not listed here
// (descriptions, contact details, avatar URLs) are only visible via get or jsonl.
func Columns(kind record.Kind) []string {
	switch kind {
	case record.KindEmployees:
		return []string{"name", "role", "department", "status"}
	case record.KindTasks:
		return []string{"title", "assignee", "status"}
	default:
		return []string{"status"}
	}
}

// FormatTable writes records as a formatted table to the provided writer.
// Returns the number of records formatted.
func FormatTable(w io.Writer, kind record.Kind, coll record.Collection, instanceName string) int {
	if len(coll) == 0 {
		fmt.Fprintf(w, "No %s found for instance '%s'\n", kind, instanceName)
		return 0
	}

	fmt.Fprintf(w, "%s for instance '%s':\n\n", titleCase(string(kind)), instanceName)

	cols := Columns(kind)
	header := []string{padCell("ID", 6)}
	rule := []string{strings.Repeat("-", 6)}
	for _, c := range cols {
		header = append(header, padCell(strings.ToUpper(c), width(c)))
		rule = append(rule, strings.Repeat("-", width(c)))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(header, " "), " "))
	fmt.Fprintln(w, strings.Join(rule, " "))

	for _, r := range coll {
		row := []string{padCell(truncate(r.ID, 6), 6)}
		for _, c := range cols {
			row = append(row, formatCell(r, c))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(row, " "), " "))
	}

	noun := strings.ToLower(kind.Noun())
	if len(coll) != 1 {
		noun += "s"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(coll), noun)

	return len(coll)
}

// FormatJSONL writes records as line-delimited JSON (JSONL) to the provided writer.
// Each record is written as a single flat JSON object on its own line.
func FormatJSONL(w io.Writer, coll record.Collection) error {
	for _, r := range coll {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single record as pretty-printed JSON to the provided writer.
func FormatSingleJSON(w io.Writer, r record.Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	fmt.Fprintln(w)

	return nil
}

// width is the fixed column width for a field.
func width(field string) int {
	switch field {
	case "title":
		return 32
	case "name", "role":
		return 22
	case "status":
		return 11
	default:
		return 14
	}
}

// formatCell renders one field, truncated and padded to its column width.
// Status is colored after padding so escape codes do not skew alignment.
func formatCell(r record.Record, field string) string {
	v := r.String(field)
	if v == "" {
		v = "-"
	}
	cell := padCell(truncate(v, width(field)), width(field))
	if field == record.FieldStatus && v != "-" {
		return strings.Replace(cell, v, printer.Status(v), 1)
	}
	return cell
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func padCell(s string, n int) string {
	if pad := n - len([]rune(s)); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
