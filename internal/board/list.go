package board

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dyluth/teamboard/internal/filter"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
)

// OutputFormat specifies how to format the record list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated cells
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Hydrator returns a ready collection for a kind, loading it on a cold start.
// *loader.Loader implements it.
type Hydrator interface {
	Hydrate(ctx context.Context, kind record.Kind) (record.Collection, error)
	HydrateOne(ctx context.Context, kind record.Kind, id string) (record.Record, error)
}

// ListRecords hydrates a collection, applies the filter criteria and writes
// the result in collection order.
func ListRecords(ctx context.Context, h Hydrator, kind record.Kind, instanceName string, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSONL {
		return fmt.Errorf("unknown output format: %s", format)
	}

	coll, err := h.Hydrate(ctx, kind)
	if err != nil {
		return err
	}

	coll = filters.Apply(coll)

	switch format {
	case OutputFormatJSONL:
		if err := FormatJSONL(w, coll); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		FormatTable(w, kind, coll, instanceName)
	}

	return nil
}

// GetRecord retrieves a single record by id and writes it as pretty-printed JSON.
// A missing record yields *RecordNotFoundError.
func GetRecord(ctx context.Context, h Hydrator, kind record.Kind, id string, w io.Writer) error {
	r, err := h.HydrateOne(ctx, kind, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &RecordNotFoundError{Kind: kind, ID: id}
		}
		return err
	}

	if err := FormatSingleJSON(w, r); err != nil {
		return fmt.Errorf("failed to format record: %w", err)
	}

	return nil
}

// RecordNotFoundError represents a specific "record not found" error.
// This allows callers to distinguish not-found errors from other failures.
type RecordNotFoundError struct {
	Kind record.Kind
	ID   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Kind.Noun(), e.ID)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == store.ErrNotFound
}

// IsNotFound returns true if the error is a RecordNotFoundError.
func IsNotFound(err error) bool {
	var nf *RecordNotFoundError
	return errors.As(err, &nf)
}
