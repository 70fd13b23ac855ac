package optimistic

import (
	"errors"
	"fmt"

	"github.com/dyluth/teamboard/pkg/record"
)

var (
	// ErrConfirmationFailed is matched by every *ConfirmationError.
	ErrConfirmationFailed = errors.New("confirmation failed")
	// ErrTransitionPending means the record already has an unresolved transition.
	ErrTransitionPending = errors.New("transition already pending")
	// ErrStatusMismatch means the caller's view of the current status is stale.
	ErrStatusMismatch = errors.New("status mismatch")
)

// ConfirmationError reports a rejected transition. Reason is the backend's
// error text, surfaced verbatim.
type ConfirmationError struct {
	RecordID string
	Status   record.Status
	Reason   string
	Err      error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation of %s -> %q failed: %s", e.RecordID, e.Status, e.Reason)
}

func (e *ConfirmationError) Is(target error) bool {
	return target == ErrConfirmationFailed
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}
