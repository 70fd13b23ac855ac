package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultDelay is the gap between dismissing one notification and showing the next.
const DefaultDelay = 100 * time.Millisecond

// Severity classifies an outcome notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Validate checks the severity is one of the known values.
func (s Severity) Validate() error {
	switch s {
	case SeveritySuccess, SeverityError:
		return nil
	default:
		return fmt.Errorf("invalid severity: %q", s)
	}
}

// Notification is a single transient outcome message.
// ID is unique per notification so pub/sub consumers can de-duplicate.
type Notification struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
}

// NewNotification stamps a message with a fresh id and the current time.
func NewNotification(message string, severity Severity) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: severity,
		At:       time.Now().UTC(),
	}
}
