package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/teamboard/internal/notify"
	"github.com/fatih/color"
)

// OutputFormat specifies how streamed notifications are written.
type OutputFormat string

const (
	// OutputFormatDefault prints one human-readable line per notification
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON prints one JSON object per line
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatDefault, OutputFormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// Source is a live feed of notifications. *notify.Subscription implements it.
type Source interface {
	Events() <-chan notify.Notification
	Errors() <-chan error
}

// StreamNotifications writes notifications from sub until ctx ends, the
// subscription closes, or limit notifications have been written (limit <= 0
// means no limit). Subscription errors are written inline and do not stop
// the stream.
func StreamNotifications(ctx context.Context, sub Source, format OutputFormat, limit int, w io.Writer) error {
	written := 0
	events, errs := sub.Events(), sub.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)

		case n, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeNotification(w, n, format); err != nil {
				return err
			}
			written++
			if limit > 0 && written >= limit {
				return nil
			}
		}
	}
}

func writeNotification(w io.Writer, n notify.Notification, format OutputFormat) error {
	if format == OutputFormatJSON {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to marshal notification: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	_, err := fmt.Fprintln(w, formatNotification(n))
	return err
}

// formatNotification renders "[15:04:05] ✓ message" or "[15:04:05] ✗ message".
func formatNotification(n notify.Notification) string {
	ts := n.At.Local().Format(time.TimeOnly)
	if n.Severity == notify.SeverityError {
		return fmt.Sprintf("[%s] %s %s", ts, color.RedString("✗"), n.Message)
	}
	return fmt.Sprintf("[%s] %s %s", ts, color.GreenString("✓"), n.Message)
}
