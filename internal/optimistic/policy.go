package optimistic

import (
	"fmt"
	"slices"

	"github.com/dyluth/teamboard/pkg/record"
)

// Mode selects how a status transition is confirmed.
type Mode string

const (
	// ModeStore asks the confirmation backend, then persists the new status
	// to the durable store. Only then does the committed collection change.
	ModeStore Mode = "store"
	// ModeShared treats the client as authoritative: the committed
	// collection adopts the status in memory and nothing is persisted.
	ModeShared Mode = "shared"
)

// ParseMode converts a config or flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeStore, ModeShared:
		return m, nil
	default:
		return "", fmt.Errorf("invalid confirmation mode: %q (valid: %s, %s)", s, ModeStore, ModeShared)
	}
}

// Policy picks the confirmation mode for a record.
type Policy func(r record.Record) Mode

// UniformPolicy confirms every record the same way.
func UniformPolicy(mode Mode) Policy {
	return func(record.Record) Mode { return mode }
}

// IDPolicy uses mode for the listed ids and fallback for everything else.
func IDPolicy(ids []string, mode, fallback Mode) Policy {
	ids = slices.Clone(ids)
	return func(r record.Record) Mode {
		if slices.Contains(ids, r.ID) {
			return mode
		}
		return fallback
	}
}
