package filter

import (
	"strings"

	"github.com/dyluth/teamboard/pkg/record"
)

// Criteria defines filtering criteria for records.
// All filters are ANDed together - a record must match ALL criteria to pass.
type Criteria struct {
	Status       record.Status     // Exact status match, empty = no filter
	Fields       map[string]string // Exact, case-insensitive field matches, e.g. department=Sales
	NameContains string            // Case-insensitive substring of the display name, empty = no filter
}

// Matches returns true if the record matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(r record.Record) bool {
	if c == nil {
		return true
	}

	if c.Status != "" && r.Status() != c.Status {
		return false
	}

	for field, want := range c.Fields {
		if !strings.EqualFold(r.String(field), want) {
			return false
		}
	}

	if c.NameContains != "" &&
		!strings.Contains(strings.ToLower(r.DisplayName()), strings.ToLower(c.NameContains)) {
		return false
	}

	return true
}

// Apply returns the records that match, preserving collection order.
func (c *Criteria) Apply(coll record.Collection) record.Collection {
	out := make(record.Collection, 0, len(coll))
	for _, r := range coll {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c != nil && (c.Status != "" || len(c.Fields) > 0 || c.NameContains != "")
}

// ParseField splits a key=value filter argument.
func ParseField(arg string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
