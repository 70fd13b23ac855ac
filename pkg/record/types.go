package record

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"
)

// Well-known field names.
const (
	FieldID     = "id"
	FieldStatus = "status"
	FieldTitle  = "title"
	FieldName   = "name"
)

// ErrInvalidStatus is returned when a status is not part of a kind's workflow.
var ErrInvalidStatus = errors.New("invalid status")

// Kind identifies a record collection type.
// Each kind is persisted and hydrated independently.
type Kind string

const (
	// KindEmployees is the team member collection
	KindEmployees Kind = "employees"

	// KindTasks is the task board collection
	KindTasks Kind = "tasks"
)

// Kinds lists every known collection type in a stable order.
func Kinds() []Kind {
	return []Kind{KindEmployees, KindTasks}
}

// Validate checks if the Kind is a known collection type.
func (k Kind) Validate() error {
	switch k {
	case KindEmployees, KindTasks:
		return nil
	default:
		return fmt.Errorf("unknown record kind: %q", k)
	}
}

// Noun returns the singular display noun for records of this kind ("Task", "Employee").
func (k Kind) Noun() string {
	switch k {
	case KindEmployees:
		return "Employee"
	case KindTasks:
		return "Task"
	default:
		return "Record"
	}
}

// ParseKind converts user input ("task", "Tasks", "employees") into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "employees", "employee", "team":
		return KindEmployees, nil
	case "tasks", "task", "board":
		return KindTasks, nil
	default:
		return "", fmt.Errorf("unknown record kind: %q (expected 'employees' or 'tasks')", s)
	}
}

// Status is a workflow state value, e.g. "To Do" or "Active".
type Status string

// Record is a single domain entity (employee or task).
// Field values are treated as immutable scalars; Clone copies the field map only.
type Record struct {
	ID     string
	Fields map[string]any
}

// New creates a record with a copy of the given fields.
// An "id" entry in fields is ignored in favour of the id argument.
func New(id string, fields map[string]any) Record {
	f := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == FieldID {
			continue
		}
		f[k] = v
	}
	return Record{ID: id, Fields: f}
}

// Get returns a field value and whether it is present.
func (r Record) Get(field string) (any, bool) {
	if field == FieldID {
		return r.ID, true
	}
	v, ok := r.Fields[field]
	return v, ok
}

// String returns a field as a string, or "" if absent or not a string.
func (r Record) String(field string) string {
	v, ok := r.Get(field)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Status returns the record's workflow status.
func (r Record) Status() Status {
	return Status(r.String(FieldStatus))
}

// DisplayName returns the human label for notifications: title, then name, then id.
func (r Record) DisplayName() string {
	if t := r.String(FieldTitle); t != "" {
		return t
	}
	if n := r.String(FieldName); n != "" {
		return n
	}
	return r.ID
}

// Clone returns a copy whose field map can be mutated independently.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Fields: maps.Clone(r.Fields)}
}

// With returns a copy of the record with the given fields overwritten.
func (r Record) With(fields map[string]any) Record {
	c := r.Clone()
	if c.Fields == nil {
		c.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if k == FieldID {
			continue
		}
		c.Fields[k] = v
	}
	return c
}

// Equal reports whether two records have the same id and fields.
func (r Record) Equal(other Record) bool {
	if r.ID != other.ID || len(r.Fields) != len(other.Fields) {
		return false
	}
	if len(r.Fields) == 0 {
		return true
	}
	return reflect.DeepEqual(r.Fields, other.Fields)
}

// Collection is an ordered sequence of records keyed by id.
type Collection []Record

// Clone returns a deep-enough copy: a new slice of cloned records.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, r := range c {
		out[i] = r.Clone()
	}
	return out
}

// Index returns the position of the record with the given id, or -1.
func (c Collection) Index(id string) int {
	for i, r := range c {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the record with the given id.
func (c Collection) Find(id string) (Record, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return Record{}, false
}

// IDs returns record ids in collection order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i, r := range c {
		ids[i] = r.ID
	}
	return ids
}

// Equal reports whether two collections hold equal records in the same order.
func (c Collection) Equal(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Validate checks that every record has a non-empty id and that ids are unique.
func (c Collection) Validate() error {
	seen := make(map[string]int, len(c))
	for i, r := range c {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("record at index %d has an empty id", i)
		}
		if prev, dup := seen[r.ID]; dup {
			return fmt.Errorf("duplicate record id %q at index %d (first seen at %d)", r.ID, i, prev)
		}
		seen[r.ID] = i
	}
	return nil
}
