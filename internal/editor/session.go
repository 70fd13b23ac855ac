package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"sync"

	"github.com/dyluth/teamboard/pkg/record"
)

const (
	ConfirmTitle   = "Confirm Changes"
	ConfirmMessage = "Are you sure you want to save these changes?"
)

var (
	// ErrNotEditing is returned by draft and save operations outside an edit.
	ErrNotEditing = errors.New("no edit in progress")
	// ErrFieldNotEditable is returned for fields outside the session's editable set.
	ErrFieldNotEditable = errors.New("field is not editable")
)

// DefaultFields are the employee profile fields open to editing.
var DefaultFields = []string{"phone", "telegram"}

// Dialog asks the user to confirm an action.
type Dialog interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// DialogFunc adapts a function to the Dialog interface.
type DialogFunc func(ctx context.Context, title, message string) (bool, error)

func (f DialogFunc) Confirm(ctx context.Context, title, message string) (bool, error) {
	return f(ctx, title, message)
}

// Committer reads the committed record and persists a partial field update.
// *optimistic.Engine implements it.
type Committer interface {
	CommittedRecord(id string) (record.Record, error)
	CommitFields(ctx context.Context, id string, fields map[string]any) (record.Record, error)
}

// Session is a draft of editable fields for one record.
// Nothing reaches the committed record until the user confirms the save.
type Session struct {
	committer Committer
	dialog    Dialog
	fields    []string

	mu       sync.Mutex
	editing  bool
	recordID string
	original map[string]string
	drafts   map[string]string
}

// Option configures a Session.
type Option func(*Session)

// WithFields overrides the editable field set.
func WithFields(fields ...string) Option {
	return func(s *Session) { s.fields = slices.Clone(fields) }
}

// NewSession creates an idle session.
func NewSession(committer Committer, dialog Dialog, opts ...Option) *Session {
	s := &Session{
		committer: committer,
		dialog:    dialog,
		fields:    slices.Clone(DefaultFields),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginEdit seeds drafts from the committed record. Absent fields seed
// as "". Starting a new edit discards any previous draft.
func (s *Session) BeginEdit(id string) error {
	r, err := s.committer.CommittedRecord(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordID = id
	s.seed(r)
	s.editing = true
	return nil
}

// seed sets drafts and their baseline to r's editable values. Caller holds mu.
func (s *Session) seed(r record.Record) {
	values := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		values[f] = r.String(f)
	}
	s.original = values
	s.drafts = maps.Clone(values)
}

// IsEditing reports whether an edit is in progress.
func (s *Session) IsEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// RecordID returns the id under edit, or "".
func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// SetDraft changes one draft value.
func (s *Session) SetDraft(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editing {
		return ErrNotEditing
	}
	if !slices.Contains(s.fields, field) {
		return fmt.Errorf("%w: %q (editable: %v)", ErrFieldNotEditable, field, s.fields)
	}
	s.drafts[field] = value
	return nil
}

// Draft returns one draft value. After a save or cancel it returns the
// committed value; before any edit it returns ErrNotEditing.
func (s *Session) Draft(field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drafts == nil {
		return "", ErrNotEditing
	}
	v, ok := s.drafts[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrFieldNotEditable, field)
	}
	return v, nil
}

// Drafts returns a copy of every draft value.
func (s *Session) Drafts() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.drafts)
}

// Changed returns the draft values that differ from the seeded ones.
func (s *Session) Changed() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make(map[string]string)
	for f, v := range s.drafts {
		if s.original[f] != v {
			changed[f] = v
		}
	}
	return changed
}

// RequestSave asks the dialog to confirm, then commits.
// A declined dialog keeps the session editing with drafts intact and
// returns (false, nil).
func (s *Session) RequestSave(ctx context.Context) (bool, error) {
	if !s.IsEditing() {
		return false, ErrNotEditing
	}

	ok, err := s.dialog.Confirm(ctx, ConfirmTitle, ConfirmMessage)
	if err != nil {
		return false, fmt.Errorf("confirmation dialog failed: %w", err)
	}
	if !ok {
		log.Printf("[Editor] Save declined for %s", s.RecordID())
		return false, nil
	}

	if _, err := s.ConfirmSave(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmSave commits every draft field to the record and ends the edit.
// On a commit failure the session stays editing so the user can retry.
func (s *Session) ConfirmSave(ctx context.Context) (record.Record, error) {
	s.mu.Lock()
	if !s.editing {
		s.mu.Unlock()
		return record.Record{}, ErrNotEditing
	}
	id := s.recordID
	fields := make(map[string]any, len(s.drafts))
	for f, v := range s.drafts {
		fields[f] = v
	}
	s.mu.Unlock()

	updated, err := s.committer.CommitFields(ctx, id, fields)
	if err != nil {
		return record.Record{}, fmt.Errorf("failed to save %s: %w", id, err)
	}

	s.mu.Lock()
	s.seed(updated)
	s.editing = false
	s.mu.Unlock()

	log.Printf("[Editor] Saved %s", id)
	return updated, nil
}

// CancelEdit discards drafts and resets them to the committed record's
// current values. The committed record is untouched. Cancelling when no
// edit is in progress does nothing.
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editing {
		return nil
	}
	s.editing = false

	r, err := s.committer.CommittedRecord(s.recordID)
	if err != nil {
		s.drafts = maps.Clone(s.original)
		return err
	}
	s.seed(r)
	return nil
}
