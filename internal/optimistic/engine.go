package optimistic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dyluth/teamboard/internal/backend"
	"github.com/dyluth/teamboard/internal/notify"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
)

// Outcome is the terminal state of a transition.
type Outcome string

const (
	OutcomeNoop       Outcome = "noop"
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeRolledBack Outcome = "rolled_back"
)

// Notifier receives outcome messages. *notify.Emitter implements it.
type Notifier interface {
	Notify(message string, severity notify.Severity) notify.Notification
}

// Mutation is an applied but unresolved status transition.
type Mutation struct {
	RecordID  string
	From      record.Status
	To        record.Status
	Mode      Mode
	StartedAt time.Time
}

// Engine owns the committed collection and its shadow copy for one kind.
// The shadow copy is what callers render; it runs ahead of the committed
// collection by exactly the pending mutations.
type Engine struct {
	kind      record.Kind
	store     *store.Store
	confirmer backend.Confirmer
	policy    Policy
	notifier  Notifier

	mu        sync.Mutex
	committed record.Collection
	shadow    record.Collection
	pending   map[string]Mutation
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfirmer sets the backend asked in ModeStore. Without one, the store
// write alone confirms a transition.
func WithConfirmer(c backend.Confirmer) Option {
	return func(e *Engine) { e.confirmer = c }
}

// WithPolicy sets the confirmation policy. Default: UniformPolicy(ModeStore).
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithNotifier sets where outcome messages go. Default: discarded.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// New creates an engine over a hydrated collection.
func New(kind record.Kind, st *store.Store, committed record.Collection, opts ...Option) (*Engine, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if err := committed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s collection: %w", kind, err)
	}

	e := &Engine{
		kind:      kind,
		store:     st,
		policy:    UniformPolicy(ModeStore),
		committed: committed.Clone(),
		shadow:    committed.Clone(),
		pending:   make(map[string]Mutation),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Kind returns the record kind the engine manages.
func (e *Engine) Kind() record.Kind {
	return e.kind
}

// Snapshot returns a copy of the shadow collection, including speculative state.
func (e *Engine) Snapshot() record.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shadow.Clone()
}

// Committed returns a copy of the last confirmed collection.
func (e *Engine) Committed() record.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed.Clone()
}

// CommittedRecord returns the last confirmed state of one record, without
// any pending transition applied.
func (e *Engine) CommittedRecord(id string) (record.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.committed.Find(id)
	if !ok {
		return record.Record{}, e.notFound(id)
	}
	return r.Clone(), nil
}

// Record returns the shadow view of one record.
func (e *Engine) Record(id string) (record.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.shadow.Find(id)
	if !ok {
		return record.Record{}, e.notFound(id)
	}
	return r.Clone(), nil
}

// Pending returns the unresolved mutation for id, if any.
func (e *Engine) Pending(id string) (Mutation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.pending[id]
	return m, ok
}

// PendingIDs returns the ids with unresolved mutations, sorted.
func (e *Engine) PendingIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.pending))
}

// Transition moves a record from one status to another optimistically.
//
// The shadow copy changes immediately. The transition is then confirmed
// according to the policy. On success the committed collection adopts the
// status; on failure the shadow copy is rebuilt from the committed collection
// and a *ConfirmationError is returned alongside OutcomeRolledBack.
//
// An empty from means "whatever the record currently shows". A transition
// to the status the record already has, or where from equals to, is a no-op
// and emits nothing, even when from is stale.
func (e *Engine) Transition(ctx context.Context, id string, from, to record.Status) (Outcome, error) {
	if err := record.ValidateStatus(e.kind, to); err != nil {
		return "", err
	}

	e.mu.Lock()
	i := e.shadow.Index(id)
	if i < 0 {
		e.mu.Unlock()
		return "", e.notFound(id)
	}
	current := e.shadow[i]

	if from == "" {
		from = current.Status()
	}
	if from == to || current.Status() == to {
		e.mu.Unlock()
		return OutcomeNoop, nil
	}
	if _, busy := e.pending[id]; busy {
		e.mu.Unlock()
		e.logEvent("transition_rejected", map[string]interface{}{
			"record_id": id,
			"to":        to,
			"reason":    "pending",
		})
		return "", fmt.Errorf("%s %q: %w", e.kind.Noun(), id, ErrTransitionPending)
	}
	if from != current.Status() {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %s %q is %q, not %q", ErrStatusMismatch, e.kind.Noun(), id, current.Status(), from)
	}

	m := Mutation{
		RecordID:  id,
		From:      from,
		To:        to,
		Mode:      e.policy(current),
		StartedAt: time.Now(),
	}
	e.shadow[i] = current.With(map[string]any{record.FieldStatus: string(to)})
	e.pending[id] = m
	e.mu.Unlock()

	e.logEvent("transition_applied", map[string]interface{}{
		"record_id": id,
		"from":      from,
		"to":        to,
		"mode":      m.Mode,
	})

	err := e.confirm(ctx, m)
	name := current.DisplayName()

	e.mu.Lock()
	delete(e.pending, id)
	if err == nil {
		if j := e.committed.Index(id); j >= 0 {
			e.committed[j] = e.committed[j].With(map[string]any{record.FieldStatus: string(to)})
		}
		e.rebuildShadow()
		e.mu.Unlock()

		e.logEvent("transition_confirmed", map[string]interface{}{
			"record_id":   id,
			"to":          to,
			"mode":        m.Mode,
			"duration_ms": time.Since(m.StartedAt).Milliseconds(),
		})
		e.notify(fmt.Sprintf("%s %q moved to %s", e.kind.Noun(), name, to), notify.SeveritySuccess)
		return OutcomeConfirmed, nil
	}

	e.rebuildShadow()
	e.mu.Unlock()

	cerr := &ConfirmationError{RecordID: id, Status: to, Reason: err.Error(), Err: err}
	e.logEvent("transition_rolled_back", map[string]interface{}{
		"record_id": id,
		"to":        to,
		"mode":      m.Mode,
		"reason":    cerr.Reason,
	})
	e.notify(fmt.Sprintf("Failed to move %s %q: %s", strings.ToLower(e.kind.Noun()), name, cerr.Reason), notify.SeverityError)
	return OutcomeRolledBack, cerr
}

func (e *Engine) confirm(ctx context.Context, m Mutation) error {
	if m.Mode != ModeStore {
		return nil
	}
	if e.confirmer != nil {
		if err := e.confirmer.Confirm(ctx, m.RecordID, m.To); err != nil {
			return err
		}
	}
	return e.store.UpsertField(ctx, e.kind, m.RecordID, record.FieldStatus, string(m.To))
}

// rebuildShadow resets the shadow copy to the committed collection and
// re-applies every mutation still pending. Caller holds mu.
func (e *Engine) rebuildShadow() {
	e.shadow = e.committed.Clone()
	for id, m := range e.pending {
		if i := e.shadow.Index(id); i >= 0 {
			e.shadow[i] = e.shadow[i].With(map[string]any{record.FieldStatus: string(m.To)})
		}
	}
}

// CommitFields persists a partial field update for one record and merges it
// into both the committed collection and the shadow copy. Status changes
// must go through Transition.
func (e *Engine) CommitFields(ctx context.Context, id string, fields map[string]any) (record.Record, error) {
	if _, ok := fields[record.FieldStatus]; ok {
		return record.Record{}, fmt.Errorf("field %q cannot be edited directly; use a transition", record.FieldStatus)
	}
	if _, ok := fields[record.FieldID]; ok {
		return record.Record{}, fmt.Errorf("field %q cannot be edited", record.FieldID)
	}

	e.mu.Lock()
	_, ok := e.committed.Find(id)
	e.mu.Unlock()
	if !ok {
		return record.Record{}, e.notFound(id)
	}

	if err := e.store.UpsertFields(ctx, e.kind, id, fields); err != nil {
		return record.Record{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	j := e.committed.Index(id)
	if j < 0 {
		return record.Record{}, e.notFound(id)
	}
	e.committed[j] = e.committed[j].With(fields)
	e.rebuildShadow()

	e.logEvent("fields_committed", map[string]interface{}{
		"record_id": id,
		"fields":    slices.Sorted(maps.Keys(fields)),
	})

	return e.committed[j].Clone(), nil
}

func (e *Engine) notFound(id string) error {
	return fmt.Errorf("%s %q: %w", e.kind.Noun(), id, store.ErrNotFound)
}

func (e *Engine) notify(message string, severity notify.Severity) {
	if e.notifier != nil {
		e.notifier.Notify(message, severity)
	}
}

// logEvent writes one structured JSON line per state-machine event.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "engine"
	data["event_type"] = eventType
	data["kind"] = e.kind
	data["instance"] = e.store.InstanceName()

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Engine] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
