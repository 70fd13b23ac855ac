package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
	"golang.org/x/sync/singleflight"
)

// DefaultDelay models network latency on the cold path.
const DefaultDelay = time.Second

// ErrLoadFailure is the error kind for an unreachable or malformed source.
// Load failures are not retried automatically.
var ErrLoadFailure = errors.New("load failure")

// LoadError carries the collection kind that failed to hydrate.
// It matches both ErrLoadFailure and the underlying cause with errors.Is.
type LoadError struct {
	Kind record.Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("Error fetching %s: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailure, e.Err}
}

// Loader hydrates record collections into the store on first access.
//
// Warm path: the store already holds the collection and it is returned
// immediately. Cold path: after Delay the source is fetched, validated,
// saved and returned. At most one hydration per kind is in flight; concurrent
// callers share its result.
type Loader struct {
	store  *store.Store
	source Source
	delay  time.Duration

	group       singleflight.Group
	coldFetches atomic.Int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithDelay sets the simulated cold-path latency.
func WithDelay(d time.Duration) Option {
	return func(l *Loader) {
		l.delay = d
	}
}

// New creates a loader reading from source and caching into st.
func New(st *store.Store, source Source, opts ...Option) *Loader {
	l := &Loader{
		store:  st,
		source: source,
		delay:  DefaultDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ColdFetches returns how many times the external source has been fetched.
func (l *Loader) ColdFetches() int64 {
	return l.coldFetches.Load()
}

// Hydrate returns the collection for kind, fetching it from the source on a cold start.
//
// The shared hydration is detached from the caller's context so one caller
// giving up does not fail the others; a caller whose context ends stops
// waiting and gets ctx.Err().
func (l *Loader) Hydrate(ctx context.Context, kind record.Kind) (record.Collection, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	results := l.group.DoChan(string(kind), func() (any, error) {
		return l.hydrate(detached, kind)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing one flight each get their own copy.
		return res.Val.(record.Collection).Clone(), nil
	}
}

// HydrateOne hydrates the full collection and selects one record by id.
// Returns an error matching store.ErrNotFound if the id is absent.
func (l *Loader) HydrateOne(ctx context.Context, kind record.Kind, id string) (record.Record, error) {
	coll, err := l.Hydrate(ctx, kind)
	if err != nil {
		return record.Record{}, err
	}

	r, ok := coll.Find(id)
	if !ok {
		return record.Record{}, fmt.Errorf("%s %q: %w", kind.Noun(), id, store.ErrNotFound)
	}
	return r, nil
}

func (l *Loader) hydrate(ctx context.Context, kind record.Kind) (record.Collection, error) {
	coll, err := l.store.Load(ctx, kind)
	if err == nil {
		log.Printf("[Loader] Warm start for %s (%d records)", kind, len(coll))
		return coll, nil
	}
	if !store.IsNotFound(err) {
		return nil, &LoadError{Kind: kind, Err: err}
	}

	l.coldFetches.Add(1)
	log.Printf("[Loader] Cold start for %s, fetching from source", kind)

	if l.delay > 0 {
		timer := time.NewTimer(l.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &LoadError{Kind: kind, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	coll, err = l.source.Fetch(ctx, kind)
	if err != nil {
		log.Printf("[Loader] Fetch failed for %s: %v", kind, err)
		return nil, &LoadError{Kind: kind, Err: err}
	}
	if coll == nil {
		coll = record.Collection{}
	}
	if err := coll.Validate(); err != nil {
		return nil, &LoadError{Kind: kind, Err: fmt.Errorf("malformed source data: %w", err)}
	}

	if err := l.store.Save(ctx, kind, coll); err != nil {
		return nil, &LoadError{Kind: kind, Err: err}
	}

	log.Printf("[Loader] Hydrated %s with %d records", kind, len(coll))
	return coll, nil
}
