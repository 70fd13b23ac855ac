package backend

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/dyluth/teamboard/pkg/record"
)

// DefaultFailureReason is used when a simulated rejection has no configured reason.
const DefaultFailureReason = "server rejected the update"

// Confirmer is the authoritative confirmation backend for status transitions.
// A nil error confirms the transition. Any error rejects it; the error text is
// surfaced verbatim to the user.
type Confirmer interface {
	Confirm(ctx context.Context, id string, status record.Status) error
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, id string, status record.Status) error

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, id string, status record.Status) error {
	return f(ctx, id, status)
}

// Simulated is a stand-in for a remote task service.
// It waits Latency, then rejects transitions for FailIDs, or randomly at
// FailureRate, with FailureReason as the error text.
type Simulated struct {
	Latency       time.Duration
	FailureRate   float64
	FailureReason string
	FailIDs       []string

	mu    sync.Mutex
	calls []Call
}

// Call records one confirmation request.
type Call struct {
	ID     string
	Status record.Status
	Err    error
}

// NewSimulated creates a simulated backend.
func NewSimulated(latency time.Duration, failureRate float64, failureReason string) *Simulated {
	return &Simulated{
		Latency:       latency,
		FailureRate:   failureRate,
		FailureReason: failureReason,
	}
}

// Confirm waits for the simulated latency and then accepts or rejects.
func (s *Simulated) Confirm(ctx context.Context, id string, status record.Status) error {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	var err error
	if slices.Contains(s.FailIDs, id) || (s.FailureRate > 0 && rand.Float64() < s.FailureRate) {
		reason := s.FailureReason
		if reason == "" {
			reason = DefaultFailureReason
		}
		err = errors.New(reason)
		log.Printf("[Backend] Rejected %s -> %q: %s", id, status, reason)
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{ID: id, Status: status, Err: err})
	s.mu.Unlock()

	return err
}

// Calls returns every confirmation request seen so far.
func (s *Simulated) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}
