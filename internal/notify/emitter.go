package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sink displays notifications. Only one is visible at a time: Show replaces
// the visible slot and Dismiss empties it.
type Sink interface {
	Show(n Notification)
	Dismiss()
}

// Emitter drives a single-slot Sink.
// Notify dismisses whatever is visible and shows the new notification after
// Delay. A call made while another is still scheduled supersedes it, so a
// rapid burst shows only the last message.
type Emitter struct {
	sink  Sink
	delay time.Duration

	mu      sync.Mutex
	current *Notification
	pending *Notification
	gen     uint64
	timer   *time.Timer
	settled chan struct{}
	closed  bool
}

// NewEmitter creates an emitter. A non-positive delay falls back to DefaultDelay.
func NewEmitter(sink Sink, delay time.Duration) *Emitter {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Emitter{
		sink:  sink,
		delay: delay,
	}
}

// Notify schedules a notification and returns it.
// After Close it returns the notification without displaying it.
func (e *Emitter) Notify(message string, severity Severity) Notification {
	n := NewNotification(message, severity)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return n
	}

	if e.current != nil {
		e.sink.Dismiss()
		e.current = nil
	}

	if e.timer != nil {
		e.timer.Stop()
		log.Printf("[Notify] Superseded scheduled notification %s", e.pending.ID)
	}
	if e.settled == nil {
		e.settled = make(chan struct{})
	}

	e.gen++
	gen := e.gen
	e.pending = &n
	e.timer = time.AfterFunc(e.delay, func() { e.show(gen) })

	return n
}

func (e *Emitter) show(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen || e.pending == nil {
		return
	}

	n := *e.pending
	e.current = &n
	e.pending = nil
	e.timer = nil
	e.sink.Show(n)
	e.settle()
}

// settle releases Flush waiters. Caller holds mu.
func (e *Emitter) settle() {
	if e.settled != nil {
		close(e.settled)
		e.settled = nil
	}
}

// Current returns the visible notification, if any.
func (e *Emitter) Current() (Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Notification{}, false
	}
	return *e.current, true
}

// Flush blocks until no notification is scheduled.
func (e *Emitter) Flush(ctx context.Context) error {
	e.mu.Lock()
	ch := e.settled
	e.mu.Unlock()

	if ch == nil {
		return nil
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops any scheduled notification and stops further display.
// Safe to call multiple times.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pending = nil
	e.settle()
	return nil
}
