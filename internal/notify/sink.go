package notify

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/fatih/color"
)

// MultiSink fans a notification out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Show(n Notification) {
	for _, s := range m {
		s.Show(n)
	}
}

func (m MultiSink) Dismiss() {
	for _, s := range m {
		s.Dismiss()
	}
}

// ConsoleSink prints notifications to a writer, colored by severity.
// Dismiss is a no-op; a terminal cannot take a line back.
type ConsoleSink struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsoleSink creates a console sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Show(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch n.Severity {
	case SeverityError:
		fmt.Fprintf(c.w, "%s %s\n", color.RedString("✗"), n.Message)
	default:
		fmt.Fprintf(c.w, "%s %s\n", color.GreenString("✓"), n.Message)
	}
}

func (c *ConsoleSink) Dismiss() {}

// Recorder keeps every Show and Dismiss call and the visible slot.
type Recorder struct {
	mu        sync.Mutex
	shown     []Notification
	visible   *Notification
	dismissed int
}

func (r *Recorder) Show(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	r.visible = &n
}

func (r *Recorder) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed++
	r.visible = nil
}

// Shown returns every notification displayed so far, oldest first.
func (r *Recorder) Shown() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.shown)
}

// Visible returns the notification currently in the slot.
func (r *Recorder) Visible() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visible == nil {
		return Notification{}, false
	}
	return *r.visible, true
}

// Dismissals returns how many times the slot was cleared.
func (r *Recorder) Dismissals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dismissed
}
