// Package history keeps a bounded in-memory window of recent scoring
// decisions for the analytics endpoints.
package history

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of decisions retained when no explicit
// capacity is configured.
const DefaultCapacity = 100

// Entry is one recorded scoring decision.
type Entry struct {
	TransactionID  string    `json:"transactionId"`
	RiskScore      float64   `json:"riskScore"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}

// Window is a fixed-capacity ring of entries. Appends past capacity evict the
// oldest entry. Safe for concurrent use.
type Window struct {
	mu    sync.Mutex
	buf   []Entry
	next  int
	size  int
	total uint64
}

// NewWindow creates a window holding at most capacity entries. A capacity of
// zero or less uses DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]Entry, capacity)}
}

// Append records an entry, evicting the oldest when full.
func (w *Window) Append(e Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf[w.next] = e
	w.next = (w.next + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
	w.total++
}

// Snapshot returns retained entries in insertion order, oldest first.
func (w *Window) Snapshot() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Entry, 0, w.size)
	start := w.next - w.size
	if start < 0 {
		start += len(w.buf)
	}
	for i := 0; i < w.size; i++ {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}

// Len reports how many entries are currently retained.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Cap reports the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// TotalRecorded reports how many entries were appended over the window's
// lifetime, including evicted ones.
func (w *Window) TotalRecorded() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}
