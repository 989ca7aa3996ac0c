// Package pricing supplies price ticks to the aggregator.
package pricing

import (
	"context"
	"sync"
	"time"
)

// TickSource produces the next price tick. Sources that run out return
// io.EOF.
type TickSource interface {
	Next(ctx context.Context) (Tick, error)
}

// Tick is a single observed price. A zero Time means "now" to the consumer.
type Tick struct {
	Time  time.Time
	Price float64
}

// Scripted reports whether the tick carries its own timestamp.
func (t Tick) Scripted() bool {
	return !t.Time.IsZero()
}

// TickStore keeps the latest tick seen per chart session.
type TickStore struct {
	mu    sync.RWMutex
	last  Tick
	count int
}

func NewTickStore() *TickStore {
	return &TickStore{}
}

func (ts *TickStore) Set(t Tick) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.last = t
	ts.count++
}

// Last returns the latest tick and whether any tick has been stored.
func (ts *TickStore) Last() (Tick, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.last, ts.count > 0
}

// Count returns how many ticks have been stored.
func (ts *TickStore) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.count
}
