// Package clock abstracts time for timeouts and reconnect backoff so tests can
// drive them deterministically.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock is the time source used by the engine.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer. C fires once when the timer expires.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Real returns the wall clock.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{time.NewTimer(d)}
}

type realTimer struct {
	t *time.Timer
}

func (t realTimer) C() <-chan time.Time { return t.t.C }
func (t realTimer) Stop() bool          { return t.t.Stop() }

// Manual is a Clock that only moves when Advance is called.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManual returns a manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) NewTimer(d time.Duration) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{
		clock:    m,
		deadline: m.now.Add(d),
		c:        make(chan time.Time, 1),
	}
	if d <= 0 {
		t.fire(m.now)
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward and fires every timer that expired.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.deadline.After(m.now) {
			t.fire(m.now)
			continue
		}
		kept = append(kept, t)
	}
	clear(m.timers[len(kept):])
	m.timers = kept
}

// Timers returns the number of timers waiting to fire.
func (m *Manual) Timers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) remove(t *manualTimer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

type manualTimer struct {
	clock    *Manual
	deadline time.Time
	c        chan time.Time
	fired    atomic.Bool
}

func (t *manualTimer) fire(now time.Time) {
	if t.fired.CompareAndSwap(false, true) {
		t.c <- now
	}
}

func (t *manualTimer) C() <-chan time.Time { return t.c }

func (t *manualTimer) Stop() bool {
	return t.clock.remove(t)
}
