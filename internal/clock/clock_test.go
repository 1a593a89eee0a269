package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock(t *testing.T) {
	c := Real()

	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))

	timer := c.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}

	timer = c.NewTimer(time.Hour)
	assert.True(t, timer.Stop())
}

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)
	require.Equal(t, start, m.Now())

	short := m.NewTimer(time.Second)
	long := m.NewTimer(time.Minute)
	require.Equal(t, 2, m.Timers())

	m.Advance(500 * time.Millisecond)
	assertNotFired(t, short)

	m.Advance(500 * time.Millisecond)
	select {
	case at := <-short.C():
		assert.Equal(t, start.Add(time.Second), at)
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	assert.Equal(t, 1, m.Timers())
	assert.False(t, short.Stop())

	assert.True(t, long.Stop())
	m.Advance(time.Hour)
	assertNotFired(t, long)
	assert.Zero(t, m.Timers())
}

func TestManualClockImmediateTimer(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	timer := m.NewTimer(0)

	select {
	case <-timer.C():
	default:
		t.Fatal("zero duration timer should fire immediately")
	}
	assert.Zero(t, m.Timers())
}

func assertNotFired(t *testing.T, timer Timer) {
	t.Helper()
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}
}
