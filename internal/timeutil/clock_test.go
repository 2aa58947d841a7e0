package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock(t *testing.T) {
	t.Parallel()

	clock := RealClock{}
	start := clock.Now()
	assert.False(t, start.IsZero())
	assert.GreaterOrEqual(t, clock.Since(start), time.Duration(0))

	ticker := clock.NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}

func TestMockClockNowAndSet(t *testing.T) {
	t.Parallel()

	epoch := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(epoch)
	assert.Equal(t, epoch, clock.Now())

	later := epoch.Add(time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
	assert.Equal(t, time.Hour, clock.Since(epoch))
}

func TestMockClockAdvanceFiresTickers(t *testing.T) {
	t.Parallel()

	epoch := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(2 * time.Second)
	defer ticker.Stop()

	clock.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	clock.Advance(time.Second)
	select {
	case tick := <-ticker.C():
		assert.Equal(t, epoch.Add(2*time.Second), tick)
	default:
		t.Fatal("ticker did not fire at its interval")
	}
}

func TestMockTickerStop(t *testing.T) {
	t.Parallel()

	clock := NewMockClock(time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Second)
	ticker.Stop()

	clock.Advance(time.Minute)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerTrigger(t *testing.T) {
	t.Parallel()

	clock := NewMockClock(time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Hour)
	defer ticker.Stop()

	mt, ok := ticker.(*MockTicker)
	require.True(t, ok)

	now := clock.Now()
	mt.Trigger(now)
	select {
	case tick := <-ticker.C():
		assert.Equal(t, now, tick)
	default:
		t.Fatal("manual trigger did not deliver a tick")
	}

	// A second trigger with no consumer must not block.
	mt.Trigger(now)
	mt.Trigger(now)
}
