package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("anchor")
	assert.Equal(t, "anchor", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

func TestBreaker_OpensOnConsecutiveFailures(t *testing.T) {
	b := New("anchor", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		fallback, change := b.RecordFailure()
		assert.False(t, fallback)
		assert.False(t, change.Opened)
	}

	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())

	// further failures keep it open without another transition
	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.Equal(t, StateChange{}, change)
}

func TestBreaker_SuccessClearsFailureStreak(t *testing.T) {
	b := New("anchor", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterSuccessThreshold(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	primary, change := b.RecordSuccess()
	assert.False(t, primary)
	assert.False(t, change.Closed)

	// a failed probe restarts the success count
	b.RecordFailure()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())

	primary, change = b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CooldownGatesProbes(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("anchor", WithFailureThreshold(1), WithCooldown(30*time.Second), WithClock(clock.now))

	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.advance(29 * time.Second)
	assert.False(t, b.Allow())

	clock.advance(time.Second)
	assert.True(t, b.Allow(), "probe allowed once the cooldown elapses")

	b.RecordFailure()
	assert.False(t, b.Allow(), "failed probe restarts the cooldown")

	clock.advance(30 * time.Second)
	b.RecordSuccess()
	assert.True(t, b.Allow())
	assert.False(t, b.IsOpen())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("redis", WithFailureThreshold(1), WithCooldown(time.Hour))
	b.RecordFailure()
	assert.False(t, b.Allow())

	b.Reset()
	assert.True(t, b.Allow())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IgnoresInvalidOptions(t *testing.T) {
	b := New("x", WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(-time.Second), WithClock(nil))
	assert.Equal(t, 5, b.failureThreshold)
	assert.Equal(t, 1, b.successThreshold)
	assert.Zero(t, b.cooldown)
	assert.NotNil(t, b.now)
}
