package clientsync

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is the client's advisory round timer. It drives the on-screen
// counter only; the authoritative timer lives in the server's room session,
// and expiry here never reveals anything.
type Countdown struct {
	clock    clockwork.Clock
	onExpire func()

	mu       sync.Mutex
	timer    clockwork.Timer
	deadline time.Time
	running  bool
}

// NewCountdown creates a countdown. onExpire may be nil; when set it fires
// once per Start, on the countdown's own goroutine.
func NewCountdown(clock clockwork.Clock, onExpire func()) *Countdown {
	return &Countdown{clock: clock, onExpire: onExpire}
}

// Start arms the countdown for d. A non-positive d is a no-op: a snapshot of
// an already-expired round must not start a countdown. Restarting replaces
// any running countdown.
func (c *Countdown) Start(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if d <= 0 {
		c.running = false
		return
	}
	c.deadline = c.clock.Now().Add(d)
	c.running = true
	c.timer = c.clock.AfterFunc(d, c.expire)
}

// Stop cancels the countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = false
}

// Running reports whether a countdown is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Remaining returns the time left, or zero when not running.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0
	}
	if remaining := c.deadline.Sub(c.clock.Now()); remaining > 0 {
		return remaining
	}
	return 0
}

func (c *Countdown) expire() {
	c.mu.Lock()
	c.running = false
	c.timer = nil
	c.mu.Unlock()
	if c.onExpire != nil {
		c.onExpire()
	}
}

// SnapshotRemaining computes the countdown a late joiner should run:
// max(0, roundDuration - elapsedSinceQuestionSent). Both inputs are unix
// millisecond values from the sync-game-state payload.
func SnapshotRemaining(questionStartedAtMS, roundDurationMS int64, now time.Time) time.Duration {
	elapsed := now.UnixMilli() - questionStartedAtMS
	remainingMS := roundDurationMS - elapsed
	if remainingMS <= 0 {
		return 0
	}
	return time.Duration(remainingMS) * time.Millisecond
}
