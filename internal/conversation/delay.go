package conversation

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTypingDelay is the pause between a user message and the bot reply.
const DefaultTypingDelay = 1500 * time.Millisecond

const (
	pendingWaiting int32 = iota
	pendingFired
	pendingCancelled
)

// Delayer runs callbacks after a fixed delay measured from scheduling time.
type Delayer struct {
	delay time.Duration
	clock clockwork.Clock
}

// NewDelayer returns a Delayer using clock, or the real clock when nil.
// Negative delays are treated as zero.
func NewDelayer(delay time.Duration, clock clockwork.Clock) *Delayer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay < 0 {
		delay = 0
	}
	return &Delayer{delay: delay, clock: clock}
}

// Delay returns the configured delay.
func (d *Delayer) Delay() time.Duration {
	return d.delay
}

// Pending is the cancellation handle of a scheduled callback.
type Pending struct {
	timer clockwork.Timer
	state atomic.Int32
}

// Schedule arranges for fn to run once on its own goroutine after the delay.
func (d *Delayer) Schedule(fn func()) *Pending {
	p := &Pending{}
	p.timer = d.clock.AfterFunc(d.delay, func() {
		if p.state.CompareAndSwap(pendingWaiting, pendingFired) {
			go fn()
		}
	})
	return p
}

// Cancel prevents the callback from running. It reports false when the
// callback already started or the handle was cancelled before.
func (p *Pending) Cancel() bool {
	if p == nil || !p.state.CompareAndSwap(pendingWaiting, pendingCancelled) {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	return true
}

// Fired reports whether the callback was started.
func (p *Pending) Fired() bool {
	return p != nil && p.state.Load() == pendingFired
}
