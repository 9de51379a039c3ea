// Package timer provides the cooperative countdown that drives timed session
// expiry. Emission and cancellation are serialized on one mutex: a tick that
// loses the race to Cancel is dropped, so callbacks never fire after Cancel
// returns.
package timer

import (
	"sync"
	"time"
)

type Option func(*Countdown)

// WithInterval overrides the one-second tick, for tests.
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) { c.interval = d }
}

type Countdown struct {
	mu        sync.Mutex
	interval  time.Duration
	remaining int
	cancelled bool
	expired   bool
	stopc     chan struct{}
	onTick    func(remaining int)
	onExpire  func()
}

// Start begins emitting onTick(remaining) once per interval, remaining
// strictly decreasing from seconds-1 down to 0. When remaining hits 0,
// onExpire fires exactly once and the countdown stops. Both callbacks are
// invoked with the countdown lock held; they must not call Cancel.
func Start(seconds int, onTick func(int), onExpire func(), opts ...Option) *Countdown {
	c := &Countdown{
		interval:  time.Second,
		remaining: seconds,
		stopc:     make(chan struct{}),
		onTick:    onTick,
		onExpire:  onExpire,
	}
	for _, o := range opts {
		o(c)
	}
	go c.run()
	return c
}

func (c *Countdown) run() {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-c.stopc:
			return
		case <-t.C:
			c.mu.Lock()
			if c.cancelled || c.expired {
				c.mu.Unlock()
				return
			}
			c.remaining--
			rem := c.remaining
			if c.onTick != nil {
				c.onTick(rem)
			}
			if rem <= 0 {
				c.expired = true
				if c.onExpire != nil {
					c.onExpire()
				}
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}

// Cancel stops the countdown. Idempotent; safe to call after expiry. Once it
// returns, no further callback will fire.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled || c.expired {
		return
	}
	c.cancelled = true
	close(c.stopc)
}

// Remaining reports the seconds left as of the last tick.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Done reports whether the countdown has expired or been cancelled.
func (c *Countdown) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled || c.expired
}
