package assessment

import (
	"sync"
	"time"
)

// TimeSource abstracts wall-clock access so the countdown can be driven
// deterministically in tests.
type TimeSource interface {
	Now() time.Time
	// At returns a channel that receives once the wall clock reaches deadline.
	At(deadline time.Time) <-chan time.Time
}

// SystemTime is the real wall clock.
type SystemTime struct{}

func (SystemTime) Now() time.Time { return time.Now() }

func (SystemTime) At(deadline time.Time) <-chan time.Time {
	return time.After(time.Until(deadline))
}

// Clock counts down a fixed budget of whole seconds.
//
// Ticks are scheduled against the start instant rather than against the
// previous tick, so a slow consumer never stretches the budget: if the
// consumer falls behind, the missed ticks are delivered back to back.
// Every tick carries a remaining value exactly one lower than the previous
// one, and Expired is closed once, right after the tick that reports zero.
type Clock struct {
	src TimeSource

	ticks   chan int
	expired chan struct{}

	stopOnce  sync.Once
	stop      chan struct{}
	startOnce sync.Once

	mu    sync.Mutex
	start time.Time
	total int
}

// NewClock creates a stopped Clock.
func NewClock(src TimeSource) *Clock {
	if src == nil {
		src = SystemTime{}
	}
	return &Clock{
		src:     src,
		ticks:   make(chan int),
		expired: make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

// Ticks delivers the remaining seconds once per elapsed second.
func (c *Clock) Ticks() <-chan int { return c.ticks }

// Expired is closed exactly once when the countdown reaches zero.
func (c *Clock) Expired() <-chan struct{} { return c.expired }

// Start begins the countdown. Only the first call has an effect.
// A negative budget is treated as zero and expires immediately.
func (c *Clock) Start(totalSeconds int) {
	c.startOnce.Do(func() {
		if totalSeconds < 0 {
			totalSeconds = 0
		}
		c.mu.Lock()
		c.start = c.src.Now()
		c.total = totalSeconds
		c.mu.Unlock()
		go c.run(c.start, totalSeconds)
	})
}

// Stop halts ticking. Safe to call any number of times, before or after expiry.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Remaining computes max(0, total - elapsed whole seconds) from the wall clock.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() {
		return c.total
	}
	elapsed := int(c.src.Now().Sub(c.start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if r := c.total - elapsed; r > 0 {
		return r
	}
	return 0
}

func (c *Clock) run(start time.Time, total int) {
	for k := 1; k <= total; k++ {
		due := start.Add(time.Duration(k) * time.Second)
		if c.src.Now().Before(due) {
			select {
			case <-c.stop:
				return
			case <-c.src.At(due):
			}
		}
		select {
		case <-c.stop:
			return
		case c.ticks <- total - k:
		}
	}

	select {
	case <-c.stop:
	default:
		close(c.expired)
	}
}
