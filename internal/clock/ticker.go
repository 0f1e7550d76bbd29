package clock

import (
	"sync"
	"time"
)

// Handle is returned by Ticker.Start. Stop is safe to call more than once.
type Handle interface {
	Stop()
}

// Ticker starts periodic callbacks. It has no notion of pause: once started,
// a handle fires until it is stopped.
type Ticker interface {
	Start(interval time.Duration, fn func(now time.Time)) Handle
}

// Clock supplies wall-clock timestamps
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTicker returns a Ticker backed by time.Ticker
func NewTicker() Ticker {
	return realTicker{}
}

type realTicker struct{}

type realHandle struct {
	stopChan chan struct{}
	stopOnce sync.Once
}

func (realTicker) Start(interval time.Duration, fn func(now time.Time)) Handle {
	if interval <= 0 {
		panic("clock: interval must be > 0")
	}
	if fn == nil {
		panic("clock: callback cannot be nil")
	}
	h := &realHandle{stopChan: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case now := <-ticker.C:
				// Stop may have raced with this tick
				select {
				case <-h.stopChan:
					return
				default:
				}
				fn(now)
			}
		}
	}()
	return h
}

// Stop does not wait for an in-flight callback to return
func (h *realHandle) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// ManualTicker fires only when Fire is called. Used by tests and by callers
// that need deterministic stepping.
type ManualTicker struct {
	mu      sync.Mutex
	handles map[uint64]*manualHandle
	nextID  uint64
	started int
}

type manualHandle struct {
	owner   *ManualTicker
	id      uint64
	fn      func(time.Time)
	stopped bool
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{handles: make(map[uint64]*manualHandle)}
}

func (t *ManualTicker) Start(_ time.Duration, fn func(now time.Time)) Handle {
	if fn == nil {
		panic("clock: callback cannot be nil")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	h := &manualHandle{owner: t, id: t.nextID, fn: fn}
	t.nextID++
	t.handles[h.id] = h
	t.started++
	return h
}

func (h *manualHandle) Stop() {
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	h.stopped = true
	delete(h.owner.handles, h.id)
}

// Fire invokes every live callback with now, outside the lock
func (t *ManualTicker) Fire(now time.Time) {
	t.mu.Lock()
	fns := make([]func(time.Time), 0, len(t.handles))
	for _, h := range t.handles {
		fns = append(fns, h.fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
}

// Active returns the number of handles that have not been stopped
func (t *ManualTicker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

// Started returns how many handles were ever started
func (t *ManualTicker) Started() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// FakeClock is a settable Clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and returns the new time
func (c *FakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
