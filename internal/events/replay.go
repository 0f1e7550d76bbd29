package events

import "sync"

// replaySlot remembers the most recent notification so it can be handed to
// listeners that register later.
type replaySlot[T any] struct {
	mu      sync.RWMutex
	enabled bool
	value   T
	has     bool
}

func (r *replaySlot[T]) store(value T) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	r.value = value
	r.has = true
	r.mu.Unlock()
}

func (r *replaySlot[T]) load() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.has
}
