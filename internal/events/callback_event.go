package events

import (
	"maps"
	"sync"
)

// CallbackEvent calls registered functions synchronously on the notifying
// goroutine. Callbacks must not block.
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners map[uint64]func(T)
	nextID    uint64
	replay    replaySlot[T]
}

// NewCallbackEvent creates a CallbackEvent. When replayLast is true a new
// listener is called immediately with the most recent value.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners: make(map[uint64]func(T)),
		replay:    replaySlot[T]{enabled: replayLast},
	}
}

// Listen registers callback and returns a function that removes it again
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("events: callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = callback
	e.mu.Unlock()

	if last, ok := e.replay.load(); ok {
		callback(last)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify calls every listener with value, outside the lock
func (e *CallbackEvent[T]) Notify(value T) {
	e.replay.store(value)

	e.mu.RLock()
	listeners := maps.Clone(e.listeners)
	e.mu.RUnlock()

	for _, callback := range listeners {
		callback(value)
	}
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
