package events

import (
	"maps"
	"sync"
)

// ChannelEvent fans values out to registered channels. Sends never block:
// a full channel either misses the value or, when the event was created with
// NewLatestChannelEvent, has its stale buffered value replaced.
type ChannelEvent[T any] struct {
	mu           sync.RWMutex
	channels     map[uint64]chan T
	nextID       uint64
	replay       replaySlot[T]
	replaceStale bool
}

// NewChannelEvent creates a ChannelEvent. When replayLast is true the most
// recent value is sent to each new listener as soon as it registers.
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels: make(map[uint64]chan T),
		replay:   replaySlot[T]{enabled: replayLast},
	}
}

// NewLatestChannelEvent creates a replaying ChannelEvent whose listeners
// always end up holding the newest value, even if they fall behind. Use it
// for state snapshots where only the latest one matters.
func NewLatestChannelEvent[T any]() *ChannelEvent[T] {
	e := NewChannelEvent[T](true)
	e.replaceStale = true
	return e
}

// Listen registers ch and returns a function that removes it again.
// Listen takes a bidirectional channel because replacing a stale value
// requires draining it.
func (e *ChannelEvent[T]) Listen(ch chan T) func() {
	if ch == nil {
		panic("events: channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	e.mu.Unlock()

	if last, ok := e.replay.load(); ok {
		e.send(ch, last)
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends value to every registered channel
func (e *ChannelEvent[T]) Notify(value T) {
	e.replay.store(value)

	e.mu.RLock()
	channels := maps.Clone(e.channels)
	e.mu.RUnlock()

	for _, ch := range channels {
		e.send(ch, value)
	}
}

// Latest returns the last notified value if replay is enabled
func (e *ChannelEvent[T]) Latest() (T, bool) {
	return e.replay.load()
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}

func (e *ChannelEvent[T]) send(ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	if !e.replaceStale {
		return
	}
	// Drop one stale value and retry once; a concurrent reader may win either race
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- value:
	default:
	}
}
