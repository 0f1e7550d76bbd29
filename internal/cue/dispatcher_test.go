package cue

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	mu     sync.Mutex
	assets []string
	err    error
	panic  bool
	block  chan struct{}
}

func (p *recordingPlayer) Play(_ context.Context, asset string) error {
	if p.block != nil {
		<-p.block
	}
	if p.panic {
		panic("speaker unplugged")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assets = append(p.assets, asset)
	return p.err
}

func (p *recordingPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.assets...)
}

type recordingHaptics struct {
	mu       sync.Mutex
	patterns []Pattern
}

func (h *recordingHaptics) Vibrate(_ context.Context, pattern Pattern) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.patterns = append(h.patterns, pattern)
	return nil
}

func (h *recordingHaptics) vibrated() []Pattern {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Pattern(nil), h.patterns...)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDispatcher_PlaysTableEntries(t *testing.T) {
	player := &recordingPlayer{}
	haptics := &recordingHaptics{}
	d := NewDispatcher(player, haptics, nil, 0, testLogger())

	d.Dispatch(PhaseStartRun)
	d.Dispatch(CountdownInWalk)
	d.Dispatch(None)
	d.Close()

	assert.Equal(t, []string{"beep1", "beep2"}, player.played())
	require.Len(t, haptics.vibrated(), 1)
	assert.Equal(t, ms(0, 500, 0, 500), haptics.vibrated()[0])
}

func TestDispatcher_SwallowsPlayerFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	haptics := &recordingHaptics{}

	d := NewDispatcher(&recordingPlayer{err: errors.New("no device")}, haptics, nil, 0, logger)
	d.Dispatch(SessionComplete)
	d.Close()

	assert.Contains(t, buf.String(), "no device")
	// Haptics still run after a failed sound
	assert.Len(t, haptics.vibrated(), 1)
}

func TestDispatcher_RecoversPlayerPanic(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(&recordingPlayer{panic: true}, &recordingHaptics{}, nil, 0, log.New(&buf, "", 0))

	assert.NotPanics(t, func() {
		d.Dispatch(PrepTick)
		d.Close()
	})
	assert.Contains(t, buf.String(), "speaker unplugged")
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	player := &recordingPlayer{block: make(chan struct{})}
	d := NewDispatcher(player, NopHaptics{}, nil, 1, log.New(&buf, "", 0))

	// The worker takes the first cue and blocks in Play; the second fills the
	// queue. Wait until the worker has picked up the first one.
	d.Dispatch(PrepTick)
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	d.Dispatch(PrepTick)

	done := make(chan struct{})
	go func() {
		d.Dispatch(PrepTick)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Equal(t, 1, d.Dropped())

	close(player.block)
	d.Close()
	assert.Len(t, player.played(), 2)
	assert.Contains(t, buf.String(), "CueDispatcher: Closed (1 dropped)")
}

func TestDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	player := &recordingPlayer{}
	d := NewDispatcher(player, NopHaptics{}, nil, 0, testLogger())
	d.Close()
	d.Close()

	assert.NotPanics(t, func() { d.Dispatch(PhaseStartWalk) })
	assert.Empty(t, player.played())
}

func TestNewDispatcher_NilDepsPanic(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(nil, NopHaptics{}, nil, 0, testLogger()) })
	assert.Panics(t, func() { NewDispatcher(&recordingPlayer{}, nil, nil, 0, testLogger()) })
	assert.Panics(t, func() { NewDispatcher(&recordingPlayer{}, NopHaptics{}, nil, 0, nil) })
}
