package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/cardiosplit/internal/cue"
)

type countingBeeper struct {
	mu    sync.Mutex
	beeps int
	err   error
}

func (b *countingBeeper) Beep() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beeps++
	return b.err
}

func TestScreenPlayer_BeepsPerAsset(t *testing.T) {
	beeper := &countingBeeper{}
	player := NewScreenPlayer(beeper)
	player.gap = time.Millisecond

	require.NoError(t, player.Play(context.Background(), "beep4"))
	assert.Equal(t, 3, beeper.beeps)

	require.NoError(t, player.Play(context.Background(), "unknown"))
	assert.Equal(t, 4, beeper.beeps)
}

func TestScreenPlayer_ReportsBeepError(t *testing.T) {
	beeper := &countingBeeper{err: errors.New("no terminal")}
	err := NewScreenPlayer(beeper).Play(context.Background(), "beep1")
	assert.ErrorContains(t, err, "no terminal")
}

func TestScreenPlayer_StopsOnCancel(t *testing.T) {
	beeper := &countingBeeper{}
	player := NewScreenPlayer(beeper)
	player.gap = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := player.Play(ctx, "beep3")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, beeper.beeps)
}

func TestFlashHaptics_PulsesOnOddSegments(t *testing.T) {
	var mu sync.Mutex
	var flashes []bool
	haptics := NewFlashHaptics(func(on bool) {
		mu.Lock()
		flashes = append(flashes, on)
		mu.Unlock()
	})

	pattern := cue.Pattern{0, time.Millisecond, 0, time.Millisecond}
	require.NoError(t, haptics.Vibrate(context.Background(), pattern))

	assert.Equal(t, []bool{true, false, true, false}, flashes)
}

func TestFlashHaptics_CancelEndsFlash(t *testing.T) {
	var last bool
	haptics := NewFlashHaptics(func(on bool) { last = on })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := haptics.Vibrate(ctx, cue.Pattern{0, time.Hour})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, last)
}

func TestCueAdapters_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewScreenPlayer(nil) })
	assert.Panics(t, func() { NewFlashHaptics(nil) })
}
