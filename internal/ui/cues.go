package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/lowaak/cardiosplit/internal/cue"
)

// Beeper is the part of tcell.Screen used for audio cues
type Beeper interface {
	Beep() error
}

// ScreenPlayer plays cues as terminal beeps through the tcell screen, which
// owns the terminal while the UI runs.
type ScreenPlayer struct {
	beeper Beeper
	gap    time.Duration
}

func NewScreenPlayer(beeper Beeper) *ScreenPlayer {
	if beeper == nil {
		panic("ScreenPlayer: beeper cannot be nil")
	}
	return &ScreenPlayer{beeper: beeper, gap: 150 * time.Millisecond}
}

func (p *ScreenPlayer) Play(ctx context.Context, asset string) error {
	n := cue.BellCount(asset)
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := sleep(ctx, p.gap); err != nil {
				return err
			}
		}
		if err := p.beeper.Beep(); err != nil {
			return fmt.Errorf("beep %s: %w", asset, err)
		}
	}
	return nil
}

// FlashHaptics renders vibration patterns as a flashing border. Patterns
// alternate wait and pulse durations, starting with a wait.
type FlashHaptics struct {
	flash func(on bool)
}

func NewFlashHaptics(flash func(on bool)) *FlashHaptics {
	if flash == nil {
		panic("FlashHaptics: flash cannot be nil")
	}
	return &FlashHaptics{flash: flash}
}

func (h *FlashHaptics) Vibrate(ctx context.Context, pattern cue.Pattern) error {
	for i, d := range pattern {
		pulse := i%2 == 1
		if pulse {
			h.flash(true)
		}
		err := sleep(ctx, d)
		if pulse {
			h.flash(false)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
