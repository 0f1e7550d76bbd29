package cue

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// LogPlayer writes every played asset to a logger. Used headless.
type LogPlayer struct {
	Logger *log.Logger
}

func (p LogPlayer) Play(_ context.Context, asset string) error {
	p.Logger.Printf("Cue: play %s", asset)
	return nil
}

// LogHaptics writes every vibration pattern to a logger
type LogHaptics struct {
	Logger *log.Logger
}

func (h LogHaptics) Vibrate(_ context.Context, pattern Pattern) error {
	h.Logger.Printf("Cue: vibrate %v", []time.Duration(pattern))
	return nil
}

// NopHaptics ignores vibration requests
type NopHaptics struct{}

func (NopHaptics) Vibrate(context.Context, Pattern) error { return nil }

// BellPlayer rings the terminal bell. Assets map to a number of BEL bytes so
// the run and walk beeps can be told apart by ear.
type BellPlayer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBellPlayer(w io.Writer) *BellPlayer {
	if w == nil {
		panic("BellPlayer: writer cannot be nil")
	}
	return &BellPlayer{w: w}
}

var bellCounts = map[string]int{
	"beep1": 1,
	"beep2": 1,
	"beep3": 2,
	"beep4": 3,
}

// BellCount returns how many bells asset is rendered as. Unknown assets ring once.
func BellCount(asset string) int {
	if n, ok := bellCounts[asset]; ok {
		return n
	}
	return 1
}

func (p *BellPlayer) Play(_ context.Context, asset string) error {
	n := BellCount(asset)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		if _, err := p.w.Write([]byte{'\a'}); err != nil {
			return fmt.Errorf("write bell: %w", err)
		}
	}
	return nil
}
