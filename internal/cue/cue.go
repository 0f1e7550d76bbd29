package cue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lowaak/cardiosplit/internal/interval"
)

// ID names one of the fixed cues a session can emit
type ID int

const (
	None ID = iota
	PrepTick
	PhaseStartRun
	PhaseStartWalk
	CountdownInRun
	CountdownInWalk
	SessionComplete
)

var idNames = map[ID]string{
	None:            "none",
	PrepTick:        "prep-tick",
	PhaseStartRun:   "phase-start-run",
	PhaseStartWalk:  "phase-start-walk",
	CountdownInRun:  "countdown-in-run",
	CountdownInWalk: "countdown-in-walk",
	SessionComplete: "session-complete",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// ParseID maps a cue name such as "phase-start-run" back to its ID
func ParseID(s string) (ID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for id, name := range idNames {
		if id != None && name == s {
			return id, true
		}
	}
	return None, false
}

// All returns every dispatchable cue in declaration order
func All() []ID {
	return []ID{PrepTick, PhaseStartRun, PhaseStartWalk, CountdownInRun, CountdownInWalk, SessionComplete}
}

// PhaseStart returns the cue announcing a phase of the given kind
func PhaseStart(kind interval.Kind) ID {
	if kind == interval.KindWalk {
		return PhaseStartWalk
	}
	return PhaseStartRun
}

// Countdown returns the countdown cue for a phase of the given kind
func Countdown(kind interval.Kind) ID {
	if kind == interval.KindRun {
		return CountdownInRun
	}
	return CountdownInWalk
}

// Pattern is a vibration pattern: alternating wait and vibrate durations
// starting with a wait.
type Pattern []time.Duration

// Player plays a named sound asset
type Player interface {
	Play(ctx context.Context, asset string) error
}

// Haptics runs a vibration pattern
type Haptics interface {
	Vibrate(ctx context.Context, pattern Pattern) error
}

// Spec is what a single cue plays
type Spec struct {
	Asset   string
	Pattern Pattern
}

func ms(values ...int) Pattern {
	p := make(Pattern, len(values))
	for i, v := range values {
		p[i] = time.Duration(v) * time.Millisecond
	}
	return p
}

// DefaultTable returns the built-in cue table
func DefaultTable() map[ID]Spec {
	return map[ID]Spec{
		PrepTick:        {Asset: "beep2"},
		PhaseStartRun:   {Asset: "beep1", Pattern: ms(0, 500, 0, 500)},
		PhaseStartWalk:  {Asset: "beep3", Pattern: ms(0, 300, 100, 300)},
		CountdownInRun:  {Asset: "beep4"},
		CountdownInWalk: {Asset: "beep2"},
		SessionComplete: {Asset: "beep1", Pattern: ms(0, 800)},
	}
}

// TableWithAssets returns DefaultTable with asset names replaced from
// overrides, keyed by cue name. Unknown names are returned as an error.
func TableWithAssets(overrides map[string]string) (map[ID]Spec, error) {
	table := DefaultTable()
	for name, asset := range overrides {
		id, ok := ParseID(name)
		if !ok {
			return nil, fmt.Errorf("unknown cue %q", name)
		}
		if asset = strings.TrimSpace(asset); asset == "" {
			continue
		}
		spec := table[id]
		spec.Asset = asset
		table[id] = spec
	}
	return table, nil
}
