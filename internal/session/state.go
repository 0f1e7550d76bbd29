package session

import (
	"fmt"
	"time"

	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/telemetry"
)

// State is the lifecycle position of a session
type State int

const (
	StateIdle State = iota
	StatePreppingReady
	StatePreppingSet
	StatePreppingGo
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePreppingReady:
		return "Ready"
	case StatePreppingSet:
		return "Set"
	case StatePreppingGo:
		return "Go"
	case StateActive:
		return "Active"
	case StateCompleted:
		return "Completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Prepping reports whether the countdown before the first phase is running
func (s State) Prepping() bool {
	return s == StatePreppingReady || s == StatePreppingSet || s == StatePreppingGo
}

// Running reports whether the ticker should be live
func (s State) Running() bool {
	return s.Prepping() || s == StateActive
}

// Durations are the three user inputs of a session
type Durations struct {
	Total time.Duration
	Run   time.Duration
	Walk  time.Duration
}

// Snapshot is an immutable copy of session state handed to observers
type Snapshot struct {
	ID         string
	Generation uint64
	State      State

	// Phase is the phase on screen: a prep phase while prepping, the
	// current plan phase while active and PhaseDone once completed.
	Phase      interval.Phase
	PhaseIndex int
	PlanLen    int
	Next       interval.Phase
	HasNext    bool

	Remaining  time.Duration
	Elapsed    time.Duration
	RunElapsed time.Duration
	PlanTotal  time.Duration

	Paused   bool
	Locked   bool
	Finished bool

	Telemetry telemetry.Totals
	StartedAt time.Time
	EndedAt   time.Time
}

// WalkElapsed is the part of Elapsed spent outside Run phases
func (s Snapshot) WalkElapsed() time.Duration {
	return s.Elapsed - s.RunElapsed
}

// CurrentKind returns the kind of the active plan phase
func (s Snapshot) CurrentKind() (interval.Kind, bool) {
	if s.State != StateActive {
		return 0, false
	}
	return s.Phase.Kind, true
}
