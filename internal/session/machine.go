package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/telemetry"
)

// Outcome tells the caller what a transition requires besides the state
// change itself. Every transition yields at most one cue.
type Outcome struct {
	Cue cue.ID

	// StartTicker is set when the session leaves Idle
	StartTicker bool
	// StopTicker is set when the session stops needing ticks
	StopTicker bool
	// Subscribe is set when telemetry becomes eligible
	Subscribe bool
	// Release is set when sensor subscriptions must be dropped
	Release bool
	// Reanchor is set on every phase change so location deltas do not span
	// two phases.
	Reanchor bool
	// Changed is false for no-op calls
	Changed bool
}

// Machine is the session state machine. It is not safe for concurrent use;
// a single goroutine owns it.
type Machine struct {
	policy interval.Policy

	id         string
	generation uint64
	state      State
	plan       interval.Plan
	index      int
	remaining  int
	elapsed    int
	runElapsed int
	paused     bool
	locked     bool
	finished   bool
	startedAt  time.Time
	endedAt    time.Time
	telemetry  telemetry.Aggregator
}

func NewMachine(policy interval.Policy) *Machine {
	return &Machine{policy: policy}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Generation() uint64 {
	return m.generation
}

// MaxTotal bounds the length of one session
const MaxTotal = 24 * time.Hour

// Validate checks durations without touching the machine
func Validate(d Durations) error {
	switch {
	case d.Total < time.Second:
		return &ValidationError{Field: "total", Reason: "must be at least one second"}
	case d.Total > MaxTotal:
		return &ValidationError{Field: "total", Reason: "must be at most 24 hours"}
	case d.Run < time.Second:
		return &ValidationError{Field: "run", Reason: "must be at least one second"}
	case d.Walk < 0:
		return &ValidationError{Field: "walk", Reason: "must not be negative"}
	}
	return nil
}

// Start begins a new session from Idle or Completed. The previous session's
// data is discarded.
func (m *Machine) Start(d Durations, now time.Time) (Outcome, error) {
	if m.state != StateIdle && m.state != StateCompleted {
		return Outcome{}, ErrAlreadyStarted
	}
	if err := Validate(d); err != nil {
		return Outcome{}, err
	}
	plan := interval.BuildPlan(d.Total, d.Run, d.Walk, m.policy)
	if plan.Len() == 0 {
		return Outcome{}, &ValidationError{Field: "total", Reason: "produces an empty plan"}
	}

	m.clear()
	m.generation++
	m.id = uuid.NewString()
	m.plan = plan
	m.state = StatePreppingReady
	m.startedAt = now

	return Outcome{Cue: cue.PrepTick, StartTicker: true, Changed: true}, nil
}

// Tick advances the session by one second
func (m *Machine) Tick(now time.Time) Outcome {
	switch m.state {
	case StatePreppingReady:
		m.state = StatePreppingSet
		return Outcome{Cue: cue.PrepTick, Changed: true}
	case StatePreppingSet:
		m.state = StatePreppingGo
		return Outcome{Cue: cue.PrepTick, Changed: true}
	case StatePreppingGo:
		m.state = StateActive
		m.index = 0
		first := m.plan.At(0)
		m.remaining = first.Seconds()
		return Outcome{Cue: cue.PhaseStart(first.Kind), Subscribe: true, Reanchor: true, Changed: true}
	case StateActive:
		return m.tickActive(now)
	}
	return Outcome{}
}

func (m *Machine) tickActive(now time.Time) Outcome {
	if m.paused {
		return Outcome{}
	}

	current := m.plan.At(m.index)
	m.elapsed++
	if current.Kind == interval.KindRun {
		m.runElapsed++
	}

	if m.remaining > 1 {
		m.remaining--
		if m.remaining <= 3 {
			return Outcome{Cue: cue.Countdown(current.Kind), Changed: true}
		}
		return Outcome{Changed: true}
	}

	if next, ok := m.plan.Next(m.index); ok {
		m.index++
		m.remaining = next.Seconds()
		return Outcome{Cue: cue.PhaseStart(next.Kind), Reanchor: true, Changed: true}
	}

	m.remaining = 0
	m.finished = true
	m.complete(now)
	return Outcome{Cue: cue.SessionComplete, StopTicker: true, Release: true, Changed: true}
}

// TogglePause flips the pause flag of an active session
func (m *Machine) TogglePause() (Outcome, error) {
	if m.state != StateActive {
		return Outcome{}, ErrNotActive
	}
	if m.locked {
		return Outcome{}, ErrLocked
	}
	m.paused = !m.paused
	// Ground covered while paused is not booked on resume
	return Outcome{Reanchor: true, Changed: true}, nil
}

// ToggleLock flips the lock flag of an active session
func (m *Machine) ToggleLock() (Outcome, error) {
	if m.state != StateActive {
		return Outcome{}, ErrNotActive
	}
	m.locked = !m.locked
	return Outcome{Changed: true}, nil
}

// Stop ends the session early. With no elapsed time the machine goes back
// to Idle; otherwise it freezes in Completed. Stopping an Idle or Completed
// session does nothing.
func (m *Machine) Stop(now time.Time) (Outcome, error) {
	if !m.state.Running() {
		return Outcome{}, nil
	}
	if m.locked {
		return Outcome{}, ErrLocked
	}

	if m.elapsed == 0 {
		m.clear()
		m.generation++
		return Outcome{StopTicker: true, Release: true, Changed: true}, nil
	}

	m.complete(now)
	return Outcome{StopTicker: true, Release: true, Changed: true}, nil
}

// Reset discards the session, whatever its state
func (m *Machine) Reset() Outcome {
	wasIdle := m.state == StateIdle
	m.clear()
	m.generation++
	return Outcome{StopTicker: true, Release: true, Changed: !wasIdle}
}

// RecordDistance books deltaMeters to the current phase. Samples outside an
// active, unpaused phase are dropped.
func (m *Machine) RecordDistance(deltaMeters float64) bool {
	if m.state != StateActive || m.paused {
		return false
	}
	return m.telemetry.RecordDistanceSample(m.plan.At(m.index).Kind, deltaMeters)
}

// RecordSteps stores the absolute step count of an active session
func (m *Machine) RecordSteps(count int) bool {
	if m.state != StateActive {
		return false
	}
	return m.telemetry.RecordStepSample(count)
}

// CurrentKind returns the kind of the running plan phase
func (m *Machine) CurrentKind() (interval.Kind, bool) {
	if m.state != StateActive {
		return 0, false
	}
	return m.plan.At(m.index).Kind, true
}

// Plan returns the plan of the current session
func (m *Machine) Plan() interval.Plan {
	return m.plan
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		ID:         m.id,
		Generation: m.generation,
		State:      m.state,
		PhaseIndex: m.index,
		PlanLen:    m.plan.Len(),
		Remaining:  time.Duration(m.remaining) * time.Second,
		Elapsed:    time.Duration(m.elapsed) * time.Second,
		RunElapsed: time.Duration(m.runElapsed) * time.Second,
		PlanTotal:  m.plan.Total(),
		Paused:     m.paused,
		Locked:     m.locked,
		Finished:   m.finished,
		Telemetry:  m.telemetry.Totals(),
		StartedAt:  m.startedAt,
		EndedAt:    m.endedAt,
	}

	switch {
	case m.state == StatePreppingReady:
		s.Phase = interval.PhaseReady
		s.Remaining = s.Phase.Duration
	case m.state == StatePreppingSet:
		s.Phase = interval.PhaseSet
		s.Remaining = s.Phase.Duration
	case m.state == StatePreppingGo:
		s.Phase = interval.PhaseGo
		s.Remaining = s.Phase.Duration
	case m.state == StateActive:
		s.Phase = m.plan.At(m.index)
		s.Next, s.HasNext = m.plan.Next(m.index)
	case m.state == StateCompleted:
		s.Phase = interval.PhaseDone
	}

	if m.state.Prepping() && m.plan.Len() > 0 {
		s.Next, s.HasNext = m.plan.At(0), true
	}
	return s
}

func (m *Machine) complete(now time.Time) {
	m.state = StateCompleted
	m.paused = false
	m.locked = false
	if m.endedAt.IsZero() {
		m.endedAt = now
	}
}

func (m *Machine) clear() {
	m.id = ""
	m.state = StateIdle
	m.plan = interval.Plan{}
	m.index = 0
	m.remaining = 0
	m.elapsed = 0
	m.runElapsed = 0
	m.paused = false
	m.locked = false
	m.finished = false
	m.startedAt = time.Time{}
	m.endedAt = time.Time{}
	m.telemetry.Reset()
}
