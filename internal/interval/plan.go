package interval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what the runner is doing during a phase
type Kind int

const (
	KindReady Kind = iota
	KindSet
	KindGo
	KindRun
	KindWalk
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "Ready"
	case KindSet:
		return "Set"
	case KindGo:
		return "Go"
	case KindRun:
		return "Run"
	case KindWalk:
		return "Walk"
	case KindDone:
		return "Done"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsWorkout reports whether phases of this kind appear in a Plan
func (k Kind) IsWorkout() bool {
	return k == KindRun || k == KindWalk
}

// Phase is one segment of a session. Prep and Done phases carry a nominal
// duration that is only used for display.
type Phase struct {
	Kind     Kind
	Duration time.Duration
}

// Seconds returns the phase duration in whole seconds
func (p Phase) Seconds() int {
	return int(p.Duration / time.Second)
}

// Named prep/terminal phases shown before and after the plan
var (
	PhaseReady = Phase{Kind: KindReady, Duration: time.Second}
	PhaseSet   = Phase{Kind: KindSet, Duration: time.Second}
	PhaseGo    = Phase{Kind: KindGo, Duration: time.Second}
	PhaseDone  = Phase{Kind: KindDone, Duration: 0}
)

// Policy selects how the time left over after the last full run/walk pair is
// turned into phases.
type Policy int

const (
	// PolicyRunFirst appends a full run then a shortened walk, or a single
	// shortened run when a full run does not fit.
	PolicyRunFirst Policy = iota
	// PolicyTrailingWalk appends a shortened walk instead of a shortened run
	// when a full run does not fit.
	PolicyTrailingWalk
)

func (p Policy) String() string {
	switch p {
	case PolicyRunFirst:
		return "run-first"
	case PolicyTrailingWalk:
		return "trailing-walk"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a config value onto a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "run-first":
		return PolicyRunFirst, nil
	case "trailing-walk":
		return PolicyTrailingWalk, nil
	}
	return PolicyRunFirst, fmt.Errorf("unknown plan policy %q", s)
}

// Plan is the ordered list of Run/Walk phases for one session.
// A Plan is never modified after BuildPlan returns it.
type Plan struct {
	phases []Phase
}

// Len returns the number of phases
func (p Plan) Len() int {
	return len(p.phases)
}

// At returns the phase at index i
func (p Plan) At(i int) Phase {
	return p.phases[i]
}

// Next returns the phase after index i, if there is one
func (p Plan) Next(i int) (Phase, bool) {
	if i+1 < 0 || i+1 >= len(p.phases) {
		return Phase{}, false
	}
	return p.phases[i+1], true
}

// Phases returns a copy of the phases
func (p Plan) Phases() []Phase {
	result := make([]Phase, len(p.phases))
	copy(result, p.phases)
	return result
}

// Total returns the summed duration of all phases
func (p Plan) Total() time.Duration {
	return p.sum(func(Kind) bool { return true })
}

// RunTotal returns the summed duration of the Run phases
func (p Plan) RunTotal() time.Duration {
	return p.sum(func(k Kind) bool { return k == KindRun })
}

// WalkTotal returns the summed duration of the Walk phases
func (p Plan) WalkTotal() time.Duration {
	return p.sum(func(k Kind) bool { return k == KindWalk })
}

func (p Plan) sum(match func(Kind) bool) time.Duration {
	var total time.Duration
	for _, phase := range p.phases {
		if match(phase.Kind) {
			total += phase.Duration
		}
	}
	return total
}

// BuildPlan splits total into alternating Run/Walk phases. All durations are
// truncated to whole seconds. total and run must be positive and walk must not
// be negative; otherwise the returned Plan is empty.
//
// The sum of the phase durations always equals total.
func BuildPlan(total, run, walk time.Duration, policy Policy) Plan {
	totalSec := int64(total / time.Second)
	runSec := int64(run / time.Second)
	walkSec := int64(walk / time.Second)
	if totalSec <= 0 || runSec <= 0 || walkSec < 0 {
		return Plan{}
	}

	var phases []Phase
	add := func(kind Kind, seconds int64) {
		if seconds > 0 {
			phases = append(phases, Phase{Kind: kind, Duration: time.Duration(seconds) * time.Second})
		}
	}

	remaining := totalSec
	for remaining >= runSec+walkSec {
		add(KindRun, runSec)
		add(KindWalk, walkSec)
		remaining -= runSec + walkSec
	}

	switch {
	case remaining >= runSec:
		add(KindRun, runSec)
		add(KindWalk, remaining-runSec)
	case remaining > 0 && policy == PolicyTrailingWalk:
		add(KindWalk, remaining)
	case remaining > 0:
		add(KindRun, remaining)
	}

	return Plan{phases: phases}
}

// BuildPlanMinutes is BuildPlan for durations given in (possibly fractional)
// minutes, rounded to the nearest second. Out of range inputs give an empty plan.
func BuildPlanMinutes(totalMin, runMin, walkMin float64, policy Policy) Plan {
	var d [3]time.Duration
	for i, minutes := range []float64{totalMin, runMin, walkMin} {
		v, err := MinutesToDuration(minutes)
		if err != nil {
			return Plan{}
		}
		d[i] = v
	}
	return BuildPlan(d[0], d[1], d[2], policy)
}

// MaxMinutes is the largest minute value a time.Duration can hold
const MaxMinutes = float64(math.MaxInt64 / int64(time.Minute))

// MinutesToDuration converts minutes to a whole-second duration. Values
// outside +/-MaxMinutes would overflow and are rejected.
func MinutesToDuration(minutes float64) (time.Duration, error) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || math.Abs(minutes) > MaxMinutes {
		return 0, fmt.Errorf("minutes %v out of range", minutes)
	}
	return time.Duration(math.Round(minutes*60)) * time.Second, nil
}

// ParseMinutes parses a user-entered minutes value such as "30" or "2.5".
// Empty input returns ok=false so callers can report a missing field.
func ParseMinutes(s string) (minutes float64, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid minutes %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxMinutes {
		return 0, true, fmt.Errorf("invalid minutes %q", s)
	}
	return v, true, nil
}
