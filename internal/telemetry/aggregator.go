package telemetry

import (
	"math"

	"github.com/lowaak/cardiosplit/internal/interval"
)

// Totals is a read-only copy of the accumulated telemetry
type Totals struct {
	RunMeters  float64
	WalkMeters float64
	Steps      int
}

// Meters returns the combined run and walk distance
func (t Totals) Meters() float64 {
	return t.RunMeters + t.WalkMeters
}

// Aggregator accumulates distance per phase kind and an unattributed step
// count. All values only grow until Reset. Not safe for concurrent use; the
// session runner owns it.
type Aggregator struct {
	totals Totals
}

// RecordDistanceSample adds deltaMeters to the bucket for kind. Samples for
// non-workout kinds and invalid deltas are dropped. Returns whether the sample
// was counted.
func (a *Aggregator) RecordDistanceSample(kind interval.Kind, deltaMeters float64) bool {
	if deltaMeters < 0 || math.IsNaN(deltaMeters) || math.IsInf(deltaMeters, 0) {
		return false
	}
	switch kind {
	case interval.KindRun:
		a.totals.RunMeters += deltaMeters
	case interval.KindWalk:
		a.totals.WalkMeters += deltaMeters
	default:
		return false
	}
	return true
}

// RecordStepSample sets the absolute step count. A count lower than the
// current one is ignored so the counter never goes backwards.
func (a *Aggregator) RecordStepSample(count int) bool {
	if count < a.totals.Steps {
		return false
	}
	a.totals.Steps = count
	return true
}

func (a *Aggregator) Totals() Totals {
	return a.totals
}

func (a *Aggregator) Reset() {
	a.totals = Totals{}
}
