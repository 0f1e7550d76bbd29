package telemetry

import "math"

// StepSample is one reading from a step counter. Incremental readings carry
// steps taken since the previous reading; absolute readings carry a running
// total.
type StepSample struct {
	Count       float64
	Incremental bool
}

// StepNormalizer converts step readings into an absolute, rounded count
type StepNormalizer struct {
	total float64
}

// Normalize folds sample into the running count and returns it
func (n *StepNormalizer) Normalize(sample StepSample) int {
	if math.IsNaN(sample.Count) || math.IsInf(sample.Count, 0) || sample.Count < 0 {
		return int(math.Round(n.total))
	}
	if sample.Incremental {
		n.total += sample.Count
	} else {
		n.total = sample.Count
	}
	return int(math.Round(n.total))
}

func (n *StepNormalizer) Reset() {
	n.total = 0
}
