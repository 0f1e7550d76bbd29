package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepNormalizer_Absolute(t *testing.T) {
	var n StepNormalizer
	assert.Equal(t, 10, n.Normalize(StepSample{Count: 10}))
	assert.Equal(t, 25, n.Normalize(StepSample{Count: 25}))
}

func TestStepNormalizer_IncrementalRounds(t *testing.T) {
	var n StepNormalizer
	n.Normalize(StepSample{Count: 1.4, Incremental: true})
	assert.Equal(t, 3, n.Normalize(StepSample{Count: 1.4, Incremental: true}))
}

func TestStepNormalizer_IgnoresGarbageAndResets(t *testing.T) {
	var n StepNormalizer
	n.Normalize(StepSample{Count: 7})
	assert.Equal(t, 7, n.Normalize(StepSample{Count: -3}))
	assert.Equal(t, 7, n.Normalize(StepSample{Count: math.NaN(), Incremental: true}))

	n.Reset()
	assert.Equal(t, 2, n.Normalize(StepSample{Count: 2, Incremental: true}))
}
