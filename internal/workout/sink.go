package workout

import (
	"context"

	"github.com/lowaak/cardiosplit/internal/telemetry"
)

type sampleKind int

const (
	sampleLocation sampleKind = iota
	sampleDistance
	sampleSteps
)

// sampleEvent carries one sensor reading onto the manager goroutine
type sampleEvent struct {
	generation uint64
	kind       sampleKind
	fix        telemetry.Fix
	meters     float64
	steps      telemetry.StepSample
}

// generationSink tags every sample with the generation of the session that
// subscribed. A send gives up once the subscription is released.
type generationSink struct {
	generation uint64
	ctx        context.Context
	out        chan<- sampleEvent
	done       <-chan struct{}
}

func (s *generationSink) Location(fix telemetry.Fix) {
	s.send(sampleEvent{kind: sampleLocation, fix: fix})
}

func (s *generationSink) Distance(deltaMeters float64) {
	s.send(sampleEvent{kind: sampleDistance, meters: deltaMeters})
}

func (s *generationSink) Steps(sample telemetry.StepSample) {
	s.send(sampleEvent{kind: sampleSteps, steps: sample})
}

func (s *generationSink) send(ev sampleEvent) {
	ev.generation = s.generation
	select {
	case s.out <- ev:
	case <-s.ctx.Done():
	case <-s.done:
	}
}
