package telemetry

import (
	"context"

	"github.com/lowaak/cardiosplit/internal/interval"
)

// Sink receives samples from a Source. Implementations must be safe to call
// from any goroutine and must not block for long; the session runner
// marshals every call onto its own goroutine.
type Sink interface {
	// Location delivers a raw position fix
	Location(fix Fix)
	// Distance delivers a distance delta measured directly by the sensor
	Distance(deltaMeters float64)
	// Steps delivers a step counter reading
	Steps(sample StepSample)
}

// PhaseReader exposes the kind of the phase currently running. Sources may
// use it to shape simulated data; they never mutate session state.
type PhaseReader interface {
	CurrentKind() (interval.Kind, bool)
}

// Source is a sensor that can be subscribed for the duration of a session.
// Subscribe must return promptly; slow setup such as a Bluetooth connect
// happens in the background. The returned function releases the
// subscription and is safe to call more than once.
type Source interface {
	Name() string
	Subscribe(ctx context.Context, sink Sink) (unsubscribe func(), err error)
}
