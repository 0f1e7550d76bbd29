package bt

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/cardiosplit/internal/clock"
	"github.com/lowaak/cardiosplit/internal/go_func_utils"
	"github.com/lowaak/cardiosplit/internal/telemetry"
)

// FootPod is a telemetry source backed by a Bluetooth running sensor. It
// reports distance deltas and incremental step counts.
type FootPod struct {
	connector Connector
	address   string
	clock     clock.Clock
	logger    *log.Logger
}

var _ telemetry.Source = (*FootPod)(nil)

// NewFootPod creates a FootPod. An empty address connects to the first pod
// advertising the Running Speed and Cadence service.
func NewFootPod(connector Connector, address string, clk clock.Clock, logger *log.Logger) *FootPod {
	if connector == nil {
		panic("FootPod: connector cannot be nil")
	}
	if logger == nil {
		panic("FootPod: logger cannot be nil")
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &FootPod{connector: connector, address: address, clock: clk, logger: logger}
}

func (f *FootPod) Name() string {
	return "footpod"
}

// Subscribe connects in the background and returns at once. The returned
// function cancels the connection attempt or tears the connection down; it
// does not wait for the radio.
func (f *FootPod) Subscribe(ctx context.Context, sink telemetry.Sink) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	go_func_utils.SafeGo(f.logger, "FootPod", func() { f.run(ctx, sink) })
	return cancel, nil
}

func (f *FootPod) run(ctx context.Context, sink telemetry.Sink) {
	device, err := f.connector.Connect(ctx, ServiceUUIDRunningSpeedCadence, f.address)
	if err != nil {
		f.logger.Printf("FootPod: Connect failed: %v", err)
		return
	}
	defer func() {
		if err := device.Disconnect(); err != nil {
			f.logger.Printf("FootPod: Disconnect failed: %v", err)
		}
	}()

	var (
		mu         sync.Mutex
		integrator strideIntegrator
	)
	err = device.EnableNotifications(ServiceUUIDRunningSpeedCadence, CharUUIDRSCMeasurement, func(buf []byte) {
		if ctx.Err() != nil {
			return
		}
		m, err := ParseRSCMeasurement(buf)
		if err != nil {
			f.logger.Printf("FootPod: %v", err)
			return
		}

		mu.Lock()
		meters, steps := integrator.observe(m, f.clock.Now())
		mu.Unlock()

		if meters > 0 {
			sink.Distance(meters)
		}
		if steps > 0 {
			sink.Steps(telemetry.StepSample{Count: steps, Incremental: true})
		}
	})
	if err != nil {
		f.logger.Printf("FootPod: Failed to enable notifications: %v", err)
		return
	}
	f.logger.Printf("FootPod: Streaming from %s", device.Address())

	<-ctx.Done()

	if err := device.DisableNotifications(ServiceUUIDRunningSpeedCadence, CharUUIDRSCMeasurement); err != nil {
		f.logger.Printf("FootPod: Failed to disable notifications: %v", err)
	}
	mu.Lock()
	integrator.reset()
	mu.Unlock()
}
