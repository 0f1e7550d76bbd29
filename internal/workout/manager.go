package workout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lowaak/cardiosplit/internal/clock"
	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/events"
	"github.com/lowaak/cardiosplit/internal/go_func_utils"
	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/telemetry"
)

// ErrShutdown is returned by commands sent after Shutdown
var ErrShutdown = errors.New("workout manager is shut down")

// CueSink receives the cue of every committed transition
type CueSink interface {
	Dispatch(id cue.ID)
}

// managerCommand represents commands sent to the session goroutine
type managerCommand int

const (
	cmdStart managerCommand = iota
	cmdTogglePause
	cmdToggleLock
	cmdStop
	cmdReset
)

func (c managerCommand) String() string {
	switch c {
	case cmdStart:
		return "start"
	case cmdTogglePause:
		return "toggle-pause"
	case cmdToggleLock:
		return "toggle-lock"
	case cmdStop:
		return "stop"
	case cmdReset:
		return "reset"
	}
	return "unknown"
}

type commandRequest struct {
	cmd       managerCommand
	durations session.Durations
	reply     chan error
}

type tickEvent struct {
	generation uint64
	now        time.Time
}

// Config wires a Manager to its collaborators
type Config struct {
	Policy       interval.Policy
	TickInterval time.Duration
	Ticker       clock.Ticker
	Clock        clock.Clock
	Cues         CueSink
	Gate         PermissionGate
	Logger       *log.Logger
}

// Manager runs one session at a time. A single goroutine owns the state
// machine; commands, ticks and sensor samples are all serialized onto it.
type Manager struct {
	ticker       clock.Ticker
	clock        clock.Clock
	cues         CueSink
	gate         PermissionGate
	tickInterval time.Duration
	logger       *log.Logger

	snapshotEvent *events.ChannelEvent[session.Snapshot]

	// Shared state (protected by mu)
	mu         sync.RWMutex
	latest     session.Snapshot
	sources    []telemetry.Source
	staleCount int

	// Owned by the session goroutine
	machine    *session.Machine
	tickHandle clock.Handle
	subCancel  context.CancelFunc
	unsubs     []func()
	tracker    telemetry.LocationTracker
	steps      telemetry.StepNormalizer

	// Goroutine management
	cmdChan      chan commandRequest
	tickChan     chan tickEvent
	sampleChan   chan sampleEvent
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewManager creates a Manager and starts its goroutine
func NewManager(cfg Config) *Manager {
	if cfg.Ticker == nil {
		panic("Manager: ticker cannot be nil")
	}
	if cfg.Cues == nil {
		panic("Manager: cues cannot be nil")
	}
	if cfg.Logger == nil {
		panic("Manager: logger cannot be nil")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Gate == nil {
		cfg.Gate = AllowAll
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	m := &Manager{
		ticker:        cfg.Ticker,
		clock:         cfg.Clock,
		cues:          cfg.Cues,
		gate:          cfg.Gate,
		tickInterval:  cfg.TickInterval,
		logger:        cfg.Logger,
		snapshotEvent: events.NewLatestChannelEvent[session.Snapshot](),
		machine:       session.NewMachine(cfg.Policy),
		cmdChan:       make(chan commandRequest),
		tickChan:      make(chan tickEvent),
		sampleChan:    make(chan sampleEvent, 64),
		doneChan:      make(chan struct{}),
	}
	m.latest = m.machine.Snapshot()
	m.snapshotEvent.Notify(m.latest)

	m.wg.Add(1)
	go_func_utils.SafeGo(m.logger, "Manager", m.runLoop)

	return m
}

// AddSource registers a sensor that is subscribed whenever a session
// becomes active
func (m *Manager) AddSource(src telemetry.Source) {
	if src == nil {
		panic("Manager: source cannot be nil")
	}
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.mu.Unlock()
	m.logger.Printf("Manager: Added source %s", src.Name())
}

// Start validates d, asks for permissions and begins the Ready/Set/Go prep.
// Validation failures and refused permissions leave the session Idle.
func (m *Manager) Start(ctx context.Context, d session.Durations) error {
	if err := session.Validate(d); err != nil {
		m.logger.Printf("Manager: Rejected durations: %v", err)
		return err
	}
	if err := m.gate.Request(ctx); err != nil {
		m.logger.Printf("Manager: Permission request failed: %v", err)
		return err
	}
	return m.send(commandRequest{cmd: cmdStart, durations: d})
}

// TogglePause pauses or resumes an active session
func (m *Manager) TogglePause() error {
	return m.send(commandRequest{cmd: cmdTogglePause})
}

// ToggleLock locks or unlocks the pause and stop controls
func (m *Manager) ToggleLock() error {
	return m.send(commandRequest{cmd: cmdToggleLock})
}

// Stop ends the session early. The ticker and sensors are released before
// Stop returns.
func (m *Manager) Stop() error {
	return m.send(commandRequest{cmd: cmdStop})
}

// Reset discards the session and returns to Idle
func (m *Manager) Reset() error {
	return m.send(commandRequest{cmd: cmdReset})
}

// Snapshot returns the most recently committed state
func (m *Manager) Snapshot() session.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Summary builds the report of the current or most recent session
func (m *Manager) Summary() session.Summary {
	return session.BuildSummary(m.Snapshot())
}

// CurrentKind returns the kind of the running phase
func (m *Manager) CurrentKind() (interval.Kind, bool) {
	return m.Snapshot().CurrentKind()
}

// StaleEvents returns how many ticks and samples were discarded because they
// belonged to an earlier session
func (m *Manager) StaleEvents() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.staleCount
}

// ListenToSnapshots registers a channel to receive state changes. The latest
// snapshot is delivered immediately and a slow reader only ever sees the
// newest value. Returns a deregistration function.
func (m *Manager) ListenToSnapshots(ch chan session.Snapshot) func() {
	return m.snapshotEvent.Listen(ch)
}

// Shutdown stops the session goroutine and releases the ticker and sensors.
// Safe to call multiple times - only the first call has effect
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.logger.Printf("Manager: Shutting down")
		close(m.doneChan)
		m.wg.Wait()
		m.logger.Printf("Manager: Shutdown complete")
	})
}

func (m *Manager) send(req commandRequest) error {
	req.reply = make(chan error, 1)
	select {
	case m.cmdChan <- req:
	case <-m.doneChan:
		return ErrShutdown
	}
	select {
	case err := <-req.reply:
		return err
	case <-m.doneChan:
		return ErrShutdown
	}
}

// runLoop is the goroutine that owns the state machine
func (m *Manager) runLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.doneChan:
			m.stopTicker()
			m.releaseSources()
			m.logger.Printf("Manager: Goroutine exiting")
			return

		case req := <-m.cmdChan:
			req.reply <- m.handleCommand(req)

		case tick := <-m.tickChan:
			if err := m.checkGeneration(tick.generation); err != nil {
				continue
			}
			m.apply(m.machine.Tick(m.clock.Now()))

		case sample := <-m.sampleChan:
			if err := m.checkGeneration(sample.generation); err != nil {
				continue
			}
			if m.handleSample(sample) {
				m.publish()
			}
		}
	}
}

func (m *Manager) handleCommand(req commandRequest) error {
	var (
		out session.Outcome
		err error
	)
	switch req.cmd {
	case cmdStart:
		out, err = m.machine.Start(req.durations, m.clock.Now())
		if err == nil {
			m.tracker.Invalidate()
			m.steps.Reset()
			snap := m.machine.Snapshot()
			m.logger.Printf("Manager: Session %s started (%d phases, %v)", snap.ID, snap.PlanLen, snap.PlanTotal)
		}
	case cmdTogglePause:
		out, err = m.machine.TogglePause()
	case cmdToggleLock:
		out, err = m.machine.ToggleLock()
	case cmdStop:
		out, err = m.machine.Stop(m.clock.Now())
	case cmdReset:
		out = m.machine.Reset()
	}

	if err != nil {
		m.logger.Printf("Manager: %s rejected: %v", req.cmd, err)
		return err
	}
	m.apply(out)
	return nil
}

// apply carries out the side effects of a committed transition. The
// snapshot is published before the cue is dispatched.
func (m *Manager) apply(out session.Outcome) {
	if !out.Changed && !out.StopTicker && !out.Release {
		return
	}

	if out.StopTicker {
		m.stopTicker()
	}
	if out.Release {
		m.releaseSources()
	}
	if out.Reanchor {
		m.tracker.Invalidate()
	}
	if out.StartTicker {
		m.startTicker()
	}
	if out.Subscribe {
		m.subscribeSources()
	}

	m.publish()

	if out.Cue != cue.None {
		m.cues.Dispatch(out.Cue)
	}
	if m.machine.State() == session.StateCompleted && out.StopTicker {
		snap := m.machine.Snapshot()
		m.logger.Printf("Manager: Session %s completed after %v (finished=%t)", snap.ID, snap.Elapsed, snap.Finished)
	}
}

func (m *Manager) publish() {
	snap := m.machine.Snapshot()
	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	// External call after releasing lock
	m.snapshotEvent.Notify(snap)
}

func (m *Manager) checkGeneration(got uint64) error {
	want := m.machine.Generation()
	if got == want {
		return nil
	}
	err := &session.StaleEventError{Got: got, Want: want}
	m.mu.Lock()
	m.staleCount++
	m.mu.Unlock()
	m.logger.Printf("Manager: Discarding %v", err)
	return err
}

func (m *Manager) handleSample(ev sampleEvent) bool {
	switch ev.kind {
	case sampleLocation:
		delta, ok := m.tracker.Observe(ev.fix)
		if !ok {
			return false
		}
		return m.machine.RecordDistance(delta)
	case sampleDistance:
		return m.machine.RecordDistance(ev.meters)
	case sampleSteps:
		return m.machine.RecordSteps(m.steps.Normalize(ev.steps))
	}
	return false
}

func (m *Manager) startTicker() {
	m.stopTicker()
	generation := m.machine.Generation()
	m.tickHandle = m.ticker.Start(m.tickInterval, func(now time.Time) {
		select {
		case m.tickChan <- tickEvent{generation: generation, now: now}:
		case <-m.doneChan:
		}
	})
}

func (m *Manager) stopTicker() {
	if m.tickHandle == nil {
		return
	}
	m.tickHandle.Stop()
	m.tickHandle = nil
}

func (m *Manager) subscribeSources() {
	m.releaseSources()

	m.mu.RLock()
	sources := append([]telemetry.Source(nil), m.sources...)
	m.mu.RUnlock()
	if len(sources) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.subCancel = cancel
	generation := m.machine.Generation()
	for _, src := range sources {
		sink := &generationSink{generation: generation, ctx: ctx, out: m.sampleChan, done: m.doneChan}
		unsubscribe, err := src.Subscribe(ctx, sink)
		if err != nil {
			m.logger.Printf("Manager: Failed to subscribe %s: %v", src.Name(), err)
			continue
		}
		m.unsubs = append(m.unsubs, unsubscribe)
		m.logger.Printf("Manager: Subscribed %s", src.Name())
	}
}

func (m *Manager) releaseSources() {
	// Cancel first so senders blocked on sampleChan give up
	if m.subCancel != nil {
		m.subCancel()
		m.subCancel = nil
	}
	for _, unsubscribe := range m.unsubs {
		unsubscribe()
	}
	m.unsubs = nil
}
