package sim

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/lowaak/cardiosplit/internal/clock"
	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/telemetry"
)

const earthRadiusMeters = 6371008.8

// Config shapes the simulated track. Paces are time per kilometer and
// cadences are steps per minute.
type Config struct {
	Start       telemetry.Fix
	Heading     float64 // degrees clockwise from north
	RunPace     time.Duration
	WalkPace    time.Duration
	RunCadence  float64
	WalkCadence float64
	Interval    time.Duration
}

// DefaultConfig is a 6:00/km run and a 12:00/km walk heading east
func DefaultConfig() Config {
	return Config{
		Start:       telemetry.Fix{Latitude: 39.9526, Longitude: -75.1652},
		Heading:     90,
		RunPace:     6 * time.Minute,
		WalkPace:    12 * time.Minute,
		RunCadence:  165,
		WalkCadence: 110,
		Interval:    time.Second,
	}
}

// Source produces a GPS track and pedometer readings that follow the phase
// the session is in. Nothing is produced outside Run and Walk.
type Source struct {
	phase  telemetry.PhaseReader
	ticker clock.Ticker
	cfg    Config
	logger *log.Logger
}

func NewSource(phase telemetry.PhaseReader, ticker clock.Ticker, cfg Config, logger *log.Logger) *Source {
	if phase == nil {
		panic("SimSource: phase reader cannot be nil")
	}
	if ticker == nil {
		panic("SimSource: ticker cannot be nil")
	}
	if logger == nil {
		panic("SimSource: logger cannot be nil")
	}
	defaults := DefaultConfig()
	if cfg.RunPace <= 0 {
		cfg.RunPace = defaults.RunPace
	}
	if cfg.WalkPace <= 0 {
		cfg.WalkPace = defaults.WalkPace
	}
	if cfg.RunCadence <= 0 {
		cfg.RunCadence = defaults.RunCadence
	}
	if cfg.WalkCadence <= 0 {
		cfg.WalkCadence = defaults.WalkCadence
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	return &Source{phase: phase, ticker: ticker, cfg: cfg, logger: logger}
}

func (s *Source) Name() string {
	return "simulator"
}

// Subscribe starts emitting samples to sink until the returned function is
// called or ctx is done
func (s *Source) Subscribe(ctx context.Context, sink telemetry.Sink) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &walker{cfg: s.cfg, position: s.cfg.Start}
	handle := s.ticker.Start(s.cfg.Interval, func(time.Time) {
		kind, ok := s.phase.CurrentKind()
		if !ok || ctx.Err() != nil {
			return
		}
		fix, steps := w.step(kind)
		sink.Location(fix)
		sink.Steps(telemetry.StepSample{Count: steps, Incremental: true})
	})

	var once sync.Once
	release := func() {
		once.Do(func() {
			handle.Stop()
			s.logger.Printf("SimSource: Released after %.0f m", w.traveled())
		})
	}
	stopAfter := context.AfterFunc(ctx, release)

	s.logger.Printf("SimSource: Subscribed (run pace %v/km, walk pace %v/km)", s.cfg.RunPace, s.cfg.WalkPace)
	return func() {
		stopAfter()
		release()
	}, nil
}

// walker advances a position along a fixed heading
type walker struct {
	mu       sync.Mutex
	cfg      Config
	position telemetry.Fix
	meters   float64
}

func (w *walker) step(kind interval.Kind) (telemetry.Fix, float64) {
	pace, cadence := w.cfg.WalkPace, w.cfg.WalkCadence
	if kind == interval.KindRun {
		pace, cadence = w.cfg.RunPace, w.cfg.RunCadence
	}
	seconds := w.cfg.Interval.Seconds()
	distance := 1000 / pace.Seconds() * seconds

	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = Move(w.position, w.cfg.Heading, distance)
	w.meters += distance
	return w.position, cadence / 60 * seconds
}

func (w *walker) traveled() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.meters
}

// Move returns the point distance meters from fix along heading degrees
func Move(fix telemetry.Fix, heading, distance float64) telemetry.Fix {
	lat := fix.Latitude * math.Pi / 180
	lon := fix.Longitude * math.Pi / 180
	theta := heading * math.Pi / 180
	delta := distance / earthRadiusMeters

	lat2 := math.Asin(math.Sin(lat)*math.Cos(delta) + math.Cos(lat)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat), math.Cos(delta)-math.Sin(lat)*math.Sin(lat2))

	return telemetry.Fix{Latitude: lat2 * 180 / math.Pi, Longitude: lon2 * 180 / math.Pi}
}
