package cue

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/cardiosplit/internal/go_func_utils"
)

// DefaultQueueSize is used when NewDispatcher is given a non-positive size
const DefaultQueueSize = 8

// Dispatcher plays cues on its own goroutine. Dispatch never blocks the
// caller; cue failures are logged and never reported back.
type Dispatcher struct {
	player  Player
	haptics Haptics
	table   map[ID]Spec
	logger  *log.Logger

	queue        chan ID
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	closeOnce    sync.Once
	mu           sync.RWMutex
	closed       bool
	droppedCount int
}

// NewDispatcher creates a Dispatcher and starts its worker. table may be nil
// to use DefaultTable.
func NewDispatcher(player Player, haptics Haptics, table map[ID]Spec, queueSize int, logger *log.Logger) *Dispatcher {
	if player == nil {
		panic("CueDispatcher: player cannot be nil")
	}
	if haptics == nil {
		panic("CueDispatcher: haptics cannot be nil")
	}
	if logger == nil {
		panic("CueDispatcher: logger cannot be nil")
	}
	if table == nil {
		table = DefaultTable()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		player:  player,
		haptics: haptics,
		table:   table,
		logger:  logger,
		queue:   make(chan ID, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	d.wg.Add(1)
	go_func_utils.SafeGo(logger, "CueDispatcher", d.run)
	return d
}

// Dispatch queues id for playback. None is ignored. When the queue is full
// or the dispatcher is closed the cue is dropped.
func (d *Dispatcher) Dispatch(id ID) {
	if id == None {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Printf("CueDispatcher: Dropping %s after close", id)
		return
	}
	select {
	case d.queue <- id:
	default:
		d.droppedCount++
		d.logger.Printf("CueDispatcher: Queue full, dropping %s", id)
	}
}

// Dropped returns how many cues were dropped because the queue was full
func (d *Dispatcher) Dropped() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.droppedCount
}

// Close stops accepting cues, plays what is already queued and waits for the
// worker to exit. Safe to call multiple times.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		d.wg.Wait()
		d.cancel()
		d.logger.Printf("CueDispatcher: Closed (%d dropped)", d.Dropped())
	})
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for id := range d.queue {
		d.play(id)
	}
}

func (d *Dispatcher) play(id ID) {
	spec, ok := d.table[id]
	if !ok {
		d.logger.Printf("CueDispatcher: No entry for %s", id)
		return
	}

	if spec.Asset != "" {
		err := go_func_utils.SafeCall(d.logger, "Player", func() error {
			return d.player.Play(d.ctx, spec.Asset)
		})
		if err != nil {
			d.logger.Printf("CueDispatcher: Failed to play %s (%s): %v", id, spec.Asset, err)
		}
	}

	if len(spec.Pattern) > 0 {
		err := go_func_utils.SafeCall(d.logger, "Haptics", func() error {
			return d.haptics.Vibrate(d.ctx, spec.Pattern)
		})
		if err != nil {
			d.logger.Printf("CueDispatcher: Failed to vibrate for %s: %v", id, err)
		}
	}
}
