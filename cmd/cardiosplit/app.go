package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/cardiosplit/internal/bt"
	"github.com/lowaak/cardiosplit/internal/clock"
	"github.com/lowaak/cardiosplit/internal/config"
	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/settings"
	"github.com/lowaak/cardiosplit/internal/sim"
	"github.com/lowaak/cardiosplit/internal/workout"
)

// runtime is what every session command needs once config is loaded
type runtime struct {
	cfg      config.Config
	logger   *log.Logger
	closer   io.Closer
	settings *settings.Store
}

// setup loads config, opens the log and the settings store. extraLog
// receives a copy of every log line.
func setup(cmd *cobra.Command, extraLog ...io.Writer) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closer, err := config.NewLogger(cfg.Log, extraLog...)
	if err != nil {
		return nil, err
	}
	logger.Printf("Main: Starting %s (log %s)", cmd.CommandPath(), cfg.Log.File)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		closer:   closer,
		settings: settings.NewStore(cfg.Settings.File, logger),
	}, nil
}

func (rt *runtime) Close() {
	rt.logger.Printf("Main: Exiting")
	_ = rt.closer.Close()
}

// newDispatcher plays cues through player with the configured asset table
func (rt *runtime) newDispatcher(player cue.Player, haptics cue.Haptics) (*cue.Dispatcher, error) {
	table, err := rt.cfg.CueTable()
	if err != nil {
		return nil, err
	}
	return cue.NewDispatcher(player, haptics, table, rt.cfg.Cues.QueueSize, rt.logger), nil
}

// newManager builds the session manager and attaches the configured sensors
func (rt *runtime) newManager(ticker clock.Ticker, cues workout.CueSink) (*workout.Manager, error) {
	mgr := workout.NewManager(workout.Config{
		Policy:       rt.cfg.Policy(),
		TickInterval: rt.cfg.Tick.Interval,
		Ticker:       ticker,
		Cues:         cues,
		Gate:         workout.StaticGate{Location: rt.cfg.Permissions.Location, Activity: rt.cfg.Permissions.Activity},
		Logger:       rt.logger,
	})

	if rt.cfg.Sensors.Simulate {
		simCfg := sim.DefaultConfig()
		simCfg.RunPace = rt.cfg.Sensors.RunPace
		simCfg.WalkPace = rt.cfg.Sensors.WalkPace
		mgr.AddSource(sim.NewSource(mgr, ticker, simCfg, rt.logger))
	}

	if rt.cfg.FootPod.Enabled {
		btManager := bt.NewManager(bluetooth.DefaultAdapter, rt.logger, rt.cfg.FootPod.ScanTimeout)
		if err := btManager.Enable(); err != nil {
			mgr.Shutdown()
			return nil, fmt.Errorf("enable bluetooth: %w", err)
		}
		mgr.AddSource(bt.NewFootPod(btManager, rt.cfg.FootPod.Address, clock.SystemClock{}, rt.logger))
	}

	return mgr, nil
}
