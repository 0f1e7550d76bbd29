package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lowaak/cardiosplit/internal/clock"
	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
	"github.com/lowaak/cardiosplit/internal/workout"
)

var runFlags durationFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a session without the terminal UI",
	Long: `Runs one session in the foreground, printing each phase as it starts and
a summary at the end. Interrupt (Ctrl-C) stops the session early.`,
	Args: cobra.NoArgs,
	RunE: runHeadless,
}

func init() {
	runFlags.add(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runHeadless(cmd *cobra.Command, _ []string) error {
	d, err := runFlags.durations()
	if err != nil {
		return err
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	var player cue.Player = cue.LogPlayer{Logger: rt.logger}
	if rt.cfg.Cues.Bell {
		player = cue.NewBellPlayer(os.Stdout)
	}
	dispatcher, err := rt.newDispatcher(player, cue.LogHaptics{Logger: rt.logger})
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	mgr, err := rt.newManager(clock.NewTicker(), dispatcher)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	saveDurations := func() {
		last := settings.LastDurations{Total: runFlags.total, Run: runFlags.run, Walk: runFlags.walk}
		if err := rt.settings.SaveDurations(last); err != nil {
			rt.logger.Printf("Main: Failed to save durations: %v", err)
		}
	}
	sum, err := runSession(ctx, mgr, d, cmd.OutOrStdout(), saveDurations)
	if err != nil {
		return err
	}
	rt.logger.Printf("Main: Session done, %d stale events, %d cues dropped", mgr.StaleEvents(), dispatcher.Dropped())

	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sum))
	return err
}

// headlessSession is the part of the workout manager runSession drives
type headlessSession interface {
	Start(ctx context.Context, d session.Durations) error
	Stop() error
	Summary() session.Summary
	ListenToSnapshots(ch chan session.Snapshot) func()
}

var _ headlessSession = (*workout.Manager)(nil)

// runSession starts a session and prints progress until it completes or ctx
// is done, in which case the session is stopped early. started runs once the
// session has been accepted.
func runSession(ctx context.Context, s headlessSession, d session.Durations, out io.Writer, started func()) (session.Summary, error) {
	snapshots := make(chan session.Snapshot, 1)
	unregister := s.ListenToSnapshots(snapshots)
	defer unregister()

	// The replayed snapshot describes the previous session
	var prev session.Snapshot
	select {
	case prev = <-snapshots:
	default:
	}

	if err := s.Start(ctx, d); err != nil {
		return session.Summary{}, err
	}
	started()

	done := ctx.Done()
	for {
		select {
		case <-done:
			if err := s.Stop(); err != nil {
				return session.Summary{}, err
			}
			// Stop publishes the frozen or reset state; keep reading until it lands
			done = nil
		case snap := <-snapshots:
			if line := progressLine(prev, snap); line != "" {
				fmt.Fprintln(out, line)
			}
			prev = snap
			if snap.State == session.StateCompleted {
				return s.Summary(), nil
			}
			if snap.State == session.StateIdle && done == nil {
				return s.Summary(), nil
			}
		}
	}
}
