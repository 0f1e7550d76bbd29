package session

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/interval"
)

var t0 = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

func secs(total, run, walk int) Durations {
	return Durations{
		Total: time.Duration(total) * time.Second,
		Run:   time.Duration(run) * time.Second,
		Walk:  time.Duration(walk) * time.Second,
	}
}

// startActive starts a session and runs the three prep ticks
func startActive(t *testing.T, m *Machine, d Durations) Outcome {
	t.Helper()
	_, err := m.Start(d, t0)
	require.NoError(t, err)
	m.Tick(t0.Add(time.Second))
	m.Tick(t0.Add(2 * time.Second))
	out := m.Tick(t0.Add(3 * time.Second))
	require.Equal(t, StateActive, m.State())
	return out
}

func TestMachine_StartRejectsInvalidDurations(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)

	cases := []struct {
		d     Durations
		field string
	}{
		{secs(0, 1, 1), "total"},
		{Durations{Total: MaxTotal + time.Second, Run: time.Minute}, "total"},
		{secs(10, 0, 1), "run"},
		{Durations{Total: time.Minute, Run: time.Minute, Walk: -time.Second}, "walk"},
	}
	for _, c := range cases {
		out, err := m.Start(c.d, t0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, c.field, verr.Field)
		assert.Equal(t, Outcome{}, out)
		assert.Equal(t, StateIdle, m.State())
		assert.Equal(t, uint64(0), m.Generation())
	}
}

func TestMachine_PrepSequence(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)

	out, err := m.Start(secs(30, 10, 5), t0)
	require.NoError(t, err)
	assert.Equal(t, cue.PrepTick, out.Cue)
	assert.True(t, out.StartTicker)
	assert.Equal(t, StatePreppingReady, m.State())

	snap := m.Snapshot()
	assert.Equal(t, interval.KindReady, snap.Phase.Kind)
	require.True(t, snap.HasNext)
	assert.Equal(t, interval.KindRun, snap.Next.Kind)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, t0, snap.StartedAt)

	out = m.Tick(t0)
	assert.Equal(t, cue.PrepTick, out.Cue)
	assert.Equal(t, StatePreppingSet, m.State())

	out = m.Tick(t0)
	assert.Equal(t, cue.PrepTick, out.Cue)
	assert.Equal(t, StatePreppingGo, m.State())

	out = m.Tick(t0)
	assert.Equal(t, cue.PhaseStartRun, out.Cue)
	assert.True(t, out.Subscribe)
	assert.True(t, out.Reanchor)

	snap = m.Snapshot()
	assert.Equal(t, StateActive, snap.State)
	assert.Equal(t, 10*time.Second, snap.Remaining)
	assert.Equal(t, time.Duration(0), snap.Elapsed)
}

func TestMachine_OneSecondSessionCompletesAfterOneTick(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(1, 1, 0))

	end := t0.Add(4 * time.Second)
	out := m.Tick(end)
	assert.Equal(t, cue.SessionComplete, out.Cue)
	assert.True(t, out.StopTicker)
	assert.True(t, out.Release)

	snap := m.Snapshot()
	assert.Equal(t, StateCompleted, snap.State)
	assert.True(t, snap.Finished)
	assert.Equal(t, time.Second, snap.Elapsed)
	assert.Equal(t, time.Second, snap.RunElapsed)
	assert.Equal(t, end, snap.EndedAt)

	// Further ticks are ignored
	assert.Equal(t, Outcome{}, m.Tick(end.Add(time.Second)))
}

func TestMachine_CountdownAndTransitionCues(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(10, 5, 5))

	var cues []cue.ID
	for i := 0; i < 10; i++ {
		cues = append(cues, m.Tick(t0).Cue)
	}

	assert.Equal(t, []cue.ID{
		cue.None, cue.CountdownInRun, cue.CountdownInRun, cue.CountdownInRun, cue.PhaseStartWalk,
		cue.None, cue.CountdownInWalk, cue.CountdownInWalk, cue.CountdownInWalk, cue.SessionComplete,
	}, cues)

	snap := m.Snapshot()
	assert.Equal(t, 10*time.Second, snap.Elapsed)
	assert.Equal(t, 5*time.Second, snap.RunElapsed)
	assert.Equal(t, 5*time.Second, snap.WalkElapsed())
}

func TestMachine_TransitionRequestsReanchor(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(4, 2, 2))

	assert.False(t, m.Tick(t0).Reanchor)
	out := m.Tick(t0)
	assert.True(t, out.Reanchor)
	assert.Equal(t, 2*time.Second, m.Snapshot().Remaining)
	assert.Equal(t, 1, m.Snapshot().PhaseIndex)
}

func TestMachine_PausedTicksChangeNothing(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(60, 30, 30))
	m.Tick(t0)

	_, err := m.TogglePause()
	require.NoError(t, err)
	before := m.Snapshot()

	for i := 0; i < 5; i++ {
		assert.Equal(t, Outcome{}, m.Tick(t0))
	}
	assert.Equal(t, before, m.Snapshot())

	_, err = m.TogglePause()
	require.NoError(t, err)
	m.Tick(t0)
	after := m.Snapshot()
	assert.Equal(t, before.Remaining-time.Second, after.Remaining)
	assert.Equal(t, before.Elapsed+time.Second, after.Elapsed)
}

func TestMachine_LockBlocksPauseAndStop(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(60, 30, 30))
	m.Tick(t0)

	_, err := m.ToggleLock()
	require.NoError(t, err)

	_, err = m.TogglePause()
	assert.ErrorIs(t, err, ErrLocked)
	_, err = m.Stop(t0)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, StateActive, m.State())

	// Ticks keep running while locked
	m.Tick(t0)
	assert.Equal(t, 2*time.Second, m.Snapshot().Elapsed)

	_, err = m.ToggleLock()
	require.NoError(t, err)
	_, err = m.TogglePause()
	assert.NoError(t, err)
}

func TestMachine_PauseAndLockRequireActive(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)

	_, err := m.TogglePause()
	assert.ErrorIs(t, err, ErrNotActive)
	_, err = m.ToggleLock()
	assert.ErrorIs(t, err, ErrNotActive)

	_, err = m.Start(secs(10, 5, 5), t0)
	require.NoError(t, err)
	_, err = m.TogglePause()
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestMachine_StopFreezesAndIsIdempotent(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(60, 30, 30))
	m.Tick(t0)
	m.Tick(t0)
	m.RecordDistance(7)

	end := t0.Add(time.Minute)
	out, err := m.Stop(end)
	require.NoError(t, err)
	assert.True(t, out.StopTicker)
	assert.True(t, out.Release)
	assert.Equal(t, cue.None, out.Cue)

	frozen := m.Snapshot()
	assert.Equal(t, StateCompleted, frozen.State)
	assert.False(t, frozen.Finished)
	assert.Equal(t, end, frozen.EndedAt)
	assert.Equal(t, 7.0, frozen.Telemetry.RunMeters)

	out, err = m.Stop(end.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, frozen, m.Snapshot())
}

func TestMachine_StopBeforeAnyElapsedReturnsToIdle(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	_, err := m.Start(secs(60, 30, 30), t0)
	require.NoError(t, err)
	m.Tick(t0)
	beforeGen := m.Generation()

	_, err = m.Stop(t0)
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, time.Duration(0), snap.Elapsed)
	assert.Equal(t, time.Duration(0), snap.RunElapsed)
	assert.Zero(t, snap.Telemetry.Meters())
	assert.True(t, snap.StartedAt.IsZero())
	assert.Greater(t, m.Generation(), beforeGen)

	_, err = m.Stop(t0)
	assert.NoError(t, err)
}

func TestMachine_ResetClearsEverything(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(60, 30, 30))
	m.Tick(t0)
	m.RecordSteps(12)
	_, err := m.ToggleLock()
	require.NoError(t, err)
	beforeGen := m.Generation()

	out := m.Reset()
	assert.True(t, out.Changed)
	assert.True(t, out.StopTicker)

	snap := m.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Locked)
	assert.Zero(t, snap.Telemetry.Steps)
	assert.Empty(t, snap.ID)
	assert.Equal(t, beforeGen+1, snap.Generation)
}

func TestMachine_StartWhileRunningFails(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	_, err := m.Start(secs(60, 30, 30), t0)
	require.NoError(t, err)
	_, err = m.Start(secs(60, 30, 30), t0)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestMachine_StartAfterCompletionBeginsFreshSession(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	startActive(t, m, secs(1, 1, 0))
	m.RecordSteps(30)
	m.Tick(t0)
	first := m.Snapshot()
	require.Equal(t, StateCompleted, first.State)

	_, err := m.Start(secs(2, 1, 1), t0.Add(time.Hour))
	require.NoError(t, err)
	second := m.Snapshot()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.Generation, first.Generation)
	assert.Zero(t, second.Telemetry.Steps)
	assert.True(t, second.EndedAt.IsZero())
}

func TestMachine_RecordDistanceRouting(t *testing.T) {
	m := NewMachine(interval.PolicyRunFirst)
	_, err := m.Start(secs(4, 2, 2), t0)
	require.NoError(t, err)

	assert.False(t, m.RecordDistance(100), "prep distance must be dropped")
	assert.False(t, m.RecordSteps(100))

	m.Tick(t0)
	m.Tick(t0)
	m.Tick(t0)
	assert.True(t, m.RecordDistance(10))

	_, err = m.TogglePause()
	require.NoError(t, err)
	assert.False(t, m.RecordDistance(50))
	assert.True(t, m.RecordSteps(20))
	_, err = m.TogglePause()
	require.NoError(t, err)

	m.Tick(t0)
	m.Tick(t0)
	kind, ok := m.CurrentKind()
	require.True(t, ok)
	require.Equal(t, interval.KindWalk, kind)
	assert.True(t, m.RecordDistance(4))

	m.Tick(t0)
	m.Tick(t0)
	require.Equal(t, StateCompleted, m.State())
	assert.False(t, m.RecordDistance(99))

	totals := m.Snapshot().Telemetry
	assert.Equal(t, 10.0, totals.RunMeters)
	assert.Equal(t, 4.0, totals.WalkMeters)
	assert.Equal(t, 20, totals.Steps)
}

func TestMachine_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("run time never exceeds elapsed and the plan runs to completion", prop.ForAll(
		func(total, run, walk int, pauseEvery int) bool {
			m := NewMachine(interval.PolicyRunFirst)
			if _, err := m.Start(secs(total, run, walk), t0); err != nil {
				return false
			}
			plan := m.Plan()
			starts := 0
			for i := 0; i < 3; i++ {
				m.Tick(t0)
			}
			starts++

			for ticks := 0; m.State() == StateActive; ticks++ {
				if ticks%pauseEvery == 0 {
					// Pause, tick once, resume
					if _, err := m.TogglePause(); err != nil {
						return false
					}
					m.Tick(t0)
					if _, err := m.TogglePause(); err != nil {
						return false
					}
				}
				out := m.Tick(t0)
				if out.Cue == cue.PhaseStartRun || out.Cue == cue.PhaseStartWalk {
					starts++
				}
				snap := m.Snapshot()
				if snap.RunElapsed > snap.Elapsed || snap.Remaining < 0 {
					return false
				}
			}

			snap := m.Snapshot()
			return snap.State == StateCompleted &&
				snap.Elapsed == plan.Total() &&
				snap.RunElapsed == plan.RunTotal() &&
				starts == plan.Len()
		},
		gen.IntRange(1, 900), gen.IntRange(1, 120), gen.IntRange(0, 120), gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
