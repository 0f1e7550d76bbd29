package ui

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/cardiosplit/internal/events"
	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
)

// fakeWorkout records calls and publishes snapshots like the workout manager
type fakeWorkout struct {
	mu        sync.Mutex
	started   []session.Durations
	startErr  error
	actionErr error
	pauses    int
	locks     int
	stops     int
	resets    int
	snapshots *events.ChannelEvent[session.Snapshot]
}

func newFakeWorkout() *fakeWorkout {
	w := &fakeWorkout{snapshots: events.NewLatestChannelEvent[session.Snapshot]()}
	w.snapshots.Notify(session.Snapshot{State: session.StateIdle})
	return w
}

func (w *fakeWorkout) Start(_ context.Context, d session.Durations) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.startErr != nil {
		return w.startErr
	}
	w.started = append(w.started, d)
	return nil
}

func (w *fakeWorkout) TogglePause() error { return w.count(&w.pauses) }
func (w *fakeWorkout) ToggleLock() error  { return w.count(&w.locks) }
func (w *fakeWorkout) Stop() error        { return w.count(&w.stops) }
func (w *fakeWorkout) Reset() error       { return w.count(&w.resets) }

func (w *fakeWorkout) count(n *int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	*n++
	return w.actionErr
}

func (w *fakeWorkout) ListenToSnapshots(ch chan session.Snapshot) func() {
	return w.snapshots.Listen(ch)
}

func (w *fakeWorkout) Started() []session.Durations {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]session.Durations(nil), w.started...)
}

// fakePrefs is an in-memory settings store
type fakePrefs struct {
	mu      sync.Mutex
	last    settings.LastDurations
	theme   settings.Theme
	saves   int
	setErr  error
	themeEv *events.CallbackEvent[settings.Theme]
}

func newFakePrefs() *fakePrefs {
	p := &fakePrefs{theme: settings.ThemeMaroon, themeEv: events.NewCallbackEvent[settings.Theme](true)}
	p.themeEv.Notify(p.theme)
	return p
}

func (p *fakePrefs) LastDurations() settings.LastDurations {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *fakePrefs) SaveDurations(d settings.LastDurations) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = d
	p.saves++
	return nil
}

func (p *fakePrefs) Theme() settings.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

func (p *fakePrefs) SetTheme(theme settings.Theme) error {
	p.mu.Lock()
	p.theme = theme
	err := p.setErr
	p.mu.Unlock()
	p.themeEv.Notify(theme)
	return err
}

func (p *fakePrefs) ListenToTheme(fn func(settings.Theme)) func() {
	return p.themeEv.Listen(fn)
}

type controllerHarness struct {
	workout    *fakeWorkout
	prefs      *fakePrefs
	model      *UIModel
	controller *UIController
}

func newControllerHarness(t *testing.T) *controllerHarness {
	t.Helper()
	logger := log.New(&bytes.Buffer{}, "", 0)
	h := &controllerHarness{workout: newFakeWorkout(), prefs: newFakePrefs()}
	h.model = NewUIModel(h.workout, h.prefs, logger, make(chan string))
	h.controller = NewUIController(h.model, h.workout, h.prefs, logger)
	t.Cleanup(func() {
		h.controller.Shutdown()
		h.model.Shutdown()
	})
	return h
}

func TestUIController_StartFromFormStartsAndRemembers(t *testing.T) {
	h := newControllerHarness(t)

	h.controller.StartFromForm("30", "5", "2.5")

	started := h.workout.Started()
	require.Len(t, started, 1)
	assert.Equal(t, session.Durations{Total: 30 * time.Minute, Run: 5 * time.Minute, Walk: 150 * time.Second}, started[0])
	assert.Equal(t, settings.LastDurations{Total: "30", Run: "5", Walk: "2.5"}, h.prefs.LastDurations())
	assert.Empty(t, h.model.GetUIState().Message)
}

func TestUIController_MissingFieldShowsMessage(t *testing.T) {
	h := newControllerHarness(t)

	h.controller.StartFromForm("30", "", "3")

	assert.Empty(t, h.workout.Started())
	assert.Equal(t, session.MissingFieldsMessage, h.model.GetUIState().Message)
	assert.Zero(t, h.prefs.saves)
}

func TestUIController_BadNumberShowsMessage(t *testing.T) {
	h := newControllerHarness(t)

	h.controller.StartFromForm("30", "5", "abc")

	assert.Empty(t, h.workout.Started())
	assert.Contains(t, h.model.GetUIState().Message, "walk")
}

func TestUIController_RejectedStartDoesNotRemember(t *testing.T) {
	h := newControllerHarness(t)
	h.workout.startErr = &session.PermissionDeniedError{Capability: "location"}

	h.controller.StartFromForm("30", "5", "3")

	assert.Equal(t, "Permission to access location was denied", h.model.GetUIState().Message)
	assert.Zero(t, h.prefs.saves)

	h.workout.startErr = &session.ValidationError{Field: "run", Reason: "must be at least one second"}
	h.controller.StartFromForm("30", "0", "3")
	assert.Equal(t, "Invalid run time: must be at least one second", h.model.GetUIState().Message)
}

func TestUIController_SessionControls(t *testing.T) {
	h := newControllerHarness(t)

	h.controller.TogglePause()
	h.controller.ToggleLock()
	h.controller.StopWorkout()
	h.controller.NewSession()

	assert.Equal(t, 1, h.workout.pauses)
	assert.Equal(t, 1, h.workout.locks)
	assert.Equal(t, 1, h.workout.stops)
	assert.Equal(t, 1, h.workout.resets)
	assert.Empty(t, h.model.GetUIState().Message)
}

func TestUIController_LockedControlShowsMessage(t *testing.T) {
	h := newControllerHarness(t)
	h.workout.actionErr = session.ErrLocked

	h.controller.TogglePause()

	assert.Contains(t, h.model.GetUIState().Message, "locked")
}

func TestUIController_SelectTheme(t *testing.T) {
	h := newControllerHarness(t)

	h.controller.SelectTheme("White")
	assert.Equal(t, settings.ThemeWhite, h.prefs.Theme())
	assert.Equal(t, settings.ThemeWhite, h.model.GetUIState().Theme)

	h.controller.SelectTheme("purple")
	assert.Equal(t, settings.ThemeWhite, h.prefs.Theme())
}

func TestUIController_SelectThemeSaveErrorIsLogged(t *testing.T) {
	h := newControllerHarness(t)
	h.prefs.setErr = errors.New("disk full")

	assert.NotPanics(t, func() { h.controller.SelectTheme("black") })
	assert.Equal(t, settings.ThemeBlack, h.model.GetUIState().Theme)
}

func TestNewUIController_NilDependenciesPanic(t *testing.T) {
	h := newControllerHarness(t)
	logger := log.New(&bytes.Buffer{}, "", 0)

	assert.Panics(t, func() { NewUIController(nil, h.workout, h.prefs, logger) })
	assert.Panics(t, func() { NewUIController(h.model, nil, h.prefs, logger) })
	assert.Panics(t, func() { NewUIController(h.model, h.workout, nil, logger) })
	assert.Panics(t, func() { NewUIController(h.model, h.workout, h.prefs, nil) })
}
