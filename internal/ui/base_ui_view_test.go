package ui

import (
	"bytes"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
)

// recordingView is a UIViewImpl that keeps what it was asked to show
type recordingView struct {
	mu          sync.Mutex
	initialized bool
	keyboard    bool
	mode        UIMode
	theme       settings.Theme
	message     string
	snapshot    session.Snapshot
	logLines    []string
	draws       int
	stopped     bool
}

func (v *recordingView) Initialize(*UIController) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.initialized = true
}

func (v *recordingView) SetupKeyboardHandlers(*UIController) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keyboard = true
}

func (v *recordingView) Run() error { return nil }

func (v *recordingView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *recordingView) Draw() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draws++
	return nil
}

func (v *recordingView) SetMode(mode UIMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

func (v *recordingView) GetCurrentMode() UIMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *recordingView) ApplyTheme(theme settings.Theme) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.theme = theme
}

func (v *recordingView) GetLogViewHeight() int { return 3 }

func (v *recordingView) ClearLogView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = nil
}

func (v *recordingView) WriteLogLine(line string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = append(v.logLines, line)
	return nil
}

func (v *recordingView) SetMessage(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = msg
}

func (v *recordingView) UpdateSnapshot(snap session.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshot = snap
}

func (v *recordingView) read(fn func(v *recordingView) bool) func() bool {
	return func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return fn(v)
	}
}

func TestBaseUIView_RendersModelChanges(t *testing.T) {
	h := newControllerHarness(t)
	logChan := make(chan string)
	logger := log.New(&bytes.Buffer{}, "", 0)
	model := NewUIModel(h.workout, h.prefs, logger, logChan)
	defer model.Shutdown()
	controller := NewUIController(model, h.workout, h.prefs, logger)

	view := &recordingView{}
	base := NewBaseUIView(NewBaseUIViewArg{UIViewImpl: view, UIModel: model, UIController: controller, Logger: logger})
	defer base.Shutdown()

	assert.True(t, view.initialized)
	assert.True(t, view.keyboard)

	h.workout.snapshots.Notify(session.Snapshot{State: session.StateActive, Remaining: time.Minute})
	require.Eventually(t, view.read(func(v *recordingView) bool {
		return v.mode == UIModeDashboard && v.snapshot.Remaining == time.Minute && v.draws > 0
	}), time.Second, 5*time.Millisecond)

	require.NoError(t, h.prefs.SetTheme(settings.ThemeWhite))
	require.Eventually(t, view.read(func(v *recordingView) bool {
		return v.theme == settings.ThemeWhite
	}), time.Second, 5*time.Millisecond)

	model.SetMessage("hello")
	require.Eventually(t, view.read(func(v *recordingView) bool {
		return v.message == "hello"
	}), time.Second, 5*time.Millisecond)

	for _, line := range []string{"a", "b", "c", "d"} {
		logChan <- line
	}
	require.Eventually(t, view.read(func(v *recordingView) bool {
		return assert.ObjectsAreEqual([]string{"b", "c", "d"}, v.logLines)
	}), time.Second, 5*time.Millisecond)

	controller.OnEscapeKey()
	require.Eventually(t, view.read(func(v *recordingView) bool {
		return v.stopped
	}), time.Second, 5*time.Millisecond)
}

func TestNewBaseUIView_NilDependenciesPanic(t *testing.T) {
	h := newControllerHarness(t)
	logger := log.New(&bytes.Buffer{}, "", 0)

	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &recordingView{}, UIModel: h.model, UIController: h.controller})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIModel: h.model, UIController: h.controller, Logger: logger})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &recordingView{}, UIController: h.controller, Logger: logger})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &recordingView{}, UIModel: h.model, Logger: logger})
	})
}
