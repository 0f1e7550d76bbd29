package ui

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/cardiosplit/internal/events"
	"github.com/lowaak/cardiosplit/internal/go_func_utils"
	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
)

// SnapshotSource publishes session state changes
type SnapshotSource interface {
	ListenToSnapshots(ch chan session.Snapshot) func()
}

// ThemeSource publishes the selected theme
type ThemeSource interface {
	ListenToTheme(fn func(settings.Theme)) func()
}

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode    UIMode
	Message string
	Theme   settings.Theme
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	snapshotEvent         *events.ChannelEvent[session.Snapshot]
	snapshot              session.Snapshot
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	unregisterTheme       func()
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

func NewUIModel(source SnapshotSource, themes ThemeSource, logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if source == nil {
		panic("UIModel: snapshot source cannot be nil")
	}
	if themes == nil {
		panic("UIModel: theme source cannot be nil")
	}
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeSetup, Theme: settings.ThemeMaroon},
		snapshotEvent:         events.NewLatestChannelEvent[session.Snapshot](),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}
	model.uiStateEvent.Notify(model.uiState)

	model.unregisterTheme = themes.ListenToTheme(model.setTheme)

	// Follow the session so the screen always matches its state
	snapshotChan := make(chan session.Snapshot, 1)
	unregister := source.ListenToSnapshots(snapshotChan)
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModel.snapshots", func() {
		defer model.wg.Done()
		defer unregister()
		model.listenToSnapshots(ctx, snapshotChan)
	})

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModel.logs", func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.unregisterTheme()
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMessage shows msg on the setup screen. An empty msg clears it.
func (m *UIModel) SetMessage(msg string) {
	m.updateUIState(func(state *UIState) { state.Message = msg })
}

func (m *UIModel) setTheme(theme settings.Theme) {
	m.updateUIState(func(state *UIState) { state.Theme = theme })
}

func (m *UIModel) updateUIState(update func(*UIState)) {
	m.mu.Lock()
	before := m.uiState
	update(&m.uiState)
	state := m.uiState
	m.mu.Unlock()

	if state == before {
		return
	}
	m.uiStateEvent.Notify(state)
}

// ListenToSnapshots registers a channel to receive the session as the
// views should render it. Slow readers only see the newest snapshot.
func (m *UIModel) ListenToSnapshots(ch chan session.Snapshot) func() {
	return m.snapshotEvent.Listen(ch)
}

// GetSnapshot returns the last session snapshot seen by the model
func (m *UIModel) GetSnapshot() session.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *UIModel) listenToSnapshots(ctx context.Context, ch chan session.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			m.setSnapshot(snap)
		}
	}
}

func (m *UIModel) setSnapshot(snap session.Snapshot) {
	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	// Snapshot first so a view switching screens already has the data
	m.snapshotEvent.Notify(snap)

	mode := modeForState(snap.State)
	m.updateUIState(func(state *UIState) {
		if state.Mode != mode && mode != UIModeSetup {
			state.Message = ""
		}
		state.Mode = mode
	})
}

func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				// Channel closed
				return
			}

			// Store in log lines buffer (max 1000 lines)
			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			// Notify listeners for immediate display
			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
