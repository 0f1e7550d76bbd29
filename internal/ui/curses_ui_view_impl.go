package ui

import (
	"fmt"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/cardiosplit/internal/go_func_utils"
	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
)

// Page names for tview.Pages
const (
	pageSetup     = "setup"
	pageDashboard = "dashboard"
	pageSummary   = "summary"
)

const (
	labelTotal = "Total time (min)"
	labelRun   = "Run time (min)"
	labelWalk  = "Walk time (min)"
	labelTheme = "Theme"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Setup mode components
	setupFlex   *tview.Flex
	setupForm   *tview.Form
	totalField  *tview.InputField
	runField    *tview.InputField
	walkField   *tview.InputField
	messageText *tview.TextView

	// Dashboard mode components
	dashboardPanel *tview.TextView

	// Summary mode components
	summaryPanel *tview.TextView

	mu       sync.Mutex
	palette  Palette
	snapshot session.Snapshot
	flashing bool

	// Draws are coalesced onto one goroutine while the app runs, since
	// tview blocks a Draw issued after the event loop has exited.
	drawChan chan struct{}
	stopChan chan struct{}
	running  bool
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIView: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIView: app cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		currentMode: UIModeSetup,
		palette:     PaletteFor(settings.ThemeMaroon),
		drawChan:    make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initSetupMode(controller)
	ui.initDashboardMode()
	ui.initSummaryMode()

	ui.pages.AddPage(pageSetup, ui.setupFlex, true, true)
	ui.pages.AddPage(pageDashboard, ui.dashboardPanel, true, false)
	ui.pages.AddPage(pageSummary, ui.summaryPanel, true, false)

	// Session on the left, logs on the right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)
}

// initSetupMode builds the duration form, prefilled with the last session
func (ui *CursesUIViewImpl) initSetupMode(controller *UIController) {
	last := controller.LastDurations()

	ui.totalField = newMinutesField(labelTotal, last.Total)
	ui.runField = newMinutesField(labelRun, last.Run)
	ui.walkField = newMinutesField(labelWalk, last.Walk)

	themeNames := make([]string, 0, len(settings.Themes()))
	selected := 0
	for i, theme := range settings.Themes() {
		themeNames = append(themeNames, string(theme))
		if theme == controller.Theme() {
			selected = i
		}
	}

	ui.setupForm = tview.NewForm().
		AddFormItem(ui.totalField).
		AddFormItem(ui.runField).
		AddFormItem(ui.walkField).
		AddDropDown(labelTheme, themeNames, selected, func(option string, _ int) {
			controller.SelectTheme(option)
		}).
		AddButton("Start", func() {
			ui.logger.Printf("UI: Start pressed total=%q run=%q walk=%q", ui.totalField.GetText(), ui.runField.GetText(), ui.walkField.GetText())
			controller.StartFromForm(ui.totalField.GetText(), ui.runField.GetText(), ui.walkField.GetText())
		}).
		AddButton("Quit", controller.OnEscapeKey)
	ui.setupForm.SetBorder(true).SetTitle(" New Session ")

	ui.messageText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Tab[-] Next field  |  [yellow]Enter[-] Select  |  [yellow]Esc[-] Quit")

	ui.setupFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 1, 0, false).
		AddItem(ui.setupForm, 0, 1, true).
		AddItem(ui.messageText, 2, 0, false)
}

func newMinutesField(label, value string) *tview.InputField {
	return tview.NewInputField().
		SetLabel(label).
		SetText(value).
		SetFieldWidth(8).
		SetAcceptanceFunc(tview.InputFieldFloat)
}

func (ui *CursesUIViewImpl) initDashboardMode() {
	ui.dashboardPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.dashboardPanel.SetBorder(true).SetTitle(" Session ")
}

func (ui *CursesUIViewImpl) initSummaryMode() {
	ui.summaryPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.summaryPanel.SetBorder(true).SetTitle(" Summary ")
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}
	if info, ok := GetUIModeInfo(mode); ok {
		ui.logger.Printf("UI: Switching to %s", info.DisplayName)
	}

	ui.currentMode = mode

	switch mode {
	case UIModeSetup:
		ui.pages.SwitchToPage(pageSetup)
		ui.app.SetFocus(ui.setupForm)
	case UIModeDashboard:
		ui.pages.SwitchToPage(pageDashboard)
		ui.app.SetFocus(ui.dashboardPanel)
	case UIModeSummary:
		ui.pages.SwitchToPage(pageSummary)
		ui.app.SetFocus(ui.summaryPanel)
	}
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// ApplyTheme recolors every screen
func (ui *CursesUIViewImpl) ApplyTheme(theme settings.Theme) {
	p := PaletteFor(theme)

	ui.mu.Lock()
	ui.palette = p
	snap := ui.snapshot
	ui.mu.Unlock()

	for _, box := range []*tview.Box{ui.setupFlex.Box, ui.setupForm.Box, ui.messageText.Box, ui.dashboardPanel.Box, ui.summaryPanel.Box, ui.logView.Box} {
		box.SetBackgroundColor(p.Background)
	}
	for _, tv := range []*tview.TextView{ui.messageText, ui.dashboardPanel, ui.summaryPanel, ui.logView} {
		tv.SetTextColor(p.Text)
	}
	ui.setupForm.
		SetLabelColor(p.Text).
		SetFieldBackgroundColor(p.Text).
		SetFieldTextColor(p.Background).
		SetButtonBackgroundColor(p.Accent).
		SetButtonTextColor(p.Background)

	ui.renderSnapshot(snap)
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		// Mode-specific key handlers. The setup form gets every other key.
		switch ui.currentMode {
		case UIModeDashboard:
			if event.Key() != tcell.KeyRune {
				return event
			}
			switch event.Rune() {
			case ' ':
				controller.TogglePause()
				return nil
			case 'l', 'L':
				controller.ToggleLock()
				return nil
			case 'x', 'X':
				controller.StopWorkout()
				return nil
			}
		case UIModeSummary:
			if event.Key() == tcell.KeyEnter || (event.Key() == tcell.KeyRune && (event.Rune() == 'n' || event.Rune() == 'N')) {
				controller.NewSession()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprintln(ui.logView, tview.Escape(line))
	return err
}

// SetMessage shows msg under the setup form
func (ui *CursesUIViewImpl) SetMessage(msg string) {
	if msg == "" {
		ui.messageText.SetText("")
		return
	}
	ui.messageText.SetText("[red]" + tview.Escape(msg) + "[-]")
}

// UpdateSnapshot renders the session on the dashboard and summary
func (ui *CursesUIViewImpl) UpdateSnapshot(snap session.Snapshot) {
	ui.mu.Lock()
	ui.snapshot = snap
	ui.mu.Unlock()

	ui.renderSnapshot(snap)
}

func (ui *CursesUIViewImpl) renderSnapshot(snap session.Snapshot) {
	ui.mu.Lock()
	p := ui.palette
	flashing := ui.flashing
	ui.mu.Unlock()

	ui.dashboardPanel.SetText(formatDashboard(snap, p))
	if !flashing {
		ui.dashboardPanel.SetBorderColor(p.PhaseColor(snap))
	}
	if snap.State == session.StateCompleted {
		ui.summaryPanel.SetText(formatSummary(session.BuildSummary(snap), p))
	}
}

// Flash turns the dashboard border to the flash color, or back to the phase
// color. Used to render haptic cues.
func (ui *CursesUIViewImpl) Flash(on bool) {
	ui.mu.Lock()
	ui.flashing = on
	p := ui.palette
	snap := ui.snapshot
	ui.mu.Unlock()

	if on {
		ui.dashboardPanel.SetBorderColor(p.Flash)
	} else {
		ui.dashboardPanel.SetBorderColor(p.PhaseColor(snap))
	}
	_ = ui.Draw()
}

// Draw requests a redraw. Requests made while one is pending are merged.
func (ui *CursesUIViewImpl) Draw() error {
	ui.mu.Lock()
	running := ui.running
	ui.mu.Unlock()
	if !running {
		return nil
	}

	select {
	case ui.drawChan <- struct{}{}:
	default:
	}
	return nil
}

func (ui *CursesUIViewImpl) drawLoop() {
	for {
		select {
		case <-ui.stopChan:
			return
		case <-ui.drawChan:
			ui.app.Draw()
		}
	}
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	switch ui.currentMode {
	case UIModeDashboard:
		ui.app.SetFocus(ui.dashboardPanel)
	case UIModeSummary:
		ui.app.SetFocus(ui.summaryPanel)
	default:
		ui.app.SetFocus(ui.setupForm)
	}

	ui.mu.Lock()
	ui.running = true
	ui.mu.Unlock()
	go_func_utils.SafeGo(ui.logger, "CursesUIView.draw", ui.drawLoop)

	err := ui.app.Run()

	ui.mu.Lock()
	if ui.running {
		ui.running = false
		close(ui.stopChan)
	}
	ui.mu.Unlock()
	return err
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.mu.Lock()
	if ui.running {
		ui.running = false
		close(ui.stopChan)
	}
	ui.mu.Unlock()
	ui.app.Stop()
}
