package ui

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
)

// Workout is the session surface the UI drives
type Workout interface {
	Start(ctx context.Context, d session.Durations) error
	TogglePause() error
	ToggleLock() error
	Stop() error
	Reset() error
}

// Preferences persists what the setup screen remembers between runs
type Preferences interface {
	LastDurations() settings.LastDurations
	SaveDurations(d settings.LastDurations) error
	Theme() settings.Theme
	SetTheme(theme settings.Theme) error
}

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model   *UIModel
	workout Workout
	prefs   Preferences
	logger  *log.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, workout Workout, prefs Preferences, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if workout == nil {
		panic("UIController: workout cannot be nil")
	}
	if prefs == nil {
		panic("UIController: preferences cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &UIController{
		model:   model,
		workout: workout,
		prefs:   prefs,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// LastDurations returns the form values of the last started session
func (c *UIController) LastDurations() settings.LastDurations {
	return c.prefs.LastDurations()
}

// Theme returns the selected theme
func (c *UIController) Theme() settings.Theme {
	return c.prefs.Theme()
}

// StartFromForm parses the three minute fields and starts a session. The
// fields are remembered only once the session has actually started.
func (c *UIController) StartFromForm(total, run, walk string) {
	d, err := session.ParseDurations(total, run, walk)
	if err != nil {
		c.logger.Printf("UIController: Start rejected: %v", err)
		c.model.SetMessage(userMessage(err))
		return
	}

	if err := c.workout.Start(c.ctx, d); err != nil {
		c.logger.Printf("UIController: Start failed: %v", err)
		c.model.SetMessage(userMessage(err))
		return
	}
	c.model.SetMessage("")

	last := settings.LastDurations{Total: total, Run: run, Walk: walk}
	if err := c.prefs.SaveDurations(last); err != nil {
		c.logger.Printf("UIController: Failed to save durations: %v", err)
	}
}

// TogglePause pauses or resumes the running session
func (c *UIController) TogglePause() {
	c.report("pause", c.workout.TogglePause())
}

// ToggleLock locks or unlocks the pause and stop controls
func (c *UIController) ToggleLock() {
	c.report("lock", c.workout.ToggleLock())
}

// StopWorkout ends the session early
func (c *UIController) StopWorkout() {
	c.report("stop", c.workout.Stop())
}

// NewSession leaves the summary and returns to the setup screen
func (c *UIController) NewSession() {
	c.report("reset", c.workout.Reset())
}

// SelectTheme stores the theme picked on the setup screen
func (c *UIController) SelectTheme(name string) {
	theme, err := settings.ParseTheme(name)
	if err != nil {
		c.logger.Printf("UIController: %v", err)
		return
	}
	if theme == c.prefs.Theme() {
		return
	}
	if err := c.prefs.SetTheme(theme); err != nil {
		c.logger.Printf("UIController: Failed to save theme: %v", err)
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// Shutdown cancels a Start that is still waiting for permissions
func (c *UIController) Shutdown() {
	c.cancel()
}

func (c *UIController) report(action string, err error) {
	if err == nil {
		return
	}
	c.logger.Printf("UIController: %s: %v", action, err)
	c.model.SetMessage(userMessage(err))
}

func userMessage(err error) string {
	var validationErr *session.ValidationError
	var permissionErr *session.PermissionDeniedError
	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s time: %s", validationErr.Field, validationErr.Reason)
	case errors.As(err, &permissionErr):
		return permissionErr.Error()
	case errors.Is(err, session.ErrLocked):
		return "Controls are locked. Press L to unlock."
	default:
		return err.Error()
	}
}
