package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/session"
	"github.com/lowaak/cardiosplit/internal/settings"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeSetup     UIMode = iota // Duration entry and theme selection
	UIModeDashboard               // Prep countdown and the running session
	UIModeSummary                 // Report of the finished session
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeSetup, DisplayName: "Setup"},
	{Mode: UIModeDashboard, DisplayName: "Dashboard"},
	{Mode: UIModeSummary, DisplayName: "Summary"},
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// modeForState picks the screen that shows a session state. The UI never
// switches screens on its own; it follows the session.
func modeForState(state session.State) UIMode {
	switch {
	case state.Running():
		return UIModeDashboard
	case state == session.StateCompleted:
		return UIModeSummary
	default:
		return UIModeSetup
	}
}

// Palette holds the colors of one theme
type Palette struct {
	Background tcell.Color
	Text       tcell.Color
	Accent     tcell.Color
	Run        tcell.Color
	Walk       tcell.Color
	Paused     tcell.Color
	Flash      tcell.Color
}

var palettes = map[settings.Theme]Palette{
	settings.ThemeMaroon: {
		Background: tcell.NewRGBColor(0x80, 0x00, 0x00),
		Text:       tcell.ColorWhite,
		Accent:     tcell.ColorYellow,
		Run:        tcell.ColorOrangeRed,
		Walk:       tcell.ColorLightGreen,
		Paused:     tcell.ColorGray,
		Flash:      tcell.ColorWhite,
	},
	settings.ThemeBlack: {
		Background: tcell.ColorBlack,
		Text:       tcell.ColorWhite,
		Accent:     tcell.ColorYellow,
		Run:        tcell.ColorRed,
		Walk:       tcell.ColorGreen,
		Paused:     tcell.ColorGray,
		Flash:      tcell.ColorWhite,
	},
	settings.ThemeWhite: {
		Background: tcell.ColorWhite,
		Text:       tcell.ColorBlack,
		Accent:     tcell.ColorNavy,
		Run:        tcell.ColorMaroon,
		Walk:       tcell.ColorDarkGreen,
		Paused:     tcell.ColorDarkGray,
		Flash:      tcell.ColorBlack,
	},
}

// PaletteFor returns the colors of theme, falling back to maroon
func PaletteFor(theme settings.Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[settings.ThemeMaroon]
}

// PhaseColor is the dashboard color for a snapshot: paused wins over the
// phase kind, and prep phases use the accent color.
func (p Palette) PhaseColor(s session.Snapshot) tcell.Color {
	if s.Paused {
		return p.Paused
	}
	kind, ok := s.CurrentKind()
	if !ok {
		return p.Accent
	}
	if kind == interval.KindWalk {
		return p.Walk
	}
	return p.Run
}
