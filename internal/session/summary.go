package session

import (
	"fmt"
	"time"
)

// Placeholder stands in for a timestamp that was never recorded
const Placeholder = "--"

const metersToMiles = 0.000621371

// Summary is the end-of-session report
type Summary struct {
	ID          string
	Finished    bool
	Elapsed     time.Duration
	RunElapsed  time.Duration
	WalkElapsed time.Duration
	RunMeters   float64
	WalkMeters  float64
	Steps       int
	StartedAt   time.Time
	EndedAt     time.Time
}

// BuildSummary reads the frozen accumulators of a snapshot
func BuildSummary(s Snapshot) Summary {
	return Summary{
		ID:          s.ID,
		Finished:    s.Finished,
		Elapsed:     s.Elapsed,
		RunElapsed:  s.RunElapsed,
		WalkElapsed: s.WalkElapsed(),
		RunMeters:   s.Telemetry.RunMeters,
		WalkMeters:  s.Telemetry.WalkMeters,
		Steps:       s.Telemetry.Steps,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
	}
}

func (s Summary) TotalMeters() float64 {
	return s.RunMeters + s.WalkMeters
}

// Started renders the start time as h:mm AM/PM
func (s Summary) Started() string {
	return FormatWallClock(s.StartedAt)
}

// Ended renders the end time as h:mm AM/PM
func (s Summary) Ended() string {
	return FormatWallClock(s.EndedAt)
}

// FormatClock renders d as m:ss. Minutes are not wrapped into hours.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Miles converts meters to miles
func Miles(meters float64) float64 {
	return meters * metersToMiles
}

// FormatMiles renders meters as miles with two decimals
func FormatMiles(meters float64) string {
	return fmt.Sprintf("%.2f", Miles(meters))
}

// FormatWallClock renders t in local time as h:mm AM/PM, or Placeholder
// for the zero time.
func FormatWallClock(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Local().Format("3:04 PM")
}
