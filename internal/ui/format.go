package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/session"
)

const controlsRule = "  [gray]─────────────────────────[-]\n"

// colorTag renders c as a tview color tag
func colorTag(c tcell.Color) string {
	return "[" + c.String() + "]"
}

func phaseLabel(phase interval.Phase) string {
	if phase.Kind == interval.KindGo {
		return "GO!"
	}
	return strings.ToUpper(phase.Kind.String())
}

// formatDashboard renders the prep countdown or the running session
func formatDashboard(s session.Snapshot, p Palette) string {
	if s.State.Prepping() {
		return formatPrep(s, p)
	}
	if s.State != session.StateActive {
		return "\n  [gray]No session running[-]\n"
	}

	var text strings.Builder
	text.WriteString("\n")

	color := colorTag(p.PhaseColor(s))
	fmt.Fprintf(&text, "  %s%s[-]  [gray]interval %d/%d[-]", color, phaseLabel(s.Phase), s.PhaseIndex+1, s.PlanLen)
	if s.Paused {
		text.WriteString("  [gray](PAUSED)[-]")
	}
	if s.Locked {
		fmt.Fprintf(&text, "  %s[LOCKED][-]", colorTag(p.Accent))
	}
	text.WriteString("\n\n")

	fmt.Fprintf(&text, "  [gray]Remaining:[-]  %s%s[-]\n", color, session.FormatClock(s.Remaining))
	fmt.Fprintf(&text, "  [gray]Elapsed:[-]    %s / %s\n", session.FormatClock(s.Elapsed), session.FormatClock(s.PlanTotal))
	fmt.Fprintf(&text, "  [gray]Run:[-]        %s\n", session.FormatClock(s.RunElapsed))
	fmt.Fprintf(&text, "  [gray]Walk:[-]       %s\n\n", session.FormatClock(s.WalkElapsed()))

	fmt.Fprintf(&text, "  [gray]Distance:[-]   %s mi\n", session.FormatMiles(s.Telemetry.Meters()))
	fmt.Fprintf(&text, "  [gray]Steps:[-]      %d\n\n", s.Telemetry.Steps)

	if s.HasNext {
		fmt.Fprintf(&text, "  [gray]Next:[-] %s for %s\n", s.Next.Kind, session.FormatClock(s.Next.Duration))
	} else {
		text.WriteString("  [gray]Next:[-] [green]Finish![-]\n")
	}

	text.WriteString("\n" + controlsRule)
	switch {
	case s.Locked:
		text.WriteString("  [yellow]L[-] Unlock\n")
	case s.Paused:
		text.WriteString("  [yellow]Space[-] Resume  |  [yellow]L[-] Lock  |  [yellow]X[-] Stop\n")
	default:
		text.WriteString("  [yellow]Space[-] Pause  |  [yellow]L[-] Lock  |  [yellow]X[-] Stop\n")
	}
	return text.String()
}

func formatPrep(s session.Snapshot, p Palette) string {
	var text strings.Builder
	fmt.Fprintf(&text, "\n\n\n  %s%s[-]\n\n", colorTag(p.Accent), phaseLabel(s.Phase))
	if s.HasNext {
		fmt.Fprintf(&text, "  [gray]First up:[-] %s for %s\n", s.Next.Kind, session.FormatClock(s.Next.Duration))
	}
	if s.Locked {
		fmt.Fprintf(&text, "\n  %s[LOCKED][-]\n", colorTag(p.Accent))
	}
	text.WriteString("\n" + controlsRule)
	text.WriteString("  [yellow]L[-] Lock  |  [yellow]X[-] Stop\n")
	return text.String()
}

// formatSummary renders the end-of-session report
func formatSummary(sum session.Summary, p Palette) string {
	var text strings.Builder
	text.WriteString("\n")
	if sum.Finished {
		fmt.Fprintf(&text, "  %sWorkout complete![-]\n\n", colorTag(p.Accent))
	} else {
		fmt.Fprintf(&text, "  %sWorkout stopped[-]\n\n", colorTag(p.Accent))
	}

	fmt.Fprintf(&text, "  [gray]Total time:[-]      %s\n", session.FormatClock(sum.Elapsed))
	fmt.Fprintf(&text, "  [gray]Run time:[-]        %s\n", session.FormatClock(sum.RunElapsed))
	fmt.Fprintf(&text, "  [gray]Walk time:[-]       %s\n\n", session.FormatClock(sum.WalkElapsed))

	fmt.Fprintf(&text, "  [gray]Run distance:[-]    %s mi\n", session.FormatMiles(sum.RunMeters))
	fmt.Fprintf(&text, "  [gray]Walk distance:[-]   %s mi\n", session.FormatMiles(sum.WalkMeters))
	fmt.Fprintf(&text, "  [gray]Total distance:[-]  %s mi\n", session.FormatMiles(sum.TotalMeters()))
	fmt.Fprintf(&text, "  [gray]Steps:[-]           %d\n\n", sum.Steps)

	fmt.Fprintf(&text, "  [gray]Started:[-]         %s\n", sum.Started())
	fmt.Fprintf(&text, "  [gray]Ended:[-]           %s\n", sum.Ended())

	text.WriteString("\n" + controlsRule)
	text.WriteString("  [yellow]Enter[-] New session  |  [yellow]Esc[-] Quit\n")
	return text.String()
}
