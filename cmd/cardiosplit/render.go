package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/session"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	runStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("167"))
	walkStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("71"))
	prepStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(16)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

func kindStyle(kind interval.Kind) lipgloss.Style {
	switch kind {
	case interval.KindRun:
		return runStyle
	case interval.KindWalk:
		return walkStyle
	default:
		return prepStyle
	}
}

// renderPlan renders the phases of plan as a table with start offsets
func renderPlan(plan interval.Plan) string {
	numCol := lipgloss.NewStyle().Width(4)
	kindCol := lipgloss.NewStyle().Width(6)
	timeCol := lipgloss.NewStyle().Width(10)

	var b strings.Builder
	b.WriteString(headerStyle.Render(numCol.Render("#") + kindCol.Render("Phase") + timeCol.Render("Length") + timeCol.Render("Starts")))
	b.WriteString("\n")

	var offset time.Duration
	for i, phase := range plan.Phases() {
		row := numCol.Render(fmt.Sprintf("%d", i+1)) +
			kindStyle(phase.Kind).Inherit(kindCol).Render(phase.Kind.String()) +
			timeCol.Render(session.FormatClock(phase.Duration)) +
			mutedStyle.Inherit(timeCol).Render(session.FormatClock(offset))
		b.WriteString(row)
		b.WriteString("\n")
		offset += phase.Duration
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Total"), session.FormatClock(plan.Total()))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Running"), runStyle.Render(session.FormatClock(plan.RunTotal())))
	fmt.Fprintf(&b, "%s%s", labelStyle.Render("Walking"), walkStyle.Render(session.FormatClock(plan.WalkTotal())))
	return boxStyle.Render(b.String())
}

// renderSummary renders the end-of-session report
func renderSummary(sum session.Summary) string {
	title := "Workout complete!"
	if !sum.Finished {
		title = "Workout stopped"
	}

	rows := [][2]string{
		{"Total time", session.FormatClock(sum.Elapsed)},
		{"Run time", runStyle.Render(session.FormatClock(sum.RunElapsed))},
		{"Walk time", walkStyle.Render(session.FormatClock(sum.WalkElapsed))},
		{"Run distance", session.FormatMiles(sum.RunMeters) + " mi"},
		{"Walk distance", session.FormatMiles(sum.WalkMeters) + " mi"},
		{"Total distance", session.FormatMiles(sum.TotalMeters()) + " mi"},
		{"Steps", fmt.Sprintf("%d", sum.Steps)},
		{"Started", sum.Started()},
		{"Ended", sum.Ended()},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(row[1])
	}
	return boxStyle.Render(b.String())
}

// progressLine describes a snapshot for the headless runner, or "" when
// nothing worth printing changed since prev.
func progressLine(prev, cur session.Snapshot) string {
	if cur.Generation == prev.Generation && cur.State == prev.State && cur.PhaseIndex == prev.PhaseIndex && cur.Paused == prev.Paused {
		return ""
	}

	switch {
	case cur.State.Prepping():
		label := strings.ToUpper(cur.Phase.Kind.String())
		if cur.Phase.Kind == interval.KindGo {
			label = "GO!"
		}
		return prepStyle.Render(label)
	case cur.State == session.StateActive && cur.Paused:
		return mutedStyle.Render(fmt.Sprintf("Paused at %s", session.FormatClock(cur.Elapsed)))
	case cur.State == session.StateActive:
		line := fmt.Sprintf("%s %s  %s",
			kindStyle(cur.Phase.Kind).Render(strings.ToUpper(cur.Phase.Kind.String())),
			session.FormatClock(cur.Phase.Duration),
			mutedStyle.Render(fmt.Sprintf("interval %d/%d, %s elapsed", cur.PhaseIndex+1, cur.PlanLen, session.FormatClock(cur.Elapsed))))
		return line
	}
	return ""
}
