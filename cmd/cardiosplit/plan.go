package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowaak/cardiosplit/internal/interval"
	"github.com/lowaak/cardiosplit/internal/session"
)

// durationFlags are the three minute values shared by plan and run
type durationFlags struct {
	total string
	run   string
	walk  string
}

func (f *durationFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.total, "total", "", "total workout time in minutes")
	cmd.Flags().StringVar(&f.run, "run", "", "run interval in minutes")
	cmd.Flags().StringVar(&f.walk, "walk", "", "walk interval in minutes (0 for a continuous run)")
}

// durations parses and validates the flags
func (f *durationFlags) durations() (session.Durations, error) {
	d, err := session.ParseDurations(f.total, f.run, f.walk)
	if err != nil {
		return session.Durations{}, err
	}
	if err := session.Validate(d); err != nil {
		return session.Durations{}, err
	}
	return d, nil
}

var planFlags durationFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the run/walk phases a workout would use",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planFlags.add(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := planFlags.durations()
	if err != nil {
		return err
	}

	plan := interval.BuildPlan(d.Total, d.Run, d.Walk, cfg.Policy())
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderPlan(plan))
	return err
}
