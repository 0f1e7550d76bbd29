package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/lowaak/cardiosplit/internal/clock"
	"github.com/lowaak/cardiosplit/internal/config"
	"github.com/lowaak/cardiosplit/internal/cue"
	"github.com/lowaak/cardiosplit/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal UI (default)",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Log lines also go to the UI's log pane
	uiLogChan := make(chan string, 100)
	rt, err := setup(cmd, config.ChanWriter(uiLogChan))
	if err != nil {
		return err
	}
	defer rt.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	app := tview.NewApplication().SetScreen(screen)
	view := ui.NewCursesUIView(rt.logger, app)

	var player cue.Player = cue.LogPlayer{Logger: rt.logger}
	if rt.cfg.Cues.Bell {
		player = ui.NewScreenPlayer(screen)
	}
	dispatcher, err := rt.newDispatcher(player, ui.NewFlashHaptics(view.Flash))
	if err != nil {
		return err
	}

	mgr, err := rt.newManager(clock.NewTicker(), dispatcher)
	if err != nil {
		dispatcher.Close()
		return err
	}

	model := ui.NewUIModel(mgr, rt.settings, rt.logger, uiLogChan)
	controller := ui.NewUIController(model, mgr, rt.settings, rt.logger)
	base := ui.NewBaseUIView(ui.NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      model,
		UIController: controller,
		Logger:       rt.logger,
	})

	runErr := base.Run()

	// Views first so nothing draws into a stopped app, then the session
	base.Shutdown()
	controller.Shutdown()
	mgr.Shutdown()
	dispatcher.Close()
	model.Shutdown()

	return runErr
}
