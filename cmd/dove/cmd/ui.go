package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dove-unipi/dove/internal/lookup"
	"github.com/dove-unipi/dove/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "ui <room>",
	Short: "Browse a room's schedule in the interactive TUI",
	Long: `Launch an interactive terminal view of one room: its state right now and
the lessons of the day. Use ←/→ to change day, t for today, r to refresh.`,
	Args:        cobra.MinimumNArgs(1),
	RunE:        runTUI,
	Annotations: map[string]string{needsCalendar: "yes"},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringP("date", "d", "", "day to open (oggi, domani, ieri or YYYY-MM-DD)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	room, err := findRoom(args)
	if err != nil {
		return err
	}
	dateArg, _ := cmd.Flags().GetString("date")
	date, err := lookup.ParseDay(dateArg, svc.Now(), room.Campus.Location)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(svc, room, date), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
