package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dove-unipi/dove/internal/lookup"
	"github.com/dove-unipi/dove/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule <room>",
	Aliases: []string{"orario", "day"},
	Short:   "Show the lessons of a room for one day",
	Long: `Show every lesson scheduled in a room on one day.

Examples:
  dove schedule "Aula A"
  dove schedule A --date domani
  dove schedule A --date 2025-03-10`,
	Args:        cobra.MinimumNArgs(1),
	RunE:        runSchedule,
	Annotations: map[string]string{needsCalendar: "yes"},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().StringP("date", "d", "", "day to show (oggi, domani, ieri or YYYY-MM-DD)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	room, err := findRoom(args)
	if err != nil {
		return err
	}

	dateArg, _ := cmd.Flags().GetString("date")
	date, err := lookup.ParseDay(dateArg, svc.Now(), room.Campus.Location)
	if err != nil {
		return err
	}

	fmt.Println(svc.DayText(cmd.Context(), room, date, schedule.Terminal{}))
	return nil
}
