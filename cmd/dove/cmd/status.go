package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dove-unipi/dove/internal/lookup"
	"github.com/dove-unipi/dove/internal/schedule"
)

var statusCmd = &cobra.Command{
	Use:     "status <room>",
	Aliases: []string{"aula", "now"},
	Short:   "Show whether a room is free",
	Long: `Show whether a room is free at the given time (default now), the lesson
in progress and the next ones.

Examples:
  dove status "Aula A"
  dove status A --at 14:30
  dove status "Aula Magna" -p carmignani`,
	Args:        cobra.MinimumNArgs(1),
	RunE:        runStatus,
	Annotations: map[string]string{needsCalendar: "yes"},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("at", "", "reference time (HH:MM, YYYY-MM-DD HH:MM or RFC 3339)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	room, err := findRoom(args)
	if err != nil {
		return err
	}

	atArg, _ := cmd.Flags().GetString("at")
	at, err := lookup.ParseInstant(atArg, svc.Now(), room.Campus.Location)
	if err != nil {
		return err
	}

	fmt.Println(svc.StatusText(cmd.Context(), room, at, schedule.Terminal{}))
	return nil
}
