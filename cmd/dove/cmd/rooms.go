package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dove-unipi/dove/internal/directory"
	"github.com/dove-unipi/dove/internal/util"
)

var roomsCmd = &cobra.Command{
	Use:     "rooms [query]",
	Aliases: []string{"cerca", "search"},
	Short:   "List rooms from the room document",
	Long: `List the rooms of the room document whose name or alias contains the
query. With --people the search index is used instead, which also lists
professors' offices.`,
	RunE: runRooms,
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.Flags().Bool("people", false, "search the index (rooms and people) by title")
}

func runRooms(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	dir := svc.Directory()
	if dir == nil {
		return fmt.Errorf("room document %s is not available", cfg.Data.Document)
	}

	if people, _ := cmd.Flags().GetBool("people"); people {
		return printEntries(dir.Search(query))
	}

	titles := cfg.Titles()
	n := 0
	fmt.Println("🏫 Rooms:")
	fmt.Println("─────────────────────────────────────────────────")
	for _, r := range dir.CampusRooms(campusFlag) {
		if query != "" && !r.Contains(query) {
			continue
		}
		n++
		name := r.Name
		if r.ExternalLink != "" {
			name = util.MakeHyperlink(r.ExternalLink, r.Name)
		}
		fmt.Printf("\n  • %s (%s)\n", name, r.ShortCode())
		fmt.Printf("    %s\n", r.Path(titles[r.Campus]))
		if r.Capacity > 0 {
			fmt.Printf("    Capienza: %d\n", r.Capacity)
		}
	}

	fmt.Println()
	fmt.Printf("Total: %d rooms\n", n)
	if n > 0 {
		fmt.Println("\nTip: use 'dove status <room>' to see if a room is free")
	}
	return nil
}

func printEntries(entries []directory.Entry) error {
	for _, e := range entries {
		fmt.Printf("\n  • %s\n", e.Title)
		for _, line := range strings.Split(e.Description, "\n") {
			fmt.Printf("    %s\n", util.TruncateText(line, 80))
		}
	}
	fmt.Println()
	fmt.Printf("Total: %d results\n", len(entries))
	return nil
}
