package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dove-unipi/dove/internal/config"
)

var calendarsCmd = &cobra.Command{
	Use:     "calendars",
	Aliases: []string{"cal", "cals"},
	Short:   "List the Google calendars the account can read",
	Long: `List the Google calendars visible to the authenticated account, to pick
the calendar id of a campus with provider: google.`,
	RunE: runCalendars,
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, _ []string) error {
	g, err := initGoogleAdapter(cmd.Context())
	if err != nil {
		return err
	}
	calendars, err := g.LoadCalendars(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing calendars: %w", err)
	}

	// Campuses already using a calendar, by id.
	used := map[string]string{}
	for _, key := range cfg.CampusKeys() {
		if c := cfg.Campuses[key]; c.Provider == config.ProviderGoogle {
			used[c.Calendar] = key
		}
	}

	ids := make([]string, 0, len(calendars))
	for id := range calendars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return calendars[ids[i]] < calendars[ids[j]] })

	fmt.Println("📅 Available calendars:")
	fmt.Println("─────────────────────────────────────────────────")
	for _, id := range ids {
		fmt.Printf("\n  • %s\n", calendars[id])
		fmt.Printf("    ID: %s\n", id)
		if campus, ok := used[id]; ok {
			fmt.Printf("    Campus: %s\n", campus)
		}
	}

	fmt.Println()
	fmt.Printf("Total: %d calendars\n", len(calendars))
	fmt.Println("\nTip: use 'dove campus add <key> --provider google --calendar <id>'")
	return nil
}
