package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dove-unipi/dove/internal/config"
)

var campusCmd = &cobra.Command{
	Use:     "campus",
	Aliases: []string{"polo"},
	Short:   "Manage campus configuration",
	Long: `Manage the campuses ("poli") dove knows about: their calendar source,
the room-code prefix used by the calendar and the time zone.`,
}

var campusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured campuses",
	RunE:  runCampusList,
}

var campusShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show campus settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCampusShow,
}

var campusAddCmd = &cobra.Command{
	Use:   "add <key>",
	Short: "Add or replace a campus",
	Long: `Add or replace a campus entry in the config file.

Examples:
  dove campus add carmignani --prefix Carm --calendar carmignani
  dove campus add bonanno --provider ics --calendar https://example.org/bonanno.ics
  dove campus add fibonacci --prefix Fib --lab-templates "LAB {num}|L{num}"`,
	Args: cobra.ExactArgs(1),
	RunE: runCampusAdd,
}

var campusSetDefaultCmd = &cobra.Command{
	Use:   "default <key>",
	Short: "Set the default campus",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampusSetDefault,
}

func init() {
	rootCmd.AddCommand(campusCmd)
	campusCmd.AddCommand(campusListCmd)
	campusCmd.AddCommand(campusShowCmd)
	campusCmd.AddCommand(campusAddCmd)
	campusCmd.AddCommand(campusSetDefaultCmd)

	campusAddCmd.Flags().String("title", "", "display name (default: capitalized key)")
	campusAddCmd.Flags().String("prefix", "", "room-code prefix used by the calendar, e.g. Fib")
	campusAddCmd.Flags().String("provider", "", "calendar source: unipi, google or ics (default unipi)")
	campusAddCmd.Flags().String("calendar", "", "calendar id, or feed URL for ics (default: key)")
	campusAddCmd.Flags().String("timezone", "", "IANA time zone (default Europe/Rome)")
	campusAddCmd.Flags().String("lab-templates", "", `lab code templates, e.g. "LAB {num}|L{num}"`)
	campusAddCmd.Flags().Bool("bare-codes", true, "also match bare room codes without the prefix")
}

// configPath is the file the campus commands edit.
func configPath() string {
	if cfgFile != "" {
		return expandPath(cfgFile)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.DefaultPath()
}

func runCampusList(_ *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Configured campuses:")
	fmt.Println("─────────────────────────────────────────────────")
	for _, key := range c.CampusKeys() {
		marker := "  "
		if key == c.DefaultCampus {
			marker = "* "
		}
		campus := c.Campuses[key]
		fmt.Printf("%s%-12s %-14s %s (%s)\n", marker, key, campus.Title, campus.Provider, campus.Prefix)
	}
	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("Default: %s\n", c.DefaultCampus)
	fmt.Println("\nUse 'dove campus show <key>' for details")
	return nil
}

func runCampusShow(_ *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	key := c.DefaultCampus
	if len(args) > 0 {
		key = args[0]
	}
	campus, ok := c.Campuses[key]
	if !ok {
		return fmt.Errorf("campus '%s' not found (configured: %s)", key, strings.Join(c.CampusKeys(), ", "))
	}

	fmt.Printf("Campus: %s\n", key)
	if key == c.DefaultCampus {
		fmt.Println("(default)")
	}
	fmt.Println("─────────────────────────────────────────────────")
	out, err := yaml.Marshal(campus)
	if err != nil {
		return err
	}
	fmt.Print(string(out))

	// Surface problems Normalize cannot fix, like a bad time zone.
	if _, err := campus.Core(key); err != nil {
		fmt.Printf("\n⚠️  %v\n", err)
	}
	return nil
}

func runCampusAdd(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	var campus config.Campus
	campus.Title, _ = cmd.Flags().GetString("title")
	campus.Prefix, _ = cmd.Flags().GetString("prefix")
	campus.Provider, _ = cmd.Flags().GetString("provider")
	campus.Calendar, _ = cmd.Flags().GetString("calendar")
	campus.Timezone, _ = cmd.Flags().GetString("timezone")
	campus.LabTemplates, _ = cmd.Flags().GetString("lab-templates")
	if cmd.Flags().Changed("bare-codes") {
		v, _ := cmd.Flags().GetBool("bare-codes")
		campus.BareCodes = &v
	}

	// Validate the entry with defaults applied, but save it as given.
	check := config.Config{
		Campuses: map[string]config.Campus{key: campus},
		Agenda:   config.AgendaConfig{BaseURL: "set"},
	}
	check.Normalize()
	if err := check.Validate(); err != nil {
		return err
	}

	path := configPath()
	if err := config.SaveCampus(path, key, campus); err != nil {
		return fmt.Errorf("failed to save campus: %w", err)
	}

	fmt.Printf("✓ Campus '%s' saved to %s\n", key, path)
	fmt.Printf("\nUse it with: dove -p %s <room>\n", key)
	fmt.Printf("Set as default: dove campus default %s\n", key)
	return nil
}

func runCampusSetDefault(_ *cobra.Command, args []string) error {
	if err := config.SetDefaultCampus(configPath(), args[0]); err != nil {
		return fmt.Errorf("failed to set default campus: %w", err)
	}
	fmt.Printf("✓ Default campus set to '%s'\n", args[0])
	return nil
}
