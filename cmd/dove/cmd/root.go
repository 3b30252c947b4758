package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dove-unipi/dove/internal/adapter/google"
	"github.com/dove-unipi/dove/internal/adapter/ics"
	"github.com/dove-unipi/dove/internal/adapter/unipi"
	"github.com/dove-unipi/dove/internal/cache"
	"github.com/dove-unipi/dove/internal/config"
	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/directory"
	appLog "github.com/dove-unipi/dove/internal/log"
	"github.com/dove-unipi/dove/internal/lookup"
)

// Commands annotated with needsCalendar get calendar providers; the others
// only read the room document.
const needsCalendar = "calendar"

var (
	cfgFile    string
	campusFlag string

	cfg   config.Config
	docs  *directory.Cache[*directory.Directory]
	store *cache.DayStore
	svc   *lookup.Service
)

var rootCmd = &cobra.Command{
	Use:   "dove",
	Short: "Is this room free? Room status for the University of Pisa campuses",
	Long: `dove tells you whether a university room is free right now, until when,
and what is scheduled in it today.

Rooms come from the campus room document (unified.json), lessons from the
campus calendar (university agenda, Google Calendar or an ICS feed).

  dove "Aula A"              current status
  dove schedule A --date domani
  dove serve                 Telegram bot and JSON API`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: initService,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runStatus(cmd, args)
	},
	Annotations: map[string]string{needsCalendar: "yes"},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/dove/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&campusFlag, "campus", "p", "", "campus to search first (default from config)")
	rootCmd.PersistentFlags().String("data", "", "path of the room document (unified.json)")
	rootCmd.PersistentFlags().Bool("debug", false, "verbose logging")
	rootCmd.Flags().String("at", "", "reference time (HH:MM, YYYY-MM-DD HH:MM or RFC 3339)")

	viper.BindPFlag("data.document", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	// A .env next to the binary is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: reading .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "dove"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// DOVE_TELEGRAM_TOKEN -> telegram.token
	viper.SetEnvPrefix("DOVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so every key that may
	// come from the environment alone needs a default.
	viper.SetDefault("default_campus", config.DefaultCampusKey)
	viper.SetDefault("agenda.base_url", "")
	viper.SetDefault("agenda.timeout", "10s")
	viper.SetDefault("google.credentials_file", "credentials.json")
	viper.SetDefault("google.token_file", "token.json")
	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.webhook_url", "")
	viper.SetDefault("telegram.debug", false)
	viper.SetDefault("server.listen", config.DefaultListen)
	viper.SetDefault("cache.ttl", "5m")
	viper.SetDefault("cache.max_days", 256)
	viper.SetDefault("data.url", config.DefaultDataURL)
	viper.SetDefault("data.site_url", config.DefaultSiteURL)
	viper.SetDefault("data.index", "data.json")
	viper.SetDefault("refresh", config.DefaultRefresh)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged viper settings.
func loadConfig() (config.Config, error) {
	var c config.Config
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	c.Normalize()
	c.Data.Document = expandPath(c.Data.Document)
	c.Data.Index = expandPath(c.Data.Index)
	c.Google.CredentialsFile = expandPath(c.Google.CredentialsFile)
	c.Google.TokenFile = expandPath(c.Google.TokenFile)
	return c, nil
}

func skipInit(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "campus", "auth":
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "campus"
}

func initService(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("debug") {
		appLog.SetLevel(appLog.LevelDebug)
	}
	if skipInit(cmd) {
		return nil
	}

	c, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = c

	providers := map[string]core.Provider{}
	if cmd.Annotations[needsCalendar] != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if providers, err = buildProviders(cmd.Context()); err != nil {
			return err
		}
	}

	docs = directory.NewCache(directory.Loader(directory.Options{
		BaseURL: cfg.Data.SiteURL,
		Titles:  cfg.Titles(),
	}))
	store = cache.NewDayStore(cfg.Cache.TTL, cfg.Cache.MaxDays)
	svc = lookup.New(lookup.Options{
		Campuses:     &cfg,
		Providers:    providers,
		Store:        store,
		Documents:    docs,
		DocumentPath: cfg.Data.Document,
	})

	if svc.Directory() == nil {
		fmt.Fprintf(os.Stderr, "Warning: room document %s is missing or invalid\n\nRun 'dove index' to download it\n", cfg.Data.Document)
	}
	return nil
}

// buildProviders creates one provider per calendar source the campuses use.
func buildProviders(ctx context.Context) (map[string]core.Provider, error) {
	providers := map[string]core.Provider{}
	for _, key := range cfg.CampusKeys() {
		name := cfg.Campuses[key].Provider
		if _, ok := providers[name]; ok {
			continue
		}
		switch name {
		case config.ProviderUnipi:
			providers[name] = unipi.New(cfg.Agenda.BaseURL, cfg.Agenda.Timeout)
		case config.ProviderICS:
			providers[name] = ics.New(cfg.Agenda.Timeout)
		case config.ProviderGoogle:
			g, err := initGoogleAdapter(ctx)
			if err != nil {
				return nil, err
			}
			providers[name] = g
		}
	}
	return providers, nil
}

func initGoogleAdapter(ctx context.Context) (*google.Adapter, error) {
	credsFile := cfg.Google.CredentialsFile
	tokenFile := cfg.Google.TokenFile

	if _, err := os.Stat(credsFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("credentials file not found: %s\n\nDownload an OAuth client (desktop app) from the Google Cloud console", credsFile)
	}
	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("token file not found: %s\n\nRun 'dove auth' to authenticate", tokenFile)
	}

	g := google.New(credsFile, tokenFile)
	if err := g.Login(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return g, nil
}

// findRoom resolves the room named by args on the --campus campus.
func findRoom(args []string) (lookup.Room, error) {
	query := strings.Join(args, " ")
	room, err := svc.FindRoom(campusFlag, query)
	if errors.Is(err, lookup.ErrRoomNotFound) {
		return room, fmt.Errorf("room %q not found\n\nTry 'dove rooms %s'", query, query)
	}
	return room, err
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
