// Package config holds the dove configuration model. Values are read by
// viper (file, DOVE_* environment, flags) and decoded into Config.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/match"
)

const (
	DefaultCampusKey = "fibonacci"
	DefaultTimezone  = "Europe/Rome"
	DefaultProvider  = ProviderUnipi
	DefaultListen    = ":8443"
	DefaultRefresh   = "*/30 * * * *"
	DefaultDataURL   = "https://raw.githubusercontent.com/plumkewe/dove-unipi/refs/heads/main/data/unified.json"
	DefaultSiteURL   = "https://plumkewe.github.io/dove-unipi/"
)

// Calendar sources a campus can use.
const (
	ProviderUnipi  = "unipi"
	ProviderGoogle = "google"
	ProviderICS    = "ics"
)

// Campus is one entry under "campuses" in the config file.
type Campus struct {
	Title    string `mapstructure:"title" yaml:"title,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Provider string `mapstructure:"provider" yaml:"provider,omitempty"`
	// Calendar id for unipi/google, feed URL for ics
	Calendar string `mapstructure:"calendar" yaml:"calendar,omitempty"`
	Timezone string `mapstructure:"timezone" yaml:"timezone,omitempty"`
	// Pipe-delimited lab code templates, e.g. "LAB {num}|L{num}"
	LabTemplates string `mapstructure:"lab_templates" yaml:"lab_templates,omitempty"`
	// Nil means true
	BareCodes *bool `mapstructure:"bare_codes" yaml:"bare_codes,omitempty"`
}

type DataConfig struct {
	// Local copy of unified.json
	Document string `mapstructure:"document" yaml:"document,omitempty"`
	// Where `dove index` downloads the document from
	URL string `mapstructure:"url" yaml:"url,omitempty"`
	// Site used for short links
	SiteURL string `mapstructure:"site_url" yaml:"site_url,omitempty"`
	// Output of `dove index`
	Index string `mapstructure:"index" yaml:"index,omitempty"`
}

type AgendaConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
	TokenFile       string `mapstructure:"token_file" yaml:"token_file,omitempty"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token" yaml:"token,omitempty"`
	// Public URL of the server; empty selects long polling
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
	Debug      bool   `mapstructure:"debug" yaml:"debug,omitempty"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`
}

type CacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
	MaxDays int           `mapstructure:"max_days" yaml:"max_days,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	DefaultCampus string            `mapstructure:"default_campus" yaml:"default_campus,omitempty"`
	Campuses      map[string]Campus `mapstructure:"campuses" yaml:"campuses,omitempty"`

	Data     DataConfig     `mapstructure:"data" yaml:"data,omitempty"`
	Agenda   AgendaConfig   `mapstructure:"agenda" yaml:"agenda,omitempty"`
	Google   GoogleConfig   `mapstructure:"google" yaml:"google,omitempty"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram,omitempty"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server,omitempty"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache,omitempty"`

	// Cron schedule for reloading the room document in `dove serve`
	Refresh string `mapstructure:"refresh" yaml:"refresh,omitempty"`
}

// Normalize fills missing values with defaults so a partial (or absent)
// config file still yields a working setup.
func (c *Config) Normalize() {
	if len(c.Campuses) == 0 {
		c.Campuses = map[string]Campus{DefaultCampusKey: {Prefix: "Fib"}}
	}
	for key, campus := range c.Campuses {
		campus.normalize(key)
		c.Campuses[key] = campus
	}
	if _, ok := c.Campuses[c.DefaultCampus]; !ok {
		if _, ok := c.Campuses[DefaultCampusKey]; ok {
			c.DefaultCampus = DefaultCampusKey
		} else {
			c.DefaultCampus = c.CampusKeys()[0]
		}
	}

	if c.Data.URL == "" {
		c.Data.URL = DefaultDataURL
	}
	if c.Data.SiteURL == "" {
		c.Data.SiteURL = DefaultSiteURL
	}
	if c.Data.Document == "" {
		c.Data.Document = "unified.json"
	}
	if c.Data.Index == "" {
		c.Data.Index = "data.json"
	}
	if c.Agenda.Timeout <= 0 {
		c.Agenda.Timeout = 10 * time.Second
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = "credentials.json"
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = "token.json"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.MaxDays <= 0 {
		c.Cache.MaxDays = 256
	}
	if c.Refresh == "" {
		c.Refresh = DefaultRefresh
	}
}

func (c *Campus) normalize(key string) {
	if c.Title == "" && key != "" {
		c.Title = strings.ToUpper(key[:1]) + key[1:]
	}
	if c.Prefix == "" {
		c.Prefix = c.Title[:min(3, len(c.Title))]
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Calendar == "" {
		c.Calendar = key
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.BareCodes == nil {
		yes := true
		c.BareCodes = &yes
	}
}

// CampusKeys returns the configured campus keys, sorted.
func (c *Config) CampusKeys() []string {
	keys := make([]string, 0, len(c.Campuses))
	for k := range c.Campuses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Titles maps campus keys to display names.
func (c *Config) Titles() map[string]string {
	out := make(map[string]string, len(c.Campuses))
	for k, v := range c.Campuses {
		out[k] = v.Title
	}
	return out
}

// Campus resolves a campus by key; an empty key selects the default.
func (c *Config) Campus(key string) (core.Campus, error) {
	if key == "" {
		key = c.DefaultCampus
	}
	campus, ok := c.Campuses[key]
	if !ok {
		return core.Campus{}, fmt.Errorf("unknown campus %q (configured: %s)", key, strings.Join(c.CampusKeys(), ", "))
	}
	return campus.Core(key)
}

// Core converts the entry to the domain type, loading its time zone.
func (c Campus) Core(key string) (core.Campus, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return core.Campus{}, fmt.Errorf("campus %s: %w", key, err)
	}
	return core.Campus{
		Key:          key,
		Title:        c.Title,
		Prefix:       c.Prefix,
		Provider:     c.Provider,
		CalendarID:   c.Calendar,
		Location:     loc,
		LabTemplates: match.ParseTemplates(c.LabTemplates),
		BareCodes:    c.BareCodes == nil || *c.BareCodes,
	}, nil
}

// Validate checks values Normalize cannot default.
func (c *Config) Validate() error {
	for _, key := range c.CampusKeys() {
		campus := c.Campuses[key]
		switch campus.Provider {
		case ProviderUnipi:
			if c.Agenda.BaseURL == "" {
				return fmt.Errorf("campus %s uses the university agenda but agenda.base_url is not set", key)
			}
		case ProviderGoogle:
		case ProviderICS:
			if !strings.HasPrefix(campus.Calendar, "http://") && !strings.HasPrefix(campus.Calendar, "https://") {
				return fmt.Errorf("campus %s: ics calendar must be a feed URL, got %q", key, campus.Calendar)
			}
		default:
			return fmt.Errorf("campus %s: unknown provider %q (supported: unipi, google, ics)", key, campus.Provider)
		}
		if _, err := time.LoadLocation(campus.Timezone); err != nil {
			return fmt.Errorf("campus %s: %w", key, err)
		}
	}
	return nil
}
