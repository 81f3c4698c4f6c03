// Package config loads and validates the mensabot configuration.
//
// The main configuration lives in an INI file (conventionally config.ini)
// that doubles as the Zulip credential file: the [api] section uses the
// same keys as a zuliprc. Optional per-canteen menu settings live in a
// separate YAML overrides file, see overrides.go.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/plt-aachen/mensabot/internal/mensa"
)

// Defaults for optional settings.
const (
	DefaultTopicPrefix = "Mensa Speiseplan"
	DefaultPostTime    = "11:25"
	DefaultTimezone    = "Europe/Berlin"
	DefaultCanteen     = string(mensa.CanteenAcademica)
)

// Config is the full mensabot configuration.
type Config struct {
	API      APIConfig
	Message  MessageConfig
	Schedule ScheduleConfig
	Menu     MenuConfig
}

// APIConfig holds the Zulip API credentials ([api] section).
type APIConfig struct {
	// Email is the bot's Zulip account email.
	Email string
	// Key is the bot's Zulip API key.
	Key string
	// Site is the base URL of the Zulip server (e.g. "https://chat.example.org").
	Site string
}

// MessageConfig controls what gets posted where ([message] section).
type MessageConfig struct {
	// Stream is the Zulip stream the menu is posted to.
	Stream string
	// TopicPrefix is prepended to the date to form the message topic.
	TopicPrefix string
	// Poll enables the follow-up "who's coming along?" message.
	Poll bool
}

// ScheduleConfig controls when the menu is posted ([schedule] section).
type ScheduleConfig struct {
	// Time is the local wall-clock post time as "HH:MM".
	Time string
	// Timezone is the IANA time zone name the post time refers to.
	Timezone string
}

// MenuConfig selects the canteen and menu settings ([menu] section).
type MenuConfig struct {
	// Canteen is the canteen ID (see mensa.KnownCanteens).
	Canteen string
	// OverridesFile is an optional path to a YAML per-canteen overrides file.
	OverridesFile string
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("message.topic_prefix", DefaultTopicPrefix)
	v.SetDefault("message.poll", true)
	v.SetDefault("schedule.time", DefaultPostTime)
	v.SetDefault("schedule.timezone", DefaultTimezone)
	v.SetDefault("menu.canteen", DefaultCanteen)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{
		API: APIConfig{
			Email: v.GetString("api.email"),
			Key:   v.GetString("api.key"),
			Site:  strings.TrimRight(v.GetString("api.site"), "/"),
		},
		Message: MessageConfig{
			Stream:      v.GetString("message.stream"),
			TopicPrefix: v.GetString("message.topic_prefix"),
			Poll:        v.GetBool("message.poll"),
		},
		Schedule: ScheduleConfig{
			Time:     v.GetString("schedule.time"),
			Timezone: v.GetString("schedule.timezone"),
		},
		Menu: MenuConfig{
			Canteen:       v.GetString("menu.canteen"),
			OverridesFile: v.GetString("menu.overrides_file"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks all sections.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Message.Validate(); err != nil {
		return err
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	return c.Menu.Validate()
}

// Validate checks the [api] section.
func (c *APIConfig) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("api.email must be set")
	}
	if c.Key == "" {
		return fmt.Errorf("api.key must be set")
	}
	if c.Site == "" {
		return fmt.Errorf("api.site must be set")
	}
	u, err := url.Parse(c.Site)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.site must be an absolute URL, got %q", c.Site)
	}
	return nil
}

// Validate checks the [message] section.
func (c *MessageConfig) Validate() error {
	if c.Stream == "" {
		return fmt.Errorf("message.stream must be set")
	}
	return nil
}

// Validate checks the [schedule] section.
func (c *ScheduleConfig) Validate() error {
	if _, _, err := c.PostTime(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// PostTime parses the configured post time into hour and minute.
func (c *ScheduleConfig) PostTime() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.Time)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.time must be \"HH:MM\", got %q", c.Time)
	}
	return t.Hour(), t.Minute(), nil
}

// Location resolves the configured time zone.
func (c *ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the [menu] section.
func (c *MenuConfig) Validate() error {
	if _, err := mensa.ParseCanteen(c.Canteen); err != nil {
		return fmt.Errorf("menu.canteen: %w", err)
	}
	return nil
}
