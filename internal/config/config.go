// Package config loads the bot configuration from the YAML config file,
// AOE2BOT_* environment variables and command line flags, all merged by
// viper.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName names the user config directory.
	AppName = "aoe2-bot"

	// ConfigName is the config file name without extension.
	ConfigName = "aoe2-bot"

	// EnvPrefix prefixes environment variables that override config keys,
	// e.g. AOE2BOT_AUDIO_DIR for audio.dir.
	EnvPrefix = "aoe2bot"

	// StoreFile is the file name of the file id store.
	StoreFile = "files_id.json"

	// DefaultEnvFile holds the bot token when it is not in the environment.
	DefaultEnvFile = "~/.config/aoe2-bot/env"
)

// Config holds everything the bot and the CLI need.
type Config struct {
	// Bot token. Not read from the config file, see ResolveToken.
	Token string

	AudioDir  string
	Thumbnail string
	StorePath string
	EnvFile   string

	// Telegram user ids allowed to run the cache commands.
	Admins []int64

	Debug   bool
	LogFile string

	PollTimeout time.Duration
	RateLimit   float64 // messages per second and per chat, 0 disables
	Burst       int
	Notify      bool
	Watch       bool
}

// Default returns the configuration used when nothing is set. The store
// path is filled by SetDefaults since it depends on the config directory.
func Default() Config {
	return Config{
		AudioDir:    "audio",
		EnvFile:     DefaultEnvFile,
		PollTimeout: 60 * time.Second,
		RateLimit:   1,
		Burst:       3,
		Watch:       true,
	}
}

// SetDefaults registers the defaults with v. configDir is the directory the
// file id store lives in unless store.path is set.
func SetDefaults(v *viper.Viper, configDir string) {
	d := Default()

	v.SetDefault("audio.dir", d.AudioDir)
	v.SetDefault("audio.thumbnail", d.Thumbnail)
	v.SetDefault("store.path", StorePath(configDir))
	v.SetDefault("env_file", d.EnvFile)
	v.SetDefault("admins", []string{})
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log.file", d.LogFile)
	v.SetDefault("telegram.poll_timeout", d.PollTimeout.String())
	v.SetDefault("telegram.rate_limit", d.RateLimit)
	v.SetDefault("telegram.burst", d.Burst)
	v.SetDefault("telegram.notify", d.Notify)
	v.SetDefault("watch", d.Watch)
}

// Load builds a Config from v and validates it. Paths are expanded; the
// token is left empty.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v.IsSet("audio.dir") {
		cfg.AudioDir = v.GetString("audio.dir")
	}
	if v.IsSet("audio.thumbnail") {
		cfg.Thumbnail = v.GetString("audio.thumbnail")
	}
	if v.IsSet("store.path") {
		cfg.StorePath = v.GetString("store.path")
	}
	if v.IsSet("env_file") {
		cfg.EnvFile = v.GetString("env_file")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	if v.IsSet("log.file") {
		cfg.LogFile = v.GetString("log.file")
	}
	if v.IsSet("telegram.poll_timeout") {
		d, err := time.ParseDuration(v.GetString("telegram.poll_timeout"))
		if err != nil {
			return cfg, fmt.Errorf("invalid telegram.poll_timeout: %w", err)
		}
		cfg.PollTimeout = d
	}
	if v.IsSet("telegram.rate_limit") {
		cfg.RateLimit = v.GetFloat64("telegram.rate_limit")
	}
	if v.IsSet("telegram.burst") {
		cfg.Burst = v.GetInt("telegram.burst")
	}
	if v.IsSet("telegram.notify") {
		cfg.Notify = v.GetBool("telegram.notify")
	}
	if v.IsSet("watch") {
		cfg.Watch = v.GetBool("watch")
	}

	admins, err := parseAdmins(v.GetStringSlice("admins"))
	if err != nil {
		return cfg, err
	}
	cfg.Admins = admins

	for _, p := range []*string{&cfg.AudioDir, &cfg.Thumbnail, &cfg.StorePath, &cfg.LogFile} {
		if *p == "" {
			continue
		}
		if *p, err = ExpandPath(*p); err != nil {
			return cfg, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AudioDir) == "" {
		return errors.New("audio.dir must not be empty")
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New("store.path must not be empty")
	}
	if c.PollTimeout < time.Second {
		return fmt.Errorf("telegram.poll_timeout must be at least 1s, got %s", c.PollTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("telegram.rate_limit must not be negative, got %g", c.RateLimit)
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		return fmt.Errorf("telegram.burst must be at least 1, got %d", c.Burst)
	}
	return nil
}

// IsAdmin reports whether the Telegram user id may run the cache commands.
func (c Config) IsAdmin(id int64) bool {
	return slices.Contains(c.Admins, id)
}

func parseAdmins(raw []string) ([]int64, error) {
	var admins []int64
	for _, s := range raw {
		for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin id %q: %w", field, err)
			}
			admins = append(admins, id)
		}
	}
	return admins, nil
}
