package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// Env is the part of the configuration that only comes from the process
// environment.
type Env struct {
	Token         string `env:"TGB_TOKEN"`
	ConfigHome    string `env:"AOE2BOT_CONFIG_HOME"`
	XDGConfigHome string `env:"XDG_CONFIG_HOME"`
}

// ReadEnv parses the process environment.
func ReadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return e, fmt.Errorf("error parsing environment: %w", err)
	}
	return e, nil
}

// ConfigDirs returns the directories searched for the config file, most
// specific first. AOE2BOT_CONFIG_HOME wins over XDG_CONFIG_HOME, which wins
// over the platform user config directories.
func ConfigDirs(e Env) ([]string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}

	if e.XDGConfigHome != "" {
		dirs = append([]string{filepath.Join(e.XDGConfigHome, AppName)}, dirs...)
	}
	if e.ConfigHome != "" {
		dirs = append([]string{e.ConfigHome}, dirs...)
	}
	if len(dirs) == 0 {
		return nil, errors.New("could not find configuration directory")
	}
	return dirs, nil
}

// Setup points v at the config directories, registers the defaults and
// reads the config file if there is one. configFile, when set, replaces the
// directory search. It returns the config file path in use or, when none
// exists yet, the path a default one should be written to.
func Setup(v *viper.Viper, e Env, configFile string) (string, error) {
	dirs, err := ConfigDirs(e)
	if err != nil {
		return "", err
	}

	if configFile != "" {
		path, err := ExpandPath(configFile)
		if err != nil {
			return "", err
		}
		v.SetConfigFile(path)
	} else {
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v, dirs[0])

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		switch {
		case notFound, errors.Is(err, fs.ErrNotExist):
			// The config command writes a default one on demand.
		case configFile != "":
			return "", fmt.Errorf("reading %s: %w", configFile, err)
		default:
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return used, nil
	}
	return filepath.Join(dirs[0], ConfigName+".yml"), nil
}

// StorePath returns the default file id store location in configDir.
func StorePath(configDir string) string {
	return filepath.Join(configDir, StoreFile)
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return expanded, nil
}
