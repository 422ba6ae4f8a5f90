package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
)

const defaultConfig = `# directory holding the .wav sounds, the "NN text.mp3" taunts and the
# "Civilization.mp3" files
audio:
  dir: "audio"
  # cover image attached when a file is uploaded
  # thumbnail: "~/aoe2/cover.jpg"

# file id store, defaults to files_id.json next to this file
# store:
#   path: "~/.config/aoe2-bot/files_id.json"

# file read for TGB_TOKEN when it is not set in the environment
env_file: "~/.config/aoe2-bot/env"

# Telegram user ids allowed to use /cache and /resetcache
admins: []

debug: false
# log:
#   file: "~/.local/state/aoe2-bot/bot.log"

telegram:
  # long polling timeout
  poll_timeout: "60s"
  # messages per second and per chat, 0 disables rate limiting
  rate_limit: 1
  burst: 3
  # play a notification sound with each audio message
  notify: false

# reload commands when files are added to or removed from audio.dir
watch: true
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the bot config file",
	Long:    paragraph(fmt.Sprintf("\n%s the bot config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("aoe2-telegram-bot config\naoe2-telegram-bot config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(configPath); err != nil {
			return err
		}

		c, err := editor.Cmd("aoe2-bot", configPath)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configPath)
		return nil
	},
}

// ensureConfigFile writes the default config to name unless it exists.
func ensureConfigFile(name string) error {
	if ext := path.Ext(name); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(name), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
