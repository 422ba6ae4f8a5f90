// Package main provides the entry point for the aoe2-telegram-bot CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
	"github.com/PercevalSA/aoe2-telegram-bot/internal/bot"
	"github.com/PercevalSA/aoe2-telegram-bot/internal/config"
	"github.com/PercevalSA/aoe2-telegram-bot/internal/fileid"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	audioDir   string
	storePath  string
	debug      bool

	// Filled by loadConfig before any command runs.
	cfg        config.Config
	env        config.Env
	configPath string
	closeLog   = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "aoe2-telegram-bot",
		Short: "Age of Empires II sound box for Telegram",
		Long: paragraph(
			fmt.Sprintf("\nA Telegram bot answering commands with %s quotes, taunts and civilization sounds.", keyword("Age of Empires II")),
		),
		Example:       paragraph("TGB_TOKEN=123:abc aoe2-telegram-bot\naoe2-telegram-bot --audio-dir ~/aoe2/audio --debug"),
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
		RunE: execute,
	}
)

// loadConfig merges the config file, the environment and the flags into cfg
// and sets up logging.
func loadConfig() error {
	var err error
	if env, err = config.ReadEnv(); err != nil {
		return err
	}
	if configPath, err = config.Setup(viper.GetViper(), env, configFile); err != nil {
		return err
	}
	if cfg, err = config.Load(viper.GetViper()); err != nil {
		return err
	}

	closer, err := setupLog(cfg)
	if err != nil {
		return err
	}
	closeLog = closer
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	token, err := config.ResolveToken(env, cfg.EnvFile)
	if err != nil {
		log.Error("Cannot start without a bot token", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if info, err := os.Stat(cfg.AudioDir); err != nil || !info.IsDir() {
		log.Warn("Audio directory is missing, no sound can be sent", "dir", cfg.AudioDir)
	}

	cache := fileid.New(cfg.StorePath)
	if err := cache.Load(); err != nil {
		return fmt.Errorf("unable to load file id cache: %w", err)
	}

	api, err := bot.Connect(ctx, token, log.Default().WithPrefix("telegram"))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	b := bot.New(api, audio.NewLibrary(cfg.AudioDir), cache, cfg)
	if err := b.Run(ctx, api); err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	log.Info("Bye")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is aoe2-bot.yml in the user config directory)")
	rootCmd.PersistentFlags().StringVarP(&audioDir, "audio-dir", "a", "", "directory holding the audio files")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "file id store path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	// Config bindings
	_ = viper.BindPFlag("audio.dir", rootCmd.PersistentFlags().Lookup("audio-dir"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd, cachePathCmd, cacheExportCmd, cacheImportCmd)
	audioCmd.AddCommand(audioListCmd)
	rootCmd.AddCommand(configCmd, manCmd, cacheCmd, audioCmd, previewCmd)
}
