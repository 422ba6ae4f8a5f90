package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/config"
)

// setupLog configures the default logger. Logs go to stderr and, when
// log.file is set, to that file as well. The returned function closes it.
func setupLog(cfg config.Config) (func() error, error) {
	log.SetReportTimestamp(true)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if cfg.LogFile == "" {
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.Debug("Logging to file", "path", cfg.LogFile)
	return f.Close, nil
}
