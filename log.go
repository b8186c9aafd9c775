package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/config"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "cardsound").CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, "cardsound.log"), nil
}

// setupLog routes the default logger to a file, or to stderr when
// CARDSOUND_DEBUG is set. The returned func closes the log file.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	e, err := config.LoadEnv()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if e.Debug {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.DebugLevel)
		return func() error { return nil }, nil
	}

	logFile := e.LogFile
	if logFile == "" {
		logFile, err = getLogFilePath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, err //nolint:wrapcheck
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	log.SetOutput(f)
	return f.Close, nil
}
