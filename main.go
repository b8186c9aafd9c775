// Package main provides the entry point for the cardsound CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/audio"
	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/dgnsrekt/cardsound/internal/config"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// skipConfigAnnotation marks commands that run without a valid configuration.
const skipConfigAnnotation = "cardsound/skip-config"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "cardsound",
		Short: "Load, cache and play sounds for the card game",
		Long: paragraph(
			fmt.Sprintf("\nLoad, cache and play the %s of the memory card game.", keyword("sound effects")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Annotations[skipConfigAnnotation] != "" {
		return nil
	}

	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}
	cfg = c
	log.SetLevel(cfg.LogLevel())
	return nil
}

// newBackend builds the backend named by audio.backend. Both read sounds
// from assets.dir.
func newBackend(c config.Config) (cache.Backend, error) {
	switch c.Audio.Backend {
	case config.BackendMock:
		b := audio.NewMockBackend(c.AssetsFS())
		if err := b.SetPlayerConfig(c.PlayerConfig()); err != nil {
			return nil, err //nolint:wrapcheck
		}
		return b, nil
	default:
		b, err := audio.NewOtoBackend(c.AssetsFS(), c.PlayerConfig(),
			audio.WithLogger(log.Default().WithPrefix("audio")))
		if err != nil {
			return nil, fmt.Errorf("unable to open audio device: %w", err)
		}
		return b, nil
	}
}

// newCache builds a cache on the configured backend.
func newCache(c config.Config) (*cache.Cache, error) {
	backend, err := newBackend(c)
	if err != nil {
		return nil, err
	}
	log.Debug("Created cache", "backend", c.Audio.Backend, "assets", c.Assets.Dir, "root", c.Assets.Root)
	return cache.New(backend,
		cache.WithRoot(c.Assets.Root),
		cache.WithLogger(log.Default().WithPrefix("cache")),
	), nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringP("assets", "a", "", "directory containing the sound root")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "audio backend (oto or mock)")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "sound manifest file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	// Config bindings
	_ = viper.BindPFlag("assets.dir", rootCmd.PersistentFlags().Lookup("assets"))
	_ = viper.BindPFlag("audio.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(preloadCmd, playCmd, boardCmd, generateCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "cardsound")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "cardsound")}, dirs...)
	}

	if c := os.Getenv("CARDSOUND_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("cardsound")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("cardsound")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "cardsound.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
