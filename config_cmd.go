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
	"github.com/spf13/viper"
)

const defaultConfig = `# directory served to the game; sounds live under <dir>/<root>
assets:
  dir: "public"
  root: "sounds"

# audio output
audio:
  # backend: oto (audio device) or mock (no device)
  backend: "oto"
  # sample rate of the device: 44100 or 48000
  sample_rate: 44100
  buffer_size: 4096
  # default playback volume (0.0 to 1.0)
  volume: 1.0

# sound manifest used by preload, play and board
manifest: "sounds.yml"

# offline sound generator
tts:
  # engine: say (macOS) or gtts (Google, online)
  engine: "say"
  voice: "Alex"
  language: "en"
  slow: false
  # directory under the sound root for generated files
  out_dir: "words"
  prefix: ""
  requests_per_minute: 50
  timeout: "30s"

log:
  level: "info"
`

var configCmd = &cobra.Command{
	Use:         "config",
	Hidden:      false,
	Short:       "Edit the cardsound config file",
	Long:        paragraph(fmt.Sprintf("\n%s the cardsound config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example:     paragraph("cardsound config\ncardsound config --config path/to/config.yml"),
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("cardsound", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
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
