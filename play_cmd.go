package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/dgnsrekt/cardsound/internal/manifest"
	"github.com/spf13/cobra"
)

// pollInterval is how often play checks whether a sound has finished.
const pollInterval = 20 * time.Millisecond

var (
	playVolume float64
	playLoop   bool

	playCmd = &cobra.Command{
		Use:     "play <id>...",
		Short:   "Play sounds from the manifest",
		Long:    paragraph(fmt.Sprintf("\n%s each sound in turn and wait for it to finish. Press Ctrl-C to stop.", keyword("Play"))),
		Example: paragraph("cardsound play match\ncardsound play number1 number2 --volume 0.5"),
		Args:    cobra.MinimumNArgs(1),
		RunE:    runPlay,
	}
)

func init() {
	playCmd.Flags().Float64VarP(&playVolume, "volume", "v", 1.0, "playback volume (0.0 to 1.0)")
	playCmd.Flags().BoolVarP(&playLoop, "loop", "l", false, "loop until interrupted")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err //nolint:wrapcheck
	}

	sounds := make(map[string]string, len(args))
	for _, id := range args {
		p, ok := m.Entries[id]
		if !ok {
			return fmt.Errorf("sound %q is not in %s", id, cfg.Manifest)
		}
		sounds[id] = p
	}

	c, err := newCache(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Preload(ctx, sounds); err != nil {
		return err //nolint:wrapcheck
	}

	volume := cfg.Audio.Volume
	if cmd.Flags().Changed("volume") {
		volume = playVolume
	}

	for _, id := range args {
		if err := c.Play(ctx, id, cache.WithVolume(volume), cache.WithLoop(playLoop)); err != nil {
			return err //nolint:wrapcheck
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", keyword("▶"), id)

		if err := waitForSound(ctx, c, id); err != nil {
			c.Stop(id)
			if errors.Is(err, context.Canceled) {
				log.Debug("Playback interrupted", "id", id)
				return nil
			}
			return err
		}
	}
	return nil
}

// waitForSound blocks until id stops playing or ctx is done.
func waitForSound(ctx context.Context, c *cache.Cache, id string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for c.IsPlaying(id) {
		select {
		case <-ctx.Done():
			return ctx.Err() //nolint:wrapcheck
		case <-ticker.C:
		}
	}
	return nil
}
