package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/dgnsrekt/cardsound/internal/manifest"
	"github.com/dgnsrekt/cardsound/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const boardHelp = `Commands:
  play <id> [volume] [loop]   play a sound from the start
  stop <id>                   stop and rewind a sound
  volume <id> <volume>        set the volume (0.0 to 1.0)
  load <id> <path>            load a sound relative to the sound root
  unload <id>                 release a sound
  status [id]                 show cached sounds
  help                        show this help
  quit                        exit`

var errQuit = errors.New("quit")

var (
	boardWatch bool

	boardCmd = &cobra.Command{
		Use:     "board",
		Short:   "Interactive soundboard",
		Long:    paragraph(fmt.Sprintf("\nPreload the manifest and drive the %s line by line from stdin.", keyword("sound cache"))),
		Example: paragraph("cardsound board\ncardsound board --watch\necho 'play match' | cardsound board --backend mock"),
		Args:    cobra.NoArgs,
		RunE:    runBoard,
	}
)

func init() {
	boardCmd.Flags().BoolVarP(&boardWatch, "watch", "w", false, "reload sounds when their files change")
}

func runBoard(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err //nolint:wrapcheck
	}

	c, err := newCache(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	out := cmd.OutOrStdout()
	if err := c.Preload(ctx, m.Sounds()); err != nil {
		fmt.Fprintf(out, "%s %v\n", failure("preload:"), err)
	}
	printSummary(out, c, m)

	if boardWatch {
		w, err := watch.New(c, cfg.Assets.Dir, m.Sounds(),
			watch.WithLogger(log.Default().WithPrefix("watch")),
			watch.WithReloadHook(func(id string, err error) {
				if err != nil {
					fmt.Fprintf(out, "\n%s %s: %v\n", failure("reload failed"), id, err)
					return
				}
				fmt.Fprintf(out, "\n%s %s\n", keyword("reloaded"), id)
			}),
		)
		if err != nil {
			return err //nolint:wrapcheck
		}
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Watcher stopped", "err", err)
			}
		}()
		// Stop reloads before the deferred cache Close runs.
		defer func() {
			_ = w.Close()
			<-watchDone
		}()
	}

	b := &board{
		cache:  c,
		out:    out,
		volume: cfg.Audio.Volume,
		prompt: term.IsTerminal(int(os.Stdin.Fd())), //nolint:gosec
	}
	return b.run(ctx, cmd.InOrStdin())
}

// board executes soundboard commands against a cache.
type board struct {
	cache  *cache.Cache
	out    io.Writer
	volume float64
	prompt bool
}

// run reads commands from in until quit, EOF or ctx is done.
func (b *board) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if b.prompt {
			fmt.Fprint(b.out, keyword("> "))
		}

		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		err := b.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(b.out, "%s %v\n", failure("error:"), err)
		}
	}
}

// exec runs a single command line.
func (b *board) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "play", "p":
		return b.play(ctx, args)
	case "stop", "s":
		if len(args) != 1 {
			return errors.New("usage: stop <id>")
		}
		b.cache.Stop(args[0])
	case "volume", "vol":
		if len(args) != 2 {
			return errors.New("usage: volume <id> <volume>")
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q", args[1])
		}
		b.cache.SetVolume(args[0], v)
	case "load":
		if len(args) != 2 {
			return errors.New("usage: load <id> <path>")
		}
		h, err := b.cache.Load(ctx, args[0], args[1])
		if err != nil {
			return err //nolint:wrapcheck
		}
		fmt.Fprintf(b.out, "%s %s %s\n", keyword("loaded"), args[0], describe(h))
	case "unload":
		if len(args) != 1 {
			return errors.New("usage: unload <id>")
		}
		b.cache.Unload(args[0])
	case "status", "ls":
		return b.status(args)
	case "help", "?":
		fmt.Fprintln(b.out, boardHelp)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (b *board) play(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errors.New("usage: play <id> [volume] [loop]")
	}

	volume, loop := b.volume, false
	if len(args) > 1 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q", args[1])
		}
		volume = v
	}
	if len(args) > 2 {
		l, err := strconv.ParseBool(args[2])
		if err != nil && args[2] != "loop" {
			return fmt.Errorf("invalid loop flag %q", args[2])
		}
		loop = l || args[2] == "loop"
	}

	return b.cache.Play(ctx, args[0], cache.WithVolume(volume), cache.WithLoop(loop)) //nolint:wrapcheck
}

func (b *board) status(args []string) error {
	if len(args) > 1 {
		return errors.New("usage: status [id]")
	}

	ids := b.cache.IDs()
	if len(args) == 1 {
		if _, ok := b.cache.Get(args[0]); !ok {
			return fmt.Errorf("%q is not loaded", args[0])
		}
		ids = args
	}
	if len(ids) == 0 {
		fmt.Fprintln(b.out, faint("no sounds loaded"))
		return nil
	}

	for _, id := range ids {
		h, ok := b.cache.Get(id)
		if !ok {
			continue
		}
		p, _ := b.cache.Path(id)

		state := faint("stopped")
		if b.cache.IsPlaying(id) {
			state = keyword("playing")
		}
		flags := fmt.Sprintf("vol %.2f", h.Volume())
		if h.Loop() {
			flags += " loop"
		}
		fmt.Fprintf(b.out, "%-16s %s %s %s %s\n", id, state, h.Position().Round(time.Millisecond), flags, faint(p))
	}
	return nil
}
