package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/manifest"
	"github.com/dgnsrekt/cardsound/internal/tts"
	"github.com/dgnsrekt/cardsound/internal/tts/engines"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate <word>...",
	Short: "Generate spoken word sounds",
	Long: paragraph(fmt.Sprintf("\n%s an MP3 per word with a text-to-speech engine and ffmpeg, then add the results to the manifest. "+
		"Words may also be given as a comma-separated list.", keyword("Synthesize"))),
	Example: paragraph("cardsound generate cat dog bird --prefix animal\ncardsound generate \"red,green,blue\" --engine gtts"),
	Args:    cobra.MinimumNArgs(1),
	RunE:    runGenerate,
}

func init() {
	generateCmd.Flags().StringP("engine", "e", "", "speech engine (say or gtts)")
	generateCmd.Flags().String("voice", "", "voice for the say engine")
	generateCmd.Flags().String("language", "", "language for the gtts engine")
	generateCmd.Flags().String("prefix", "", "prefix for generated sound ids")
	generateCmd.Flags().StringP("out", "o", "", "output directory under the sound root")

	_ = viper.BindPFlag("tts.engine", generateCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("tts.voice", generateCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("tts.language", generateCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("tts.prefix", generateCmd.Flags().Lookup("prefix"))
	_ = viper.BindPFlag("tts.out_dir", generateCmd.Flags().Lookup("out"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	words := tts.SplitWords(strings.Join(args, ","))
	if len(words) == 0 {
		return tts.ErrEmptyText
	}

	engine, err := engines.New(cfg.EngineConfig())
	if err != nil {
		return err //nolint:wrapcheck
	}
	if err := engine.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	gen := tts.NewGenerator(engine, cfg.GeneratorConfig(), tts.WithLogger(log.Default().WithPrefix("generate")))
	results := gen.Generate(ctx, words)

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s %v\n", failure("✗"), r.Word, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n", keyword("✓"), r.Name, faint(r.Path))
	}

	if generated := results.Succeeded(); len(generated) > 0 {
		if err := updateManifest(cfg.Manifest, generated.Manifest(cfg.Assets.Root)); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", faint(fmt.Sprintf("Added %d sounds to %s", len(generated), cfg.Manifest)))
	}

	return results.Err() //nolint:wrapcheck
}

// updateManifest merges generated into the manifest at path, creating it
// when missing.
func updateManifest(path string, generated *manifest.Manifest) error {
	m, err := manifest.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m = manifest.New(generated.Root)
	case err != nil:
		return err //nolint:wrapcheck
	}

	m.Merge(generated)
	return m.Save(path) //nolint:wrapcheck
}
