package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/dgnsrekt/cardsound/internal/manifest"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var preloadCmd = &cobra.Command{
	Use:     "preload",
	Short:   "Load every sound in the manifest",
	Long:    paragraph(fmt.Sprintf("\n%s every sound listed in the manifest and report what was cached.", keyword("Preload"))),
	Example: paragraph("cardsound preload\ncardsound preload --manifest level1.yml --backend mock"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			return err //nolint:wrapcheck
		}

		c, err := newCache(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		start := time.Now()
		loadErr := c.Preload(cmd.Context(), m.Sounds())
		elapsed := time.Since(start)

		printSummary(cmd.OutOrStdout(), c, m)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", faint(fmt.Sprintf("Cached %d of %d sounds in %s", c.Len(), m.Len(), elapsed.Round(time.Millisecond))))

		if loadErr != nil {
			return fmt.Errorf("preload failed: %w", loadErr)
		}
		return nil
	},
}

// pcmInfo is implemented by handles that know their decoded size.
type pcmInfo interface {
	Size() int
	Duration() time.Duration
}

// describe returns a short size and length summary for h.
func describe(h cache.Handle) string {
	info, ok := h.(pcmInfo)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s, %s", humanize.IBytes(uint64(info.Size())), info.Duration().Round(time.Millisecond)) //nolint:gosec
}

// printSummary lists every manifest entry and whether it is cached.
func printSummary(w io.Writer, c *cache.Cache, m *manifest.Manifest) {
	var total uint64
	for _, id := range m.IDs() {
		h, ok := c.Get(id)
		if !ok {
			fmt.Fprintf(w, "%s %s %s\n", failure("✗"), id, faint(m.Entries[id]))
			continue
		}
		if info, ok := h.(pcmInfo); ok {
			total += uint64(info.Size()) //nolint:gosec
		}
		fmt.Fprintf(w, "%s %s %s %s\n", keyword("✓"), id, faint(m.Entries[id]), describe(h))
	}
	if total > 0 {
		fmt.Fprintf(w, "%s\n", faint(humanize.IBytes(total)+" of decoded audio in memory"))
	}
}
