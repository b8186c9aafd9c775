package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	Annotations:           map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, err := mcobra.NewManPage(1, cmd.Root())
		if err != nil {
			return err //nolint:wrapcheck
		}

		page = page.WithSection("Files", "Configuration is read from cardsound.yml in the user config directory.\n"+
			"Override the directory with CARDSOUND_CONFIG_HOME.")
		fmt.Fprintln(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
		return nil
	},
}
