package cmd

import (
	"fmt"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the resolved source policy table",
	Long:  `Display every configured source with its pin, sound file and resolved policy (interaction mode, self behavior, priority), including documented defaults for omitted fields.`,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	sources, err := cfg.BuildSources()
	if err != nil {
		return err
	}

	nameWidth := len("SOURCE")
	for _, src := range sources {
		if w := runewidth.StringWidth(src.Name); w > nameWidth {
			nameWidth = w
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %-4s  %-9s  %-7s  %-8s  %s\n",
		runewidth.FillRight("SOURCE", nameWidth), "PIN", "MODE", "SELF", "PRIORITY", "SOUND")
	for i, src := range sources {
		fmt.Fprintf(out, "%s  %-4d  %-9s  %-7s  %-8d  %s\n",
			runewidth.FillRight(src.Name, nameWidth),
			cfg.Pins[i], src.Mode, src.Self, src.Priority, src.SoundFile)
	}
	return nil
}
