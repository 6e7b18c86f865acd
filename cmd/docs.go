package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed guide.md
var guideMarkdown string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the wiring and policy guide",
	RunE:  runDocs,
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := renderer.Render(guideMarkdown)
	if err != nil {
		return fmt.Errorf("rendering guide: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
