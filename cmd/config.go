package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long:  `Dump the configuration after merging the config file over the built-in defaults. Useful as a starting point for a padkit.yaml.`,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out, err := yaml.Marshal(configDump{
		PollInterval: cfg.PollInterval.String(),
		Channels:     cfg.Channels,
		SoundsDir:    cfg.SoundsDir,
		WatchSounds:  cfg.WatchSounds,
		Pins:         cfg.Pins,
		Sources:      dumpSources(),
	})
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

// configDump mirrors Config with yaml tags matching the file keys, so the
// printed document round-trips through Load.
type configDump struct {
	PollInterval string       `yaml:"poll_interval"`
	Channels     int          `yaml:"channels"`
	SoundsDir    string       `yaml:"sounds_dir"`
	WatchSounds  bool         `yaml:"watch_sounds"`
	Pins         []int        `yaml:"pins"`
	Sources      []sourceDump `yaml:"sources"`
}

type sourceDump struct {
	Name     string `yaml:"name"`
	Sound    string `yaml:"sound"`
	Mode     string `yaml:"mode"`
	Self     string `yaml:"self"`
	Priority int    `yaml:"priority"`
}

func dumpSources() []sourceDump {
	resolved, err := cfg.BuildSources()
	if err != nil {
		return nil
	}
	out := make([]sourceDump, len(resolved))
	for i, src := range resolved {
		out[i] = sourceDump{
			Name:     src.Name,
			Sound:    src.SoundFile,
			Mode:     src.Mode.String(),
			Self:     src.Self.String(),
			Priority: src.Priority,
		}
	}
	return out
}
