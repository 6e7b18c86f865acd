package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the configuration file and merges it over the defaults.
// With an empty path it searches for padkit.yaml in the working
// directory and ~/.config/padkit; a missing file just yields the
// defaults. An explicit path that does not exist is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("padkit")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/padkit")
	}

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	} else if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
