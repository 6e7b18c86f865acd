// Package config provides configuration types and defaults for padkit.
package config

import (
	"fmt"
	"time"

	"github.com/zjrosen/padkit/internal/source"
)

// SourceConfig defines one sound source. Its position in the sources list
// is its source id and its button's position in the pins list.
type SourceConfig struct {
	Name  string `mapstructure:"name"`
	Sound string `mapstructure:"sound"` // file name inside sounds_dir
	Mode  string `mapstructure:"mode"`  // interrupt | overlay | exclusive
	Self  string `mapstructure:"self"`  // ignore | restart | queue
	// Priority is used only for strict less-than comparisons under
	// overlay mode. Unset means the documented default of 1.
	Priority *int `mapstructure:"priority"`
}

// AudioConfig holds speaker settings.
type AudioConfig struct {
	SampleRate int           `mapstructure:"sample_rate"`
	BufferLen  time.Duration `mapstructure:"buffer_len"`
}

// LogConfig holds log sink settings.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// TelemetryConfig holds tracing settings. Disabled by default.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"` // stdout | otlp
	Endpoint string `mapstructure:"endpoint"` // otlp collector address
}

// Config holds all configuration options for padkit.
type Config struct {
	PollInterval time.Duration   `mapstructure:"poll_interval"`
	Channels     int             `mapstructure:"channels"`
	SoundsDir    string          `mapstructure:"sounds_dir"`
	WatchSounds  bool            `mapstructure:"watch_sounds"`
	Pins         []int           `mapstructure:"pins"` // BCM pin numbers, one per source
	Sources      []SourceConfig  `mapstructure:"sources"`
	Audio        AudioConfig     `mapstructure:"audio"`
	Log          LogConfig       `mapstructure:"log"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`
}

// DefaultPins matches the original five-button wiring (BCM numbering).
func DefaultPins() []int {
	return []int{18, 19, 20, 21, 26}
}

/// DefaultSources returns the default five-source table: one overlay
// source per pin, sound1.wav through sound5.wav.
func DefaultSources() []SourceConfig {
	out := make([]SourceConfig, len(DefaultPins()))
	for i := range out {
		out[i] = SourceConfig{
			Name:  fmt.Sprintf("button-%d", i+1),
			Sound: fmt.Sprintf("sound%d.wav", i+1),
		}
	}
	return out
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		PollInterval: 10 * time.Millisecond,
		Channels:     8,
		SoundsDir:    "sounds",
		WatchSounds:  true,
		Pins:         DefaultPins(),
		Sources:      DefaultSources(),
		Audio: AudioConfig{
			SampleRate: 44100,
			BufferLen:  50 * time.Millisecond,
		},
		Log: LogConfig{
			File:  "padkit.log",
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Exporter: "stdout",
		},
	}
}

// Validate checks the configuration; any failure here is fatal at
// startup.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", c.Channels)
	}
	if c.SoundsDir == "" {
		return fmt.Errorf("sounds_dir is required")
	}
	if c.Audio.SampleRate < 8000 {
		return fmt.Errorf("audio.sample_rate must be at least 8000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.BufferLen <= 0 {
		return fmt.Errorf("audio.buffer_len must be positive, got %s", c.Audio.BufferLen)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	if len(c.Pins) < len(c.Sources) {
		return fmt.Errorf("%d sources configured but only %d pins", len(c.Sources), len(c.Pins))
	}
	seen := make(map[int]int, len(c.Pins))
	for i, pin := range c.Pins {
		if pin < 0 {
			return fmt.Errorf("pins[%d]: pin must be non-negative, got %d", i, pin)
		}
		if j, dup := seen[pin]; dup {
			return fmt.Errorf("pins[%d]: pin %d already used by pins[%d]", i, pin, j)
		}
		seen[pin] = i
	}
	if _, err := c.BuildSources(); err != nil {
		return err
	}
	switch c.Telemetry.Exporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.exporter must be stdout or otlp, got %q", c.Telemetry.Exporter)
	}
	if c.Telemetry.Enabled && c.Telemetry.Exporter == "otlp" && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required for the otlp exporter")
	}
	return nil
}

// BuildSources resolves the source table into policy entries, applying
// the documented defaults (overlay, restart, priority 1) to every field a
// source omits.
func (c Config) BuildSources() ([]source.Source, error) {
	out := make([]source.Source, len(c.Sources))
	for i, sc := range c.Sources {
		name := sc.Name
		if name == "" {
			name = fmt.Sprintf("button-%d", i+1)
		}
		src := source.DefaultPolicy(i, name, sc.Sound)
		if sc.Mode != "" {
			mode, err := source.ParseInteractionMode(sc.Mode)
			if err != nil {
				return nil, fmt.Errorf("sources[%d]: %w", i, err)
			}
			src.Mode = mode
		}
		if sc.Self != "" {
			self, err := source.ParseSelfBehavior(sc.Self)
			if err != nil {
				return nil, fmt.Errorf("sources[%d]: %w", i, err)
			}
			src.Self = self
		}
		if sc.Priority != nil {
			if *sc.Priority < 0 {
				return nil, fmt.Errorf("sources[%d]: priority must be non-negative, got %d", i, *sc.Priority)
			}
			src.Priority = *sc.Priority
		}
		out[i] = src
	}
	return out, nil
}
