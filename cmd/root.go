// Package cmd wires the padkit command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/padkit/internal/audio"
	"github.com/zjrosen/padkit/internal/config"
	"github.com/zjrosen/padkit/internal/dispatch"
	"github.com/zjrosen/padkit/internal/engine"
	"github.com/zjrosen/padkit/internal/input"
	"github.com/zjrosen/padkit/internal/log"
	"github.com/zjrosen/padkit/internal/pool"
	"github.com/zjrosen/padkit/internal/pubsub"
	"github.com/zjrosen/padkit/internal/source"
	"github.com/zjrosen/padkit/internal/telemetry"
	"github.com/zjrosen/padkit/internal/tui"
)

var (
	cfgPath   string
	keyboard  bool
	soundsDir string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "padkit",
	Short: "Button-triggered sample player with playback arbitration",
	Long: `padkit maps physical buttons (or number keys) to audio samples and
arbitrates which sounds play, restart, block or get pre-empted when
several buttons are active at once.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runPlayer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default padkit.yaml)")
	rootCmd.Flags().BoolVarP(&keyboard, "keyboard", "k", false, "use the keyboard soundboard instead of GPIO")
	rootCmd.PersistentFlags().StringVar(&soundsDir, "sounds-dir", "", "override the sounds directory")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	// version and docs work without a valid config file.
	switch cmd.Name() {
	case "version", "docs":
		return nil
	}
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return err
	}
	if soundsDir != "" {
		cfg.SoundsDir = soundsDir
	}
	return nil
}

func runPlayer(cmd *cobra.Command, args []string) error {
	if err := log.Init(cfg.Log.File, cfg.Log.Level); err != nil {
		return err
	}
	defer log.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	sources, err := cfg.BuildSources()
	if err != nil {
		return err
	}
	registry, err := source.NewRegistry(sources)
	if err != nil {
		return err
	}

	device, err := audio.Open(cfg.Audio.SampleRate, cfg.Audio.BufferLen)
	if err != nil {
		return err
	}
	defer device.Close()

	library, err := audio.NewLibrary(cfg.SoundsDir, sources, device.Format())
	if err != nil {
		return err
	}
	if cfg.WatchSounds {
		watcher, werr := audio.NewWatcher(ctx, library)
		if werr != nil {
			log.ErrorErr(log.CatAudio, "sounds watcher disabled", werr)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	channels := pool.New(cfg.Channels)
	arbiter := engine.New(registry, channels, library)
	broker := pubsub.NewBroker[dispatch.Event]()
	defer broker.Close()

	var lines []input.Line
	if !keyboard {
		lines, err = input.OpenLines(cfg.Pins[:len(sources)])
		if err != nil {
			return fmt.Errorf("opening gpio lines (try --keyboard off-Pi): %w", err)
		}
		defer func() {
			for _, l := range lines {
				_ = l.Close()
			}
		}()
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		Lines:        lines,
		Engine:       arbiter,
		PollInterval: cfg.PollInterval,
		Broker:       broker,
		Pool:         channels,
	})
	if err != nil {
		return err
	}
	if err := dispatcher.Start(ctx); err != nil {
		return err
	}
	defer dispatcher.Stop()

	if keyboard {
		model := tui.New(dispatcher, broker.Subscribe(), sources)
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	}

	printBanner(cmd, sources, library)
	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "\nshutting down")
	return nil
}

func printBanner(cmd *cobra.Command, sources []source.Source, library *audio.Library) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "padkit ready — press Ctrl+C to exit")
	for i, src := range sources {
		state := "loaded"
		if !library.Loaded(src.ID) {
			state = "missing"
		}
		fmt.Fprintf(out, "  %s (GPIO %d): %s [%s]\n", src.Name, cfg.Pins[i], src.SoundFile, state)
	}
}
