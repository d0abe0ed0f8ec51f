// Package cmd implements the command-line interface for reel.
package cmd

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aagedal/reel/internal/backend"
	"github.com/aagedal/reel/internal/config"
	"github.com/aagedal/reel/internal/errmsg"
	"github.com/aagedal/reel/internal/export"
	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/playback"
	"github.com/aagedal/reel/internal/probe"
	"github.com/aagedal/reel/internal/timecode"
)

var (
	cfg *config.Config

	flagEngine string
	flagStart  string
	flagLoop   bool
	flagDebug  bool
)

func init() {
	rootCmd.Flags().StringVarP(&flagEngine, "engine", "e", "auto", "Playback engine: auto, mpv or vlc")
	rootCmd.Flags().StringVarP(&flagStart, "start", "s", "", "Start position (seconds or timecode)")
	rootCmd.Flags().BoolVarP(&flagLoop, "loop", "l", false, "Loop at end of media")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "reel <file>",
	Short: "A frame-accurate review player for video files",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		if flagDebug {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("%s", errmsg.Format(errmsg.OpConfigLoad, err))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
	SilenceUsage: true,
}

func run(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpMediaLoad, path, err))
	}

	pb := cfg.GetPlaybackConfig()
	opts := playback.Options{
		NewPrimary:       func() backend.Adapter { return backend.NewMPV(cfg.Binaries.MPV) },
		NewUniversal:     func() backend.Adapter { return backend.NewVLC(cfg.Binaries.VLC) },
		Prober:           probe.New(cfg.Binaries.FFprobe),
		Exporter:         export.New(cfg.Binaries.FFmpeg),
		DefaultFPS:       cfg.DefaultFPS,
		LoopPollInterval: time.Duration(pb.LoopPollMs) * time.Millisecond,
		LoopTolerance:    float64(pb.LoopToleranceMs) / 1000,
	}

	engine := flagEngine
	if engine == "auto" && cfg.Engine != "" {
		engine = cfg.Engine
	}

	// Forcing an engine points both factories at it, which also disables
	// the fallback.
	switch engine {
	case "auto":
	case "mpv":
		opts.NewUniversal = opts.NewPrimary
	case "vlc":
		opts.NewPrimary = opts.NewUniversal
	default:
		return fmt.Errorf("unknown engine %q", engine)
	}

	start := 0.0
	if flagStart != "" {
		parsed, ok := timecode.Parse(flagStart, 0, cfg.DefaultFPS, "")
		if !ok {
			return fmt.Errorf("invalid start position %q", flagStart)
		}
		start = parsed
	}

	coord := playback.New(opts)
	defer coord.Close()

	coord.Load(media.NewSource(path, info.Size(), 0, true), nil, start)
	if flagLoop {
		coord.ToggleLoop()
	}

	return runConsole(coord)
}

// Execute processes the CLI entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
