package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Engine forces a playback engine ("mpv" or "vlc"); empty means
	// automatic selection with fallback.
	Engine string `koanf:"engine"`

	// DefaultFPS is the frame rate assumed when a file carries none.
	DefaultFPS float64 `koanf:"default_fps"`

	// ScreenshotDir is where screenshots land; empty means cwd.
	ScreenshotDir string `koanf:"screenshot_dir"`
	// ExportDir is where trim exports land; empty means cwd.
	ExportDir string `koanf:"export_dir"`

	Binaries BinariesConfig `koanf:"binaries"`
	Playback PlaybackConfig `koanf:"playback"`
}

// BinariesConfig overrides the external tool lookups. Empty values fall
// back to $PATH resolution.
type BinariesConfig struct {
	MPV     string `koanf:"mpv"`
	VLC     string `koanf:"vlc"`
	FFmpeg  string `koanf:"ffmpeg"`
	FFprobe string `koanf:"ffprobe"`
}

// PlaybackConfig holds playback engine tuning.
type PlaybackConfig struct {
	LoopPollMs      int `koanf:"loop_poll_ms"`      // end-of-media poll interval (default: 100)
	LoopToleranceMs int `koanf:"loop_tolerance_ms"` // how close to the end counts as the end (default: 50)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DefaultFPS <= 0 {
		cfg.DefaultFPS = 30
	}
	cfg.ScreenshotDir = expandPath(cfg.ScreenshotDir)
	cfg.ExportDir = expandPath(cfg.ExportDir)
	cfg.Binaries.MPV = expandPath(cfg.Binaries.MPV)
	cfg.Binaries.VLC = expandPath(cfg.Binaries.VLC)
	cfg.Binaries.FFmpeg = expandPath(cfg.Binaries.FFmpeg)
	cfg.Binaries.FFprobe = expandPath(cfg.Binaries.FFprobe)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/reel/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reel", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlaybackConfig returns the playback configuration with defaults
// applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.LoopPollMs <= 0 {
		cfg.LoopPollMs = 100
	}
	if cfg.LoopToleranceMs <= 0 {
		cfg.LoopToleranceMs = 50
	}

	return cfg
}
