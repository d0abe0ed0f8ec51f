package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aagedal/reel/internal/backend"
	"github.com/aagedal/reel/internal/playback"
)

// runConsole drives the coordinator from an interactive line-based
// prompt and prints state updates as they are published.
func runConsole(coord *playback.Coordinator) error {
	sub := coord.Subscribe()

	go func() {
		var last playback.Snapshot
		for {
			select {
			case snap := <-sub.Snapshots:
				printSnapshot(last, snap)
				last = snap
			case <-sub.Done:
				return
			}
		}
	}()

	fmt.Println("reel console - type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help", "h":
			printHelp()
		case "play":
			coord.Play()
		case "pause":
			coord.Pause()
		case "toggle", "t":
			coord.TogglePlayback()
		case "ff", "f":
			coord.FastForward()
		case "rew", "j":
			coord.Rewind()
		case "seek", "s":
			if len(args) == 1 {
				coord.SeekToInput(args[0])
			}
		case "step":
			n := 1
			if len(args) == 1 {
				n, _ = strconv.Atoi(args[0])
			}
			coord.SeekByFrames(n)
		case "audio", "a":
			if len(args) == 1 {
				if n, err := strconv.Atoi(args[0]); err == nil {
					coord.SelectAudioTrack(n)
				}
			}
		case "subs", "v":
			if len(args) == 1 {
				if args[0] == "off" {
					coord.SelectSubtitleTrack(-1)
				} else if n, err := strconv.Atoi(args[0]); err == nil {
					coord.SelectSubtitleTrack(n)
				}
			}
		case "loop", "l":
			coord.ToggleLoop()
		case "in", "i":
			coord.SetTrimIn()
		case "out", "o":
			coord.SetTrimOut()
		case "clear":
			coord.ClearTrim()
		case "display", "d":
			coord.CycleDisplayMode()
		case "shot", "g":
			coord.Screenshot(filepath.Join(cfg.ScreenshotDir, captureName("png")))
		case "export", "e":
			coord.ExportTrim(filepath.Join(cfg.ExportDir, captureName("mov")))
		case "retry":
			coord.Retry()
		case "quit", "q":
			return nil
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
	return scanner.Err()
}

func printHelp() {
	fmt.Print(`  toggle|t        play/pause (stops reverse playback)
  play, pause     explicit transport
  ff|f            faster forward (or start playing when paused)
  rew|j           reverse playback (repeat to speed up)
  seek|s <pos>    seek: timecode, partial timecode, ..frames, +/- offsets
  step [n]        step n frames (negative for backwards)
  audio|a <n>     select audio track
  subs|v <n|off>  select subtitle track or turn subtitles off
  loop|l          toggle loop at end
  in|i, out|o     set trim points at current position
  clear           clear trim points
  display|d       cycle timecode / frame number display
  shot|g          save a screenshot of the current frame
  export|e        export the trim range
  retry           retry after a playback failure
  quit|q          exit
`)
}

func printSnapshot(prev, snap playback.Snapshot) {
	if snap.Status != prev.Status {
		switch snap.Status {
		case playback.StatusPreparing:
			fmt.Printf("loading %s (%s)...\n", snap.SourceName, snap.SourceSize)
		case playback.StatusReady:
			fmt.Printf("ready on %s backend, duration %s\n",
				snap.Backend, formatDuration(snap.Duration))
		case playback.StatusFailed:
			fmt.Printf("playback failed: %s (type 'retry' to try again)\n", snap.ErrorMessage)
		}
	}
	if snap.Backend != prev.Backend && prev.Backend != backend.KindNone && snap.Status == playback.StatusPreparing {
		fmt.Printf("switching to %s backend...\n", snap.Backend)
	}
	if snap.ExportStatus != "" && snap.ExportStatus != prev.ExportStatus {
		fmt.Println(snap.ExportStatus)
	}
	if snap.Status == playback.StatusReady && snap.PositionLabel != prev.PositionLabel {
		fmt.Printf("\r%s  %s rate=%.1f%s    ",
			snap.PositionLabel, stateLabel(snap), snap.Rate, loopLabel(snap))
	}
}

func stateLabel(snap playback.Snapshot) string {
	switch {
	case snap.ReverseActive:
		return "reverse"
	case snap.Playing:
		return "playing"
	default:
		return "paused"
	}
}

func loopLabel(snap playback.Snapshot) string {
	if snap.Loop {
		return " loop"
	}
	return ""
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Round(time.Millisecond).String()
}

func captureName(ext string) string {
	return fmt.Sprintf("reel-%s.%s", time.Now().Format("20060102-150405"), ext)
}
