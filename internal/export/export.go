// Package export produces still frames and trimmed copies with ffmpeg.
package export

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Service runs ffmpeg export jobs. Calls block until the subprocess
// exits; callers run them off their coordination goroutine.
type Service struct {
	binary string
}

// New creates an export service. An empty binary resolves ffmpeg from
// $PATH.
func New(binary string) *Service {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Service{binary: binary}
}

// Screenshot writes the frame at the given time to dst. The image format
// follows the destination extension.
func (s *Service) Screenshot(src string, at float64, dst string) error {
	return s.run(dst, screenshotArgs(src, at, dst))
}

// ExportRange writes the [in, out] range of src to dst without
// re-encoding.
func (s *Service) ExportRange(src string, in, out float64, dst string) error {
	if out <= in {
		return fmt.Errorf("invalid range: out %.3f <= in %.3f", out, in)
	}
	return s.run(dst, rangeArgs(src, in, out, dst))
}

func (s *Service) run(dst string, args []string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	cmd := exec.Command(s.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Clean up partial file
		os.Remove(dst)
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, string(output))
	}

	// ffmpeg can exit zero without producing output, e.g. a seek past the
	// end of the file. Treat a missing destination as a failure.
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("no output written to %s", dst)
	}
	return nil
}

// screenshotArgs builds the ffmpeg invocation for a single-frame grab.
// -ss before -i uses the fast keyframe seek, then decodes to the exact
// frame.
func screenshotArgs(src string, at float64, dst string) []string {
	return []string{
		"-ss", formatSeconds(at),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		dst,
	}
}

// rangeArgs builds the ffmpeg invocation for a stream-copy trim.
func rangeArgs(src string, in, out float64, dst string) []string {
	return []string{
		"-ss", formatSeconds(in),
		"-to", formatSeconds(out),
		"-i", src,
		"-map", "0",
		"-c", "copy",
		"-y",
		dst,
	}
}

func formatSeconds(t float64) string {
	return strconv.FormatFloat(t, 'f', 3, 64)
}
