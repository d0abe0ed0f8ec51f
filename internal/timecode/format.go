// Package timecode converts between seconds and SMPTE-style timecode
// strings, and parses user-entered timecode in absolute, relative and
// frame-only forms.
package timecode

import (
	"fmt"
	"math"
)

// DefaultFPS is used when a source declares no frame rate.
const DefaultFPS = 30.0

// Format renders seconds as a zero-padded HH:MM:SS:FF timecode at the given
// frame rate. start is an optional start-timecode offset expressed against
// the same frame rate ("01:00:00:00"); an unparseable start is treated as
// zero. dropFrame selects ';' instead of ':' as the frames separator.
func Format(seconds, fps float64, start string, dropFrame bool) string {
	if fps <= 0 {
		fps = DefaultFPS
	}
	fpsInt := int64(math.Round(fps))

	startFrames, _ := frames(start, fps)
	total := int64(math.Round(float64(startFrames) + seconds*fps))
	if total < 0 {
		total = 0
	}

	ff := total % fpsInt
	rem := total / fpsInt
	ss := rem % 60
	rem /= 60
	mm := rem % 60
	hh := (rem / 60) % 24

	sep := ":"
	if dropFrame {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", hh, mm, ss, sep, ff)
}

// FrameCount returns the absolute frame number for seconds at the given
// frame rate, offset by the optional start timecode. Used by the frame-count
// display mode.
func FrameCount(seconds, fps float64, start string) int64 {
	if fps <= 0 {
		fps = DefaultFPS
	}
	startFrames, _ := frames(start, fps)
	return startFrames + int64(math.Round(seconds*fps))
}

// frames converts a full H:M:S:F timecode string into a frame count.
// Returns ok=false for empty or malformed input.
func frames(tc string, fps float64) (int64, bool) {
	if tc == "" {
		return 0, false
	}
	groups, ok := splitGroups(tc)
	if !ok || len(groups) != 4 {
		return 0, false
	}
	h, m, s, f := groups[0], groups[1], groups[2], groups[3]
	fpsInt := int64(math.Round(fps))
	if h >= 24 || m >= 60 || s >= 60 || f >= fpsInt {
		return 0, false
	}
	return ((h*60+m)*60+s)*fpsInt + f, true
}
