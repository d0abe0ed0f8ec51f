package timecode

import (
	"math"
	"strconv"
	"strings"
)

// Parse interprets user-entered timecode against the current playback time.
// Supported forms:
//
//	HH:MM:SS:FF     absolute (1-4 groups, right-aligned to seconds)
//	+M:SS / -M:SS   relative offset
//	..FF            frame-only absolute within the current second
//	+..N / -..N     frame-only relative
//
// start is the source start-timecode in effect, or empty. On any parse
// failure ok is false and the caller must keep its previous value.
func Parse(input string, current, fps float64, start string) (seconds float64, ok bool) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, false
	}

	switch {
	case strings.HasPrefix(input, "+..") || strings.HasPrefix(input, "-.."):
		return parseFrameRelative(input, current, fps)
	case strings.HasPrefix(input, ".."):
		return parseFrameAbsolute(input[2:], current, fps)
	case input[0] == '+' || input[0] == '-':
		return parseRelative(input, current, fps)
	default:
		return parseAbsolute(input, fps, start)
	}
}

// ParseFrameNumber interprets input in frame-count display mode: a bare
// integer is an absolute frame number (relative to the start timecode), a
// +N/-N form is a frame offset from the current time.
func ParseFrameNumber(input string, current, fps float64, start string) (float64, bool) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, false
	}

	sign := 0
	if input[0] == '+' {
		sign = 1
		input = input[1:]
	} else if input[0] == '-' {
		sign = -1
		input = input[1:]
	}
	n, err := strconv.ParseInt(input, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}

	if sign != 0 {
		return current + float64(sign)*float64(n)/fps, true
	}
	startFrames, _ := frames(start, fps)
	return float64(n-startFrames) / fps, true
}

// parseAbsolute handles 1-4 separator-delimited groups right-aligned to
// seconds: S, M:S, H:M:S, H:M:S:F. Against a source start timecode the
// result is the frame delta from that start, divided by fps.
func parseAbsolute(input string, fps float64, start string) (float64, bool) {
	groups, ok := splitGroups(input)
	if !ok || len(groups) == 0 || len(groups) > 4 {
		return 0, false
	}

	var h, m, s, f int64
	switch len(groups) {
	case 1:
		s = groups[0]
	case 2:
		m, s = groups[0], groups[1]
	case 3:
		h, m, s = groups[0], groups[1], groups[2]
	case 4:
		h, m, s, f = groups[0], groups[1], groups[2], groups[3]
	}

	fpsInt := int64(math.Round(fps))
	if h >= 24 || m >= 60 || s >= 60 || f >= fpsInt {
		return 0, false
	}

	abs := ((h*60+m)*60+s)*fpsInt + f
	startFrames, _ := frames(start, fps)
	return float64(abs-startFrames) / fps, true
}

// parseRelative handles +/- prefixed 1-4 group offsets. Two groups are
// minutes:seconds unless either exceeds 59, in which case they are
// seconds:frames.
func parseRelative(input string, current, fps float64) (float64, bool) {
	sign := 1.0
	if input[0] == '-' {
		sign = -1
	}
	groups, ok := splitGroups(input[1:])
	if !ok || len(groups) == 0 || len(groups) > 4 {
		return 0, false
	}

	var offset float64
	switch len(groups) {
	case 1:
		offset = float64(groups[0])
	case 2:
		if groups[0] > 59 || groups[1] > 59 {
			offset = float64(groups[0]) + float64(groups[1])/fps
		} else {
			offset = float64(groups[0]*60 + groups[1])
		}
	case 3:
		offset = float64((groups[0]*60+groups[1])*60 + groups[2])
	case 4:
		offset = float64((groups[0]*60+groups[1])*60+groups[2]) + float64(groups[3])/fps
	}

	return current + sign*offset, true
}

// parseFrameAbsolute handles the "..FF" form: frames within the current
// second, so FF must be below the frame rate.
func parseFrameAbsolute(digits string, current, fps float64) (float64, bool) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 || n >= int64(math.Round(fps)) {
		return 0, false
	}
	return math.Floor(current) + float64(n)/fps, true
}

// parseFrameRelative handles "+..N"/"-..N": a frame count not bounded by
// the frame rate.
func parseFrameRelative(input string, current, fps float64) (float64, bool) {
	sign := 1.0
	if input[0] == '-' {
		sign = -1
	}
	n, err := strconv.ParseInt(input[3:], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return current + sign*float64(n)/fps, true
}

// splitGroups splits on ':', ';' or '.' and parses each group as a
// non-negative integer. Empty or non-numeric groups fail the whole parse.
func splitGroups(input string) ([]int64, bool) {
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ':' || r == ';' || r == '.'
	})
	// FieldsFunc drops empty groups, so "1::30" would silently collapse;
	// reject by comparing against a manual count of separators.
	seps := strings.Count(input, ":") + strings.Count(input, ";") + strings.Count(input, ".")
	if len(parts) != seps+1 {
		return nil, false
	}

	groups := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return nil, false
		}
		groups = append(groups, n)
	}
	return groups, true
}

// FrameDuration returns the duration of one frame in seconds.
func FrameDuration(fps float64) float64 {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return 1 / fps
}
