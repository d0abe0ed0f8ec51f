package timecode

// DisplayMode selects how the current position is rendered.
type DisplayMode int

const (
	// ModeTimecode renders HH:MM:SS:FF.
	ModeTimecode DisplayMode = iota
	// ModeFrames renders an absolute frame number.
	ModeFrames
)

// String returns the display mode name.
func (m DisplayMode) String() string {
	switch m {
	case ModeTimecode:
		return "Timecode"
	case ModeFrames:
		return "Frames"
	default:
		return "Unknown"
	}
}

// Cycle returns the next display mode.
func (m DisplayMode) Cycle() DisplayMode {
	switch m {
	case ModeTimecode:
		return ModeFrames
	default:
		return ModeTimecode
	}
}
