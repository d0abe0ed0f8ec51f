package media

// AudioStream describes one audio stream as declared by the container.
type AudioStream struct {
	Index      int // declaration index among the container's audio streams
	Codec      string
	Channels   int
	SampleRate int
	Title      string
	Language   string
	Default    bool // container default-track flag
}

// SubtitleStream describes one subtitle stream as declared by the container.
type SubtitleStream struct {
	Index    int // declaration index among the container's subtitle streams
	Codec    string
	Title    string
	Language string
}

// Metadata holds the container/stream description delivered by the probe
// service. It arrives asynchronously, usually after playback has started.
type Metadata struct {
	Duration      float64 // seconds
	VideoCodec    string
	PixelFormat   string
	FrameRate     float64 // 0 if unknown
	StartTimecode string  // declared source timecode ("01:00:00:00"), empty if none
	Audio         []AudioStream
	Subtitles     []SubtitleStream
}

// MaxAudioChannels returns the highest channel count across audio streams.
func (m *Metadata) MaxAudioChannels() int {
	maxCh := 0
	for _, s := range m.Audio {
		if s.Channels > maxCh {
			maxCh = s.Channels
		}
	}
	return maxCh
}

// HasSurroundAudio reports whether any audio stream has more than two channels.
func (m *Metadata) HasSurroundAudio() bool {
	return m.MaxAudioChannels() > 2
}
