package playback

import (
	"github.com/aagedal/reel/internal/backend"
	"github.com/aagedal/reel/internal/timecode"
	"github.com/aagedal/reel/internal/tracks"
)

// Snapshot is the published playback state pushed to subscribers. It is a
// value copy; consumers never share memory with the coordinator.
type Snapshot struct {
	Status  Status
	Backend backend.Kind

	Time     float64 // seconds, within [0, Duration]
	Duration float64
	Playing  bool

	// Rate is the displayed playback rate. Negative values are an artifact
	// of reverse simulation and are never sent to a backend.
	Rate          float64
	ReverseActive bool
	Loop          bool

	Catalog           tracks.Catalog
	AudioSelection    int // presentation position, -1 when the catalog is empty
	SubtitleSelection int // -1 when subtitles are off

	TrimIn     float64
	TrimInSet  bool
	TrimOut    float64
	TrimOutSet bool

	DisplayMode timecode.DisplayMode
	// PositionLabel is Time rendered per DisplayMode: a timecode string or
	// an absolute frame number.
	PositionLabel string

	SourceName string
	SourceSize string

	// AspectRatio is the engine-reported render aspect, 0 when unknown.
	AspectRatio float64

	// ErrorMessage is set while Status is Failed.
	ErrorMessage string
	// ExportStatus is a transient message from the last screenshot or trim
	// export request.
	ExportStatus string
}
