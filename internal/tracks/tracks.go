// Package tracks computes the presentation order of audio and subtitle
// streams and maps presentation positions to backend-native track ids.
package tracks

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/aagedal/reel/internal/media"
)

// Native is one track as enumerated by a backend engine. The id spaces of
// the two engines are unrelated; only the enumeration order is assumed to
// follow the container's declaration order.
type Native struct {
	ID    int64
	Title string
}

// AudioTrack is one audio entry of the catalog, addressed by presentation
// position.
type AudioTrack struct {
	Position   int
	NativeID   int64
	Title      string
	Channels   int
	SampleRate int
}

// SubtitleTrack is one subtitle entry of the catalog.
type SubtitleTrack struct {
	Position int
	NativeID int64
	Title    string
}

// Catalog is the ordered track listing published to the UI. It is rebuilt
// whenever a backend becomes ready, its native track list changes, or
// probe metadata arrives.
type Catalog struct {
	Audio     []AudioTrack
	Subtitles []SubtitleTrack
}

// Order returns the declared audio streams in presentation order: stable
// sort by default-flag descending, then channel count descending, then
// declaration index ascending.
func Order(streams []media.AudioStream) []media.AudioStream {
	ordered := make([]media.AudioStream, len(streams))
	copy(ordered, streams)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Default != b.Default {
			return a.Default
		}
		if a.Channels != b.Channels {
			return a.Channels > b.Channels
		}
		return a.Index < b.Index
	})
	return ordered
}

// Build assembles a catalog from probe metadata and a backend's native
// enumeration. md may be nil when the probe has not completed yet, in
// which case the native enumeration order is used as-is.
func Build(md *media.Metadata, nativeAudio, nativeSubs []Native) Catalog {
	var c Catalog

	if md == nil || len(md.Audio) != len(nativeAudio) {
		// Without a usable declared/native correspondence, fall back to
		// the engine's own order.
		c.Audio = lo.Map(nativeAudio, func(n Native, i int) AudioTrack {
			return AudioTrack{Position: i, NativeID: n.ID, Title: audioTitle(n.Title, i)}
		})
	} else {
		ordered := Order(md.Audio)
		c.Audio = lo.Map(ordered, func(s media.AudioStream, i int) AudioTrack {
			native := nativeAudio[s.Index]
			title := s.Title
			if title == "" {
				title = native.Title
			}
			return AudioTrack{
				Position:   i,
				NativeID:   native.ID,
				Title:      audioTitle(title, i),
				Channels:   s.Channels,
				SampleRate: s.SampleRate,
			}
		})
	}

	c.Subtitles = lo.Map(nativeSubs, func(n Native, i int) SubtitleTrack {
		title := n.Title
		if title == "" && md != nil && i < len(md.Subtitles) {
			title = md.Subtitles[i].Title
			if title == "" {
				title = md.Subtitles[i].Language
			}
		}
		if title == "" {
			title = fmt.Sprintf("Subtitle %d", i+1)
		}
		return SubtitleTrack{Position: i, NativeID: n.ID, Title: title}
	})

	return c
}

// Clamp re-clamps a selected position into the new catalog size. Returns
// -1 when the catalog is empty.
func Clamp(position, count int) int {
	if count == 0 {
		return -1
	}
	if position < 0 {
		return 0
	}
	if position >= count {
		return count - 1
	}
	return position
}

// AudioID resolves a presentation position to its native id.
func (c Catalog) AudioID(position int) (int64, bool) {
	if position < 0 || position >= len(c.Audio) {
		return 0, false
	}
	return c.Audio[position].NativeID, true
}

// SubtitleID resolves a subtitle position to its native id.
func (c Catalog) SubtitleID(position int) (int64, bool) {
	if position < 0 || position >= len(c.Subtitles) {
		return 0, false
	}
	return c.Subtitles[position].NativeID, true
}

func audioTitle(title string, i int) string {
	if title != "" {
		return title
	}
	return fmt.Sprintf("Track %d", i+1)
}
