// Package backend wraps the playback engines behind a uniform adapter
// contract. Each adapter spawns its engine as a subprocess, translates the
// transport calls into the engine's own control idiom, and republishes the
// engine's asynchronous events on a single channel that the coordinator
// drains on its own goroutine.
package backend

import (
	"errors"

	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/tracks"
)

// Common errors for adapter implementations.
var (
	ErrUnavailable = errors.New("backend binary not available")
	ErrNotPrepared = errors.New("backend not prepared")
)

// Kind identifies which playback engine an adapter drives.
type Kind int

const (
	KindNone Kind = iota
	KindPrimary
	KindUniversal
)

// String returns the backend name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindPrimary:
		return "Primary"
	case KindUniversal:
		return "Universal"
	default:
		return "Unknown"
	}
}

// Adapter is the uniform capability contract over one playback engine.
//
// Prepare is fire-and-forget: readiness or failure arrives later as an
// event on Events(). All engine-originated callbacks are republished on
// that channel; no adapter goroutine touches coordinator state directly.
// After Teardown the adapter is dead and its channel must be discarded.
type Adapter interface {
	Kind() Kind

	Prepare(source media.Source, startTime float64) error
	Teardown()

	Play() error
	Pause() error
	Rate() float64
	SetRate(rate float64) error
	RateStep() float64
	MaxRate() float64
	Seek(seconds float64) error
	Duration() float64

	AudioTracks() []tracks.Native
	SubtitleTracks() []tracks.Native
	SelectAudio(nativeID int64) error
	SelectSubtitle(nativeID int64) error
	DisableSubtitles() error

	// AspectRatio reports the engine's rendered aspect ratio, if known.
	AspectRatio() (float64, bool)

	Events() <-chan Event
}
