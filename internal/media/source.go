// Package media defines the source and metadata model shared by the
// playback coordinator, the backend adapters and the probe service.
package media

import (
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Source describes a loaded media file. It is immutable once created;
// a new load replaces it wholesale.
type Source struct {
	ID       string
	Path     string
	Name     string
	Size     int64
	Duration float64 // seconds, as declared by the file selector; 0 if unknown
	HasVideo bool
}

// NewSource creates a source descriptor for a file path.
func NewSource(path string, size int64, duration float64, hasVideo bool) Source {
	return Source{
		ID:       uuid.NewString(),
		Path:     path,
		Name:     filepath.Base(path),
		Size:     size,
		Duration: duration,
		HasVideo: hasVideo,
	}
}

// SizeLabel returns the byte size in human-readable form ("1.2 GB").
func (s Source) SizeLabel() string {
	if s.Size <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(s.Size))
}
