package playback

import (
	"strings"

	"github.com/aagedal/reel/internal/backend"
	"github.com/aagedal/reel/internal/media"
)

// intermediateCodecFamilies are professional intermediate/RAW video codec
// families. The primary engine handles these fine even with surround
// audio, so they bypass the forced-universal rule.
var intermediateCodecFamilies = []string{
	"prores",
	"dnxhd",
	"dnxhr",
	"cineform",
	"cfhd",
	"braw",
	"r3d",
}

func isIntermediateCodec(codec string) bool {
	codec = strings.ToLower(codec)
	for _, family := range intermediateCodecFamilies {
		if strings.Contains(codec, family) {
			return true
		}
	}
	return false
}

// initialBackend decides which backend to try first for a load. The
// primary engine mishandles surround audio paired with consumer video
// codecs, so that combination goes straight to the universal backend.
// Without metadata the primary engine is attempted first.
func initialBackend(md *media.Metadata) backend.Kind {
	if md == nil {
		return backend.KindPrimary
	}
	if md.HasSurroundAudio() && !isIntermediateCodec(md.VideoCodec) {
		return backend.KindUniversal
	}
	return backend.KindPrimary
}

// forcesUniversalSwitch reports whether late-arriving metadata requires a
// switch off the primary backend.
func forcesUniversalSwitch(md *media.Metadata) bool {
	return md != nil && md.HasSurroundAudio() && !isIntermediateCodec(md.VideoCodec)
}
