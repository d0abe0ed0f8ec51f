// Package probe extracts container and stream metadata with ffprobe.
package probe

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/aagedal/reel/internal/media"
)

// Service runs ffprobe against media files.
type Service struct {
	binary string
}

// New creates a probe service. An empty binary resolves ffprobe from
// $PATH.
func New(binary string) *Service {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Service{binary: binary}
}

// ffprobe -print_format json output, reduced to the fields we read.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	CodecName    string            `json:"codec_name"`
	PixFmt       string            `json:"pix_fmt"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	RFrameRate   string            `json:"r_frame_rate"`
	Channels     int               `json:"channels"`
	SampleRate   string            `json:"sample_rate"`
	Tags         map[string]string `json:"tags"`
	Disposition  map[string]int    `json:"disposition"`
}

// Probe runs ffprobe on path and returns the parsed metadata.
func (s *Service) Probe(path string) (*media.Metadata, error) {
	cmd := exec.Command(s.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseOutput(out)
}

func parseOutput(data []byte) (*media.Metadata, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	md := &media.Metadata{}
	if raw.Format.Duration != "" {
		if d, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
			md.Duration = d
		}
	}
	md.StartTimecode = raw.Format.Tags["timecode"]

	for _, st := range raw.Streams {
		switch st.CodecType {
		case "video":
			// Cover art embeds as an attached-picture video stream; it is
			// not the image we play.
			if st.Disposition["attached_pic"] == 1 {
				continue
			}
			if md.VideoCodec != "" {
				continue
			}
			md.VideoCodec = st.CodecName
			md.PixelFormat = st.PixFmt
			md.FrameRate = parseFrameRate(st)
			if tc := st.Tags["timecode"]; tc != "" {
				md.StartTimecode = tc
			}
		case "audio":
			sampleRate := 0
			if st.SampleRate != "" {
				sampleRate, _ = strconv.Atoi(st.SampleRate)
			}
			md.Audio = append(md.Audio, media.AudioStream{
				Index:      len(md.Audio),
				Codec:      st.CodecName,
				Channels:   st.Channels,
				SampleRate: sampleRate,
				Title:      st.Tags["title"],
				Language:   st.Tags["language"],
				Default:    st.Disposition["default"] == 1,
			})
		case "subtitle":
			md.Subtitles = append(md.Subtitles, media.SubtitleStream{
				Index:    len(md.Subtitles),
				Codec:    st.CodecName,
				Title:    st.Tags["title"],
				Language: st.Tags["language"],
			})
		}
	}

	return md, nil
}

func parseFrameRate(st probeStream) float64 {
	if r := parseFraction(st.AvgFrameRate); r > 0 {
		return r
	}
	return parseFraction(st.RFrameRate)
}

// parseFraction parses ffprobe's rational rate notation, e.g.
// "30000/1001" or "25/1".
func parseFraction(s string) float64 {
	if s == "" {
		return 0
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
