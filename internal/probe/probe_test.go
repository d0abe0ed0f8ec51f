package probe

import (
	"math"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "prores",
      "codec_type": "video",
      "pix_fmt": "yuv422p10le",
      "r_frame_rate": "30000/1001",
      "avg_frame_rate": "30000/1001",
      "disposition": {"default": 1, "attached_pic": 0},
      "tags": {"timecode": "01:00:00:00"}
    },
    {
      "index": 1,
      "codec_name": "pcm_s24le",
      "codec_type": "audio",
      "sample_rate": "48000",
      "channels": 6,
      "disposition": {"default": 1},
      "tags": {"title": "5.1 Mix", "language": "eng"}
    },
    {
      "index": 2,
      "codec_name": "pcm_s24le",
      "codec_type": "audio",
      "sample_rate": "48000",
      "channels": 2,
      "disposition": {"default": 0},
      "tags": {"title": "Stereo Downmix", "language": "eng"}
    },
    {
      "index": 3,
      "codec_name": "mov_text",
      "codec_type": "subtitle",
      "disposition": {"default": 0},
      "tags": {"language": "eng"}
    }
  ],
  "format": {
    "duration": "734.567000",
    "tags": {"timecode": "00:59:50:00"}
  }
}`

func TestParseOutput(t *testing.T) {
	md, err := parseOutput([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("parseOutput() error = %v", err)
	}

	if math.Abs(md.Duration-734.567) > 1e-6 {
		t.Errorf("Duration = %v, want 734.567", md.Duration)
	}
	if md.VideoCodec != "prores" {
		t.Errorf("VideoCodec = %q, want prores", md.VideoCodec)
	}
	if md.PixelFormat != "yuv422p10le" {
		t.Errorf("PixelFormat = %q", md.PixelFormat)
	}
	if math.Abs(md.FrameRate-29.97002997) > 1e-6 {
		t.Errorf("FrameRate = %v, want 29.97", md.FrameRate)
	}
	// The video stream's timecode tag wins over the format-level one.
	if md.StartTimecode != "01:00:00:00" {
		t.Errorf("StartTimecode = %q, want 01:00:00:00", md.StartTimecode)
	}

	if len(md.Audio) != 2 {
		t.Fatalf("len(Audio) = %d, want 2", len(md.Audio))
	}
	first := md.Audio[0]
	if first.Index != 0 || first.Channels != 6 || !first.Default || first.Title != "5.1 Mix" {
		t.Errorf("Audio[0] = %+v", first)
	}
	second := md.Audio[1]
	if second.Index != 1 || second.Channels != 2 || second.Default {
		t.Errorf("Audio[1] = %+v", second)
	}
	if first.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", first.SampleRate)
	}

	if len(md.Subtitles) != 1 {
		t.Fatalf("len(Subtitles) = %d, want 1", len(md.Subtitles))
	}
	if md.Subtitles[0].Language != "eng" || md.Subtitles[0].Codec != "mov_text" {
		t.Errorf("Subtitles[0] = %+v", md.Subtitles[0])
	}

	if !md.HasSurroundAudio() {
		t.Error("HasSurroundAudio() = false, want true")
	}
}

func TestParseOutputSkipsCoverArt(t *testing.T) {
	out := `{
  "streams": [
    {
      "codec_name": "mjpeg",
      "codec_type": "video",
      "disposition": {"attached_pic": 1}
    },
    {
      "codec_name": "h264",
      "codec_type": "video",
      "avg_frame_rate": "25/1",
      "disposition": {"attached_pic": 0}
    }
  ],
  "format": {"duration": "10.0"}
}`
	md, err := parseOutput([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if md.VideoCodec != "h264" {
		t.Errorf("VideoCodec = %q, want h264", md.VideoCodec)
	}
	if md.FrameRate != 25 {
		t.Errorf("FrameRate = %v, want 25", md.FrameRate)
	}
}

func TestParseOutputMalformed(t *testing.T) {
	if _, err := parseOutput([]byte("not json")); err == nil {
		t.Error("expected error for malformed output")
	}
}

func TestParseFraction(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"25/1", 25},
		{"30000/1001", 29.97002997002997},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
		{"abc", 0},
		{"1/abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseFraction(tt.input)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseFraction(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFrameRateFallsBackToRFrameRate(t *testing.T) {
	st := probeStream{AvgFrameRate: "0/0", RFrameRate: "24/1"}
	if got := parseFrameRate(st); got != 24 {
		t.Errorf("parseFrameRate = %v, want 24", got)
	}
}
