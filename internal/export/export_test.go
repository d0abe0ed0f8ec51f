package export

import (
	"reflect"
	"testing"
)

func TestScreenshotArgs(t *testing.T) {
	got := screenshotArgs("/media/clip.mov", 12.5, "/tmp/frame.png")
	want := []string{
		"-ss", "12.500",
		"-i", "/media/clip.mov",
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		"/tmp/frame.png",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("screenshotArgs = %v, want %v", got, want)
	}
}

func TestRangeArgs(t *testing.T) {
	got := rangeArgs("/media/clip.mov", 5, 30.25, "/tmp/out.mov")
	want := []string{
		"-ss", "5.000",
		"-to", "30.250",
		"-i", "/media/clip.mov",
		"-map", "0",
		"-c", "copy",
		"-y",
		"/tmp/out.mov",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rangeArgs = %v, want %v", got, want)
	}
}

func TestExportRangeRejectsInvertedRange(t *testing.T) {
	s := New("")
	if err := s.ExportRange("/media/clip.mov", 30, 5, "/tmp/out.mov"); err == nil {
		t.Error("expected error for out <= in")
	}
	if err := s.ExportRange("/media/clip.mov", 10, 10, "/tmp/out.mov"); err == nil {
		t.Error("expected error for zero-length range")
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0.000"},
		{12.5, "12.500"},
		{0.0416, "0.042"},
		{3599.999, "3599.999"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.input); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
