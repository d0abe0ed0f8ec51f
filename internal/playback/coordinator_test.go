package playback

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aagedal/reel/internal/backend"
	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/tracks"
)

type fixture struct {
	mu                sync.Mutex
	primaries         []*backend.Mock
	universals        []*backend.Mock
	primaryPrepareErr error
	c                 *Coordinator
}

func newFixture(opts Options) *fixture {
	f := &fixture{}
	opts.NewPrimary = func() backend.Adapter {
		f.mu.Lock()
		defer f.mu.Unlock()
		m := backend.NewMock(backend.KindPrimary)
		m.SetPrepareError(f.primaryPrepareErr)
		f.primaries = append(f.primaries, m)
		return m
	}
	opts.NewUniversal = func() backend.Adapter {
		f.mu.Lock()
		defer f.mu.Unlock()
		m := backend.NewMock(backend.KindUniversal)
		f.universals = append(f.universals, m)
		return m
	}
	f.c = New(opts)
	return f
}

func (f *fixture) primary(i int) *backend.Mock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.primaries[i]
}

func (f *fixture) universal(i int) *backend.Mock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.universals[i]
}

func (f *fixture) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.primaries), len(f.universals)
}

// settle waits until every command posted so far has been executed.
func settle(c *Coordinator) {
	done := make(chan struct{})
	c.do(func() { close(done) })
	<-done
}

func snapshot(c *Coordinator) Snapshot {
	var s Snapshot
	done := make(chan struct{})
	c.do(func() {
		s = c.snapshotLocked()
		close(done)
	})
	<-done
	return s
}

func waitFor(t *testing.T, c *Coordinator, desc string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := snapshot(c)
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last snapshot: %+v", desc, s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testSource(duration float64) media.Source {
	return media.NewSource("/media/clip.mov", 1<<20, duration, true)
}

func surroundMetadata(videoCodec string) *media.Metadata {
	return &media.Metadata{
		Duration:   120,
		VideoCodec: videoCodec,
		FrameRate:  25,
		Audio: []media.AudioStream{
			{Index: 0, Codec: "aac", Channels: 6, Default: true},
		},
	}
}

func TestLoadReachesReady(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)

	if s := snapshot(f.c); s.Status != StatusPreparing {
		t.Fatalf("status = %v, want Preparing", s.Status)
	}
	f.primary(0).EmitReady(100)

	s := waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })
	if s.Backend != backend.KindPrimary {
		t.Errorf("backend = %v, want primary", s.Backend)
	}
	if s.Duration != 100 {
		t.Errorf("duration = %v, want 100", s.Duration)
	}
	if s.Playing {
		t.Error("should not auto-play after load")
	}
}

func TestStartTimePassedToBackend(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 42.5)
	settle(f.c)

	if got := f.primary(0).LastStartTime(); got != 42.5 {
		t.Fatalf("prepare start time = %v, want 42.5", got)
	}
}

func TestFallbackHappensExactlyOnce(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)

	// Two buffered failures from the primary engine; only the first may
	// trigger the fallback.
	f.primary(0).EmitFailure(backend.FailureDecodeOrFormat, "no decoder")
	f.primary(0).EmitFailure(backend.FailureDecodeOrFormat, "no decoder")

	waitFor(t, f.c, "fallback", func(s Snapshot) bool { return s.Backend == backend.KindUniversal })
	if !f.primary(0).TornDown() {
		t.Error("primary not torn down after fallback")
	}
	nPrimary, nUniversal := f.counts()
	if nPrimary != 1 || nUniversal != 1 {
		t.Fatalf("adapter constructions = (%d primary, %d universal), want (1, 1)", nPrimary, nUniversal)
	}

	f.universal(0).EmitReady(100)
	waitFor(t, f.c, "ready on universal", func(s Snapshot) bool { return s.Status == StatusReady })

	// A failure on the universal backend is terminal.
	f.universal(0).EmitFailure(backend.FailureDecodeOrFormat, "still broken")
	s := waitFor(t, f.c, "terminal failure", func(s Snapshot) bool { return s.Status == StatusFailed })
	if s.ErrorMessage != "still broken" {
		t.Errorf("error message = %q", s.ErrorMessage)
	}
	if _, n := f.counts(); n != 1 {
		t.Errorf("universal constructed %d times, want 1", n)
	}
}

func TestFallbackPreservesPositionAndPlayState(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.c.Play()
	f.primary(0).EmitPosition(37.2)
	waitFor(t, f.c, "position", func(s Snapshot) bool { return s.Time == 37.2 })

	f.primary(0).EmitFailure(backend.FailureDecodeOrFormat, "mid-play decode error")
	waitFor(t, f.c, "fallback", func(s Snapshot) bool { return s.Backend == backend.KindUniversal })

	if got := f.universal(0).LastStartTime(); got != 37.2 {
		t.Errorf("universal start time = %v, want 37.2", got)
	}
	f.universal(0).EmitReady(100)
	s := waitFor(t, f.c, "ready on universal", func(s Snapshot) bool { return s.Status == StatusReady })
	if !s.Playing {
		t.Error("play state not carried across fallback")
	}
	if !f.universal(0).Playing() {
		t.Error("universal backend not playing")
	}
	if s.AudioSelection != -1 && s.AudioSelection != 0 {
		t.Errorf("audio selection = %d after fallback, want default", s.AudioSelection)
	}
}

func TestConstructionErrorIsTerminal(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.mu.Lock()
	f.primaryPrepareErr = errors.New("binary not found")
	f.mu.Unlock()

	f.c.Load(testSource(100), nil, 0)
	s := waitFor(t, f.c, "failed", func(s Snapshot) bool { return s.Status == StatusFailed })
	if s.ErrorMessage != "binary not found" {
		t.Errorf("error message = %q", s.ErrorMessage)
	}
	if _, n := f.counts(); n != 0 {
		t.Errorf("construction failure must not fall back, universal constructed %d times", n)
	}
}

func TestSurroundAudioSelectsUniversalImmediately(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(120), surroundMetadata("h264"), 0)
	settle(f.c)

	nPrimary, nUniversal := f.counts()
	if nPrimary != 0 || nUniversal != 1 {
		t.Fatalf("adapter constructions = (%d primary, %d universal), want (0, 1)", nPrimary, nUniversal)
	}
}

func TestSurroundIntermediateCodecStaysPrimary(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(120), surroundMetadata("prores_ks"), 0)
	settle(f.c)

	nPrimary, nUniversal := f.counts()
	if nPrimary != 1 || nUniversal != 0 {
		t.Fatalf("adapter constructions = (%d primary, %d universal), want (1, 0)", nPrimary, nUniversal)
	}
}

func TestLateMetadataForcesSwitch(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(Options{
		Prober: proberFunc(func(path string) (*media.Metadata, error) {
			<-release
			return surroundMetadata("h264"), nil
		}),
	})
	defer f.c.Close()

	f.c.Load(testSource(120), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(120)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.c.Play()
	f.primary(0).EmitPosition(12.5)
	waitFor(t, f.c, "position", func(s Snapshot) bool { return s.Time == 12.5 })

	close(release)
	waitFor(t, f.c, "forced switch", func(s Snapshot) bool { return s.Backend == backend.KindUniversal })
	if got := f.universal(0).LastStartTime(); got != 12.5 {
		t.Errorf("universal start time = %v, want 12.5", got)
	}
	f.universal(0).EmitReady(120)
	s := waitFor(t, f.c, "ready on universal", func(s Snapshot) bool { return s.Status == StatusReady })
	if !s.Playing {
		t.Error("play state lost across forced switch")
	}
}

func TestStaleProbeResultIgnored(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(Options{
		Prober: proberFunc(func(path string) (*media.Metadata, error) {
			if path == "/media/clip.mov" {
				<-release
				return surroundMetadata("h264"), nil
			}
			return &media.Metadata{Duration: 60, VideoCodec: "h264", FrameRate: 24}, nil
		}),
	})
	defer f.c.Close()

	f.c.Load(testSource(120), nil, 0)
	settle(f.c)

	second := media.NewSource("/media/other.mov", 1<<20, 60, true)
	f.c.Load(second, nil, 0)
	settle(f.c)
	f.primary(1).EmitReady(60)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	// The stale surround result for the first file must not force a
	// switch on the current load.
	close(release)
	time.Sleep(50 * time.Millisecond)
	s := snapshot(f.c)
	if s.Backend != backend.KindPrimary {
		t.Errorf("backend = %v after stale probe result, want primary", s.Backend)
	}
}

func TestStaleReadyFromSupersededLoadIgnored(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	first := f.primary(0)

	f.c.Load(media.NewSource("/media/other.mov", 1<<20, 50, true), nil, 0)
	settle(f.c)

	// Ready from the superseded attempt lands on a channel the
	// coordinator no longer reads.
	first.EmitReady(100)
	time.Sleep(50 * time.Millisecond)
	if s := snapshot(f.c); s.Status != StatusPreparing {
		t.Fatalf("status = %v, want Preparing", s.Status)
	}

	f.primary(1).EmitReady(50)
	s := waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })
	if s.Duration != 50 {
		t.Errorf("duration = %v, want 50 from the current load", s.Duration)
	}
}

func TestSeekClamped(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.c.SeekTo(250)
	f.c.SeekTo(-5)
	settle(f.c)

	seeks := f.primary(0).Seeks()
	if len(seeks) != 2 || seeks[0] != 100 || seeks[1] != 0 {
		t.Errorf("seeks = %v, want [100 0]", seeks)
	}
}

func TestSeekByFramesUsesSourceFrameRate(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	md := &media.Metadata{Duration: 100, VideoCodec: "h264", FrameRate: 25}
	f.c.Load(testSource(100), md, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.primary(0).EmitPosition(10)
	waitFor(t, f.c, "position", func(s Snapshot) bool { return s.Time == 10 })

	f.c.SeekByFrames(5)
	settle(f.c)
	seeks := f.primary(0).Seeks()
	if len(seeks) != 1 || math.Abs(seeks[0]-10.2) > 1e-9 {
		t.Errorf("seeks = %v, want [10.2]", seeks)
	}
}

func TestTransportNoopsWhenNotReady(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Play()
	f.c.FastForward()
	f.c.SeekTo(10)
	f.c.SelectAudioTrack(0)
	settle(f.c)

	if s := snapshot(f.c); s.Status != StatusIdle || s.Playing {
		t.Fatalf("snapshot = %+v, want idle", s)
	}
	if n, _ := f.counts(); n != 0 {
		t.Error("transport before load must not construct a backend")
	}
}

func TestFastForwardSteps(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	// Paused: fast-forward starts playback at 1.0 instead of stepping.
	f.c.FastForward()
	settle(f.c)
	if s := snapshot(f.c); !s.Playing || s.Rate != 1.0 {
		t.Fatalf("after first fast-forward: playing=%v rate=%v", s.Playing, s.Rate)
	}

	for _, want := range []float64{2.0, 3.0, 4.0, 4.0} {
		f.c.FastForward()
		settle(f.c)
		if s := snapshot(f.c); s.Rate != want {
			t.Fatalf("rate = %v, want %v", s.Rate, want)
		}
	}
}

func TestReverseSimulation(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.c.Play()
	f.primary(0).EmitPosition(50)
	waitFor(t, f.c, "position", func(s Snapshot) bool { return s.Time == 50 })

	f.c.Rewind()
	settle(f.c)
	s := snapshot(f.c)
	if !s.ReverseActive || s.Rate != -1.0 || s.Playing {
		t.Fatalf("after rewind: reverse=%v rate=%v playing=%v", s.ReverseActive, s.Rate, s.Playing)
	}
	if f.primary(0).Playing() {
		t.Error("backend should be paused during reverse simulation")
	}

	// Each further trigger speeds it up, capped at -4.
	for _, want := range []float64{-2.0, -3.0, -4.0, -4.0} {
		f.c.Rewind()
		settle(f.c)
		if s := snapshot(f.c); s.Rate != want {
			t.Fatalf("reverse rate = %v, want %v", s.Rate, want)
		}
	}

	// Backward single-frame seeks accumulate while active.
	waitFor(t, f.c, "backward steps", func(s Snapshot) bool { return s.Time < 50 })

	// Toggle stops the simulation without starting playback.
	f.c.TogglePlayback()
	settle(f.c)
	s = snapshot(f.c)
	if s.ReverseActive || s.Rate != 1.0 || s.Playing {
		t.Fatalf("after toggle: reverse=%v rate=%v playing=%v", s.ReverseActive, s.Rate, s.Playing)
	}
}

func TestLoopAtEnd(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.c.Play()
	f.c.ToggleLoop()
	settle(f.c)

	f.primary(0).EmitEndOfMedia()
	s := waitFor(t, f.c, "loop restart", func(s Snapshot) bool { return s.Time == 0 })
	if !s.Playing {
		t.Error("loop must keep playing after the restart seek")
	}
	seeks := f.primary(0).Seeks()
	if len(seeks) == 0 || seeks[len(seeks)-1] != 0 {
		t.Errorf("seeks = %v, want a final seek to 0", seeks)
	}

	// With loop off the end of media pauses.
	f.c.ToggleLoop()
	settle(f.c)
	f.primary(0).EmitEndOfMedia()
	waitFor(t, f.c, "pause at end", func(s Snapshot) bool { return !s.Playing })
}

func TestTrackSelectionAndReclamp(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	md := &media.Metadata{
		Duration:   100,
		VideoCodec: "h264",
		FrameRate:  25,
		Audio: []media.AudioStream{
			{Index: 0, Codec: "aac", Channels: 2, Title: "Stereo", Default: true},
			{Index: 1, Codec: "aac", Channels: 2, Title: "Commentary"},
		},
	}
	f.c.Load(testSource(100), md, 0)
	settle(f.c)
	f.primary(0).SetTracks(
		[]tracks.Native{{ID: 101, Title: "Stereo"}, {ID: 102, Title: "Commentary"}},
		[]tracks.Native{{ID: 201, Title: "English"}},
	)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	f.c.SelectAudioTrack(1)
	settle(f.c)
	sel := f.primary(0).AudioSelects()
	if len(sel) == 0 || sel[len(sel)-1] != 102 {
		t.Errorf("audio selects = %v, want last 102", sel)
	}

	// Out-of-range positions clamp.
	f.c.SelectAudioTrack(99)
	settle(f.c)
	if s := snapshot(f.c); s.AudioSelection != 1 {
		t.Errorf("audio selection = %d, want clamped to 1", s.AudioSelection)
	}

	// The catalog shrinking re-clamps the selection.
	f.primary(0).SetTracks([]tracks.Native{{ID: 101, Title: "Stereo"}}, nil)
	f.primary(0).EmitTracksChanged()
	waitFor(t, f.c, "re-clamp", func(s Snapshot) bool { return s.AudioSelection == 0 })

	// Subtitles: select then disable.
	f.primary(0).SetTracks(
		[]tracks.Native{{ID: 101, Title: "Stereo"}},
		[]tracks.Native{{ID: 201, Title: "English"}},
	)
	f.primary(0).EmitTracksChanged()
	waitFor(t, f.c, "subs listed", func(s Snapshot) bool { return len(s.Catalog.Subtitles) == 1 })

	f.c.SelectSubtitleTrack(0)
	settle(f.c)
	if s := snapshot(f.c); s.SubtitleSelection != 0 {
		t.Errorf("subtitle selection = %d, want 0", s.SubtitleSelection)
	}
	f.c.SelectSubtitleTrack(-1)
	settle(f.c)
	if s := snapshot(f.c); s.SubtitleSelection != -1 {
		t.Errorf("subtitle selection = %d, want -1 (off)", s.SubtitleSelection)
	}
}

func TestTrimAndExport(t *testing.T) {
	exp := &exporterRecorder{}
	f := newFixture(Options{Exporter: exp})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	// Export before any trim markers exist is refused.
	f.c.ExportTrim("/tmp/out.mov")
	waitFor(t, f.c, "refusal", func(s Snapshot) bool { return s.ExportStatus != "" })
	if exp.exportCalls() != 0 {
		t.Fatal("export ran without a trim range")
	}

	f.primary(0).EmitPosition(5)
	waitFor(t, f.c, "position", func(s Snapshot) bool { return s.Time == 5 })
	f.c.SetTrimIn()
	f.primary(0).EmitPosition(30)
	waitFor(t, f.c, "position", func(s Snapshot) bool { return s.Time == 30 })
	f.c.SetTrimOut()
	settle(f.c)

	s := snapshot(f.c)
	if !s.TrimInSet || s.TrimIn != 5 || !s.TrimOutSet || s.TrimOut != 30 {
		t.Fatalf("trim = [%v@%v, %v@%v]", s.TrimIn, s.TrimInSet, s.TrimOut, s.TrimOutSet)
	}

	f.c.ExportTrim("/tmp/out.mov")
	waitFor(t, f.c, "export done", func(s Snapshot) bool { return s.ExportStatus == "export written to /tmp/out.mov" })
	in, out := exp.lastRange()
	if in != 5 || out != 30 {
		t.Errorf("export range = [%v, %v], want [5, 30]", in, out)
	}

	f.c.Screenshot("/tmp/frame.png")
	waitFor(t, f.c, "screenshot done", func(s Snapshot) bool { return s.ExportStatus == "screenshot written to /tmp/frame.png" })
	if got := exp.lastScreenshotAt(); got != 30 {
		t.Errorf("screenshot at %v, want 30", got)
	}
}

func TestRetryAfterFailure(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitFailure(backend.FailureDecodeOrFormat, "broken")
	waitFor(t, f.c, "fallback", func(s Snapshot) bool { return s.Backend == backend.KindUniversal })
	f.universal(0).EmitFailure(backend.FailureUnsupported, "unsupported")
	waitFor(t, f.c, "failed", func(s Snapshot) bool { return s.Status == StatusFailed })

	// Retry restarts from scratch, including a fresh fallback budget.
	f.c.Retry()
	settle(f.c)
	if s := snapshot(f.c); s.Status != StatusPreparing || s.ErrorMessage != "" {
		t.Fatalf("after retry: %+v", s)
	}
	f.primary(1).EmitFailure(backend.FailureDecodeOrFormat, "broken")
	waitFor(t, f.c, "second fallback", func(s Snapshot) bool {
		return s.Backend == backend.KindUniversal && s.Status == StatusPreparing
	})
	if _, n := f.counts(); n != 2 {
		t.Errorf("universal constructed %d times, want 2", n)
	}
}

func TestSubscriptionDropsOldestWhenSlow(t *testing.T) {
	f := newFixture(Options{})
	defer f.c.Close()

	sub := f.c.Subscribe()
	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.primary(0).EmitReady(100)
	waitFor(t, f.c, "ready", func(s Snapshot) bool { return s.Status == StatusReady })

	// Never reading must not stall the coordinator.
	for i := 0; i < 3*snapshotBufferSize; i++ {
		f.c.TogglePlayback()
	}
	settle(f.c)

	// Drain: the freshest buffered snapshot reflects current state.
	var last Snapshot
	for {
		select {
		case last = <-sub.Snapshots:
			continue
		default:
		}
		break
	}
	want := snapshot(f.c)
	if last.Playing != want.Playing {
		t.Errorf("last buffered snapshot playing=%v, coordinator playing=%v", last.Playing, want.Playing)
	}
}

func TestCloseClosesSubscriptions(t *testing.T) {
	f := newFixture(Options{})
	sub := f.c.Subscribe()

	f.c.Load(testSource(100), nil, 0)
	settle(f.c)
	f.c.Close()

	select {
	case <-sub.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
	if !f.primary(0).TornDown() {
		t.Error("backend not torn down on close")
	}
}

type proberFunc func(path string) (*media.Metadata, error)

func (f proberFunc) Probe(path string) (*media.Metadata, error) { return f(path) }

type exporterRecorder struct {
	mu           sync.Mutex
	screenshots  []float64
	exportRanges [][2]float64
}

func (e *exporterRecorder) Screenshot(src string, at float64, dst string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.screenshots = append(e.screenshots, at)
	return nil
}

func (e *exporterRecorder) ExportRange(src string, in, out float64, dst string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exportRanges = append(e.exportRanges, [2]float64{in, out})
	return nil
}

func (e *exporterRecorder) exportCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.exportRanges)
}

func (e *exporterRecorder) lastRange() (float64, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.exportRanges[len(e.exportRanges)-1]
	return r[0], r[1]
}

func (e *exporterRecorder) lastScreenshotAt() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screenshots[len(e.screenshots)-1]
}
