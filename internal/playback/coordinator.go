package playback

import (
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aagedal/reel/internal/backend"
	"github.com/aagedal/reel/internal/errmsg"
	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/reverse"
	"github.com/aagedal/reel/internal/task"
	"github.com/aagedal/reel/internal/timecode"
	"github.com/aagedal/reel/internal/tracks"
	"github.com/aagedal/reel/internal/trim"
)

// Prober resolves container/stream metadata for a file. Probe blocks; the
// coordinator calls it from its own goroutine and applies the result as an
// event.
type Prober interface {
	Probe(path string) (*media.Metadata, error)
}

// Exporter runs the subprocess-based screenshot/trim-export tool. Calls
// block; the coordinator awaits them off the coordination goroutine.
type Exporter interface {
	Screenshot(src string, at float64, dst string) error
	ExportRange(src string, in, out float64, dst string) error
}

// Options configures a Coordinator.
type Options struct {
	NewPrimary   func() backend.Adapter
	NewUniversal func() backend.Adapter
	Prober       Prober   // optional
	Exporter     Exporter // optional

	DefaultFPS       float64       // fallback frame rate, 30 when zero
	LoopPollInterval time.Duration // universal end-of-media poll, 100ms when zero
	LoopTolerance    float64       // seconds, 0.05 when zero
}

// Coordinator is the playback state machine. One goroutine (run) owns all
// mutable state; public methods post closures onto the command channel and
// never touch state directly. Backend adapters deliver events through
// their own channel, which run drains — when an adapter is torn down its
// channel is discarded, so stale events from an abandoned attempt are
// structurally unreadable.
type Coordinator struct {
	opts Options

	cmds      chan func()
	closed    chan struct{}
	closeOnce sync.Once

	subsMu sync.Mutex
	subs   []*Subscription

	// Everything below is owned by the run goroutine.
	source         media.Source
	md             *media.Metadata
	status         Status
	adapter        backend.Adapter
	events         <-chan backend.Event
	generation     int
	fallbackUsed   bool
	resumeOnReady  bool
	resumeRate     float64
	startAt        float64
	requestedStart float64
	position       float64
	duration       float64
	playing        bool
	rate           float64
	loop           bool
	catalog        tracks.Catalog
	audioSel       int
	subSel         int
	trimRange      trim.Range
	rev            *reverse.Simulator
	loopPoll       *task.Handle
	displayMode    timecode.DisplayMode
	errorMsg       string
	exportStatus   string
}

// New creates a coordinator and starts its coordination goroutine.
func New(opts Options) *Coordinator {
	if opts.DefaultFPS <= 0 {
		opts.DefaultFPS = timecode.DefaultFPS
	}
	if opts.LoopPollInterval <= 0 {
		opts.LoopPollInterval = 100 * time.Millisecond
	}
	if opts.LoopTolerance <= 0 {
		opts.LoopTolerance = 0.05
	}

	c := &Coordinator{
		opts:     opts,
		cmds:     make(chan func(), 64),
		closed:   make(chan struct{}),
		status:   StatusIdle,
		rate:     1.0,
		audioSel: -1,
		subSel:   -1,
	}
	c.rev = reverse.New(reverse.Callbacks{
		// Trigger/Stop only run on the coordination goroutine, so Pause
		// and Rate may touch state directly. Step fires from the timer
		// goroutine and must re-enter through the command channel.
		Pause: func() {
			if c.adapter != nil {
				_ = c.adapter.Pause()
			}
			c.playing = false
		},
		Step: func() {
			c.do(func() { c.seekByFramesLocked(-1) })
		},
		Rate: func(r float64) {
			c.rate = r
			c.publish()
		},
	})

	go c.run()
	return c
}

func (c *Coordinator) run() {
	for {
		select {
		case fn := <-c.cmds:
			fn()
		case ev, ok := <-c.events:
			if ok {
				c.handleEvent(ev)
			}
		case <-c.closed:
			c.teardownAllLocked()
			c.subsMu.Lock()
			for _, sub := range c.subs {
				sub.close()
			}
			c.subs = nil
			c.subsMu.Unlock()
			return
		}
	}
}

// do posts a closure to the coordination goroutine. Fire-and-forget; a
// closed coordinator drops it.
func (c *Coordinator) do(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.closed:
	}
}

// Subscribe registers a consumer for published state. The current
// snapshot is delivered first.
func (c *Coordinator) Subscribe() *Subscription {
	sub := newSubscription()
	c.subsMu.Lock()
	c.subs = append(c.subs, sub)
	c.subsMu.Unlock()
	c.do(func() { sub.send(c.snapshotLocked()) })
	return sub
}

// Close tears down the live backend, cancels all scheduled tasks and
// closes every subscription.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Load starts playback of a new source, tearing down any live backend
// first. md may carry already-known metadata (it decides the initial
// backend); when nil the primary backend is attempted and the probe
// service refines the decision later.
func (c *Coordinator) Load(source media.Source, md *media.Metadata, startTime float64) {
	c.do(func() { c.loadLocked(source, md, startTime) })
}

// Retry re-runs the whole load sequence from scratch for the current
// source. The explicit recovery action for a terminal failure.
func (c *Coordinator) Retry() {
	c.do(func() {
		if c.source.Path == "" {
			return
		}
		c.loadLocked(c.source, c.md, c.requestedStart)
	})
}

func (c *Coordinator) loadLocked(source media.Source, md *media.Metadata, startTime float64) {
	c.generation++
	gen := c.generation

	// A load superseding an in-flight prepare tears the attempt down
	// before anything else; its events die with its channel.
	c.teardownAllLocked()

	c.source = source
	c.md = md
	c.status = StatusPreparing
	c.errorMsg = ""
	c.exportStatus = ""
	c.playing = false
	c.rate = 1.0
	c.resumeOnReady = false
	c.resumeRate = 1.0
	c.fallbackUsed = false
	c.duration = source.Duration
	if md != nil && md.Duration > 0 {
		c.duration = md.Duration
	}
	c.startAt = c.clampTime(startTime)
	c.requestedStart = c.startAt
	c.position = c.startAt
	c.trimRange = trim.Range{}
	c.catalog = tracks.Catalog{}
	c.audioSel = -1
	c.subSel = -1

	kind := initialBackend(md)
	log.WithFields(log.Fields{"source": source.Name, "backend": kind}).Info("loading media")
	c.constructLocked(kind, c.startAt)

	if c.opts.Prober != nil && md == nil {
		path := source.Path
		go func() {
			probed, err := c.opts.Prober.Probe(path)
			if err != nil {
				log.Debugf("probe %s: %v", path, err)
				return
			}
			c.do(func() {
				if c.generation != gen {
					return
				}
				c.applyMetadataLocked(probed)
			})
		}()
	}

	c.publish()
}

// constructLocked builds and prepares the adapter for kind. Exactly one
// adapter is live at any instant; callers tear the previous one down
// first.
func (c *Coordinator) constructLocked(kind backend.Kind, startTime float64) {
	var a backend.Adapter
	if kind == backend.KindUniversal {
		a = c.opts.NewUniversal()
	} else {
		a = c.opts.NewPrimary()
	}
	c.adapter = a
	c.events = a.Events()

	if err := a.Prepare(c.source, startTime); err != nil {
		c.handleFailureLocked(backend.Failure{
			Kind:    backend.FailureConstruction,
			Message: err.Error(),
		})
	}
}

func (c *Coordinator) handleEvent(ev backend.Event) {
	switch ev := ev.(type) {
	case backend.ReadyEvent:
		c.becomeReadyLocked(ev)
	case backend.FailureEvent:
		if c.status != StatusFailed {
			c.handleFailureLocked(ev.Failure)
		}
	case backend.PositionEvent:
		if c.status.IsReady() {
			c.position = c.clampTime(ev.Seconds)
			c.publish()
		}
	case backend.EndOfMediaEvent:
		c.endOfMediaLocked()
	case backend.TracksChangedEvent:
		if c.status.IsReady() {
			c.rebuildCatalogLocked()
			c.applySelectionsLocked()
			c.publish()
		}
	}
}

func (c *Coordinator) becomeReadyLocked(ev backend.ReadyEvent) {
	if c.status != StatusPreparing || c.adapter == nil {
		return
	}
	c.status = StatusReady
	if ev.Duration > 0 {
		c.duration = ev.Duration
	}

	// Pending seek-to-start, then track selection, then the play state
	// carried across a fallback.
	if c.startAt > 0 {
		_ = c.adapter.Seek(c.startAt)
		c.position = c.startAt
	}
	c.rebuildCatalogLocked()
	c.applySelectionsLocked()

	if c.resumeOnReady {
		_ = c.adapter.Play()
		c.playing = true
	} else {
		_ = c.adapter.Pause()
		c.playing = false
	}
	if c.resumeRate != 1.0 && c.resumeRate > 0 {
		_ = c.adapter.SetRate(c.resumeRate)
		c.rate = c.adapter.Rate()
	}
	c.resumeOnReady = false
	c.resumeRate = 1.0

	if c.adapter.Kind() == backend.KindUniversal {
		c.startLoopPollLocked()
	}

	log.WithFields(log.Fields{"backend": c.adapter.Kind(), "duration": c.duration}).
		Info("backend ready")
	c.publish()
}

func (c *Coordinator) handleFailureLocked(f backend.Failure) {
	primary := c.adapter != nil && c.adapter.Kind() == backend.KindPrimary

	if primary && f.RecoverableByFallback() && !c.fallbackUsed {
		// One-time fallback: same requested start time, audio selection
		// reset to default, trim preserved (coordinator-owned).
		log.WithField("reason", f.Message).Warn("primary backend failed, falling back")
		c.fallbackUsed = true
		c.resumeOnReady = c.playing
		c.resumeRate = c.rate
		start := c.position
		c.teardownAdapterLocked()
		c.status = StatusPreparing
		c.playing = false
		c.audioSel = -1
		c.startAt = start
		c.constructLocked(backend.KindUniversal, start)
		c.publish()
		return
	}

	log.WithField("reason", f.Message).Error("playback failed")
	c.teardownAdapterLocked()
	c.status = StatusFailed
	c.playing = false
	c.errorMsg = f.Message
	c.publish()
}

// applyMetadataLocked folds in the probe result: duration/frame-rate
// refinement, catalog rebuild, and the late surround-audio check that can
// force a switch off the primary backend.
func (c *Coordinator) applyMetadataLocked(md *media.Metadata) {
	c.md = md
	if c.duration <= 0 && md.Duration > 0 {
		c.duration = md.Duration
	}

	if forcesUniversalSwitch(md) && c.adapter != nil && c.adapter.Kind() == backend.KindPrimary {
		log.Info("surround audio detected, switching to universal backend")
		c.fallbackUsed = true
		c.resumeOnReady = c.playing
		c.resumeRate = c.rate
		start := c.position
		c.teardownAdapterLocked()
		c.status = StatusPreparing
		c.playing = false
		c.audioSel = -1
		c.startAt = start
		c.constructLocked(backend.KindUniversal, start)
		c.publish()
		return
	}

	if c.status.IsReady() {
		c.rebuildCatalogLocked()
		c.applySelectionsLocked()
	}
	c.publish()
}

func (c *Coordinator) endOfMediaLocked() {
	if !c.status.IsReady() || c.adapter == nil {
		return
	}
	if c.loop {
		_ = c.adapter.Seek(0)
		_ = c.adapter.Play()
		c.position = 0
		c.playing = true
	} else {
		_ = c.adapter.Pause()
		c.playing = false
	}
	c.publish()
}

// startLoopPollLocked schedules the end-of-media poll for backends without
// a precise native notification.
func (c *Coordinator) startLoopPollLocked() {
	c.stopLoopPollLocked()
	c.loopPoll = task.Repeat(c.opts.LoopPollInterval, func() {
		c.do(c.checkLoopPointLocked)
	})
}

func (c *Coordinator) stopLoopPollLocked() {
	if c.loopPoll != nil {
		c.loopPoll.Cancel()
		c.loopPoll = nil
	}
}

func (c *Coordinator) checkLoopPointLocked() {
	if !c.status.IsReady() || !c.playing || c.duration <= 0 {
		return
	}
	if c.position >= c.duration-c.opts.LoopTolerance {
		c.endOfMediaLocked()
	}
}

// teardownAdapterLocked destroys the live adapter and every scheduled
// task that could reference it.
func (c *Coordinator) teardownAdapterLocked() {
	c.rev.Stop()
	c.stopLoopPollLocked()
	if c.adapter != nil {
		c.adapter.Teardown()
		c.adapter = nil
		c.events = nil
	}
}

func (c *Coordinator) teardownAllLocked() {
	c.teardownAdapterLocked()
}

// --- Transport API ---
// All transport operations are requests against the currently ready
// backend; they no-op otherwise.

// Play starts forward playback at rate 1.0, stopping any reverse
// simulation first.
func (c *Coordinator) Play() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		c.rev.Stop()
		c.resetRateLocked()
		_ = c.adapter.Play()
		c.playing = true
		c.publish()
	})
}

// Pause pauses playback.
func (c *Coordinator) Pause() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		_ = c.adapter.Pause()
		c.playing = false
		c.publish()
	})
}

// TogglePlayback flips play/pause. When reverse simulation is active it
// only stops the simulation, restoring forward rate 1.0.
func (c *Coordinator) TogglePlayback() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		if c.rev.Active() {
			c.rev.Stop()
			c.publish()
			return
		}
		c.resetRateLocked()
		if c.playing {
			_ = c.adapter.Pause()
			c.playing = false
		} else {
			_ = c.adapter.Play()
			c.playing = true
		}
		c.publish()
	})
}

// FastForward steps the playback rate forward. If reverse simulation is
// active it is stopped; a paused backend starts playing at 1.0 instead of
// stepping.
func (c *Coordinator) FastForward() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		if c.rev.Active() {
			c.rev.Stop()
		}
		if !c.playing {
			c.resetRateLocked()
			_ = c.adapter.Play()
			c.playing = true
			c.publish()
			return
		}
		next := c.adapter.Rate() + c.adapter.RateStep()
		if next > c.adapter.MaxRate() {
			next = c.adapter.MaxRate()
		}
		_ = c.adapter.SetRate(next)
		c.rate = c.adapter.Rate()
		c.publish()
	})
}

// Rewind activates reverse simulation, or speeds it up when already
// active.
func (c *Coordinator) Rewind() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		c.rev.Trigger()
		c.publish()
	})
}

// SeekTo seeks to an absolute time, clamped into [0, duration].
func (c *Coordinator) SeekTo(seconds float64) {
	c.do(func() { c.seekToLocked(seconds) })
}

// SeekByFrames seeks by n frames (negative for backwards) using the
// source's frame rate, default 30 when unknown.
func (c *Coordinator) SeekByFrames(n int) {
	c.do(func() { c.seekByFramesLocked(n) })
}

// SeekToInput parses user-entered timecode (or a frame number, per the
// current display mode) and seeks to the result. Malformed input is
// silently rejected and the position stays put.
func (c *Coordinator) SeekToInput(input string) {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		fps := c.effectiveFPSLocked()
		var target float64
		var ok bool
		if c.displayMode == timecode.ModeFrames {
			target, ok = timecode.ParseFrameNumber(input, c.position, fps, c.startTimecodeLocked())
		} else {
			target, ok = timecode.Parse(input, c.position, fps, c.startTimecodeLocked())
		}
		if !ok {
			return
		}
		c.seekToLocked(target)
	})
}

func (c *Coordinator) seekToLocked(seconds float64) {
	if !c.status.IsReady() || c.adapter == nil {
		return
	}
	seconds = c.clampTime(seconds)
	if err := c.adapter.Seek(seconds); err != nil {
		log.Debugf("seek: %v", err)
		return
	}
	c.position = seconds
	c.publish()
}

func (c *Coordinator) seekByFramesLocked(n int) {
	if !c.status.IsReady() {
		return
	}
	c.seekToLocked(c.position + float64(n)*timecode.FrameDuration(c.effectiveFPSLocked()))
}

// SelectAudioTrack selects an audio track by presentation position.
func (c *Coordinator) SelectAudioTrack(position int) {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		position = tracks.Clamp(position, len(c.catalog.Audio))
		id, ok := c.catalog.AudioID(position)
		if !ok {
			return
		}
		if err := c.adapter.SelectAudio(id); err != nil {
			log.Debugf("select audio %d: %v", id, err)
			return
		}
		c.audioSel = position
		c.publish()
	})
}

// SelectSubtitleTrack selects a subtitle track by presentation position;
// a negative position disables subtitles.
func (c *Coordinator) SelectSubtitleTrack(position int) {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		if position < 0 {
			if err := c.adapter.DisableSubtitles(); err != nil {
				log.Debugf("disable subtitles: %v", err)
				return
			}
			c.subSel = -1
			c.publish()
			return
		}
		position = tracks.Clamp(position, len(c.catalog.Subtitles))
		id, ok := c.catalog.SubtitleID(position)
		if !ok {
			return
		}
		if err := c.adapter.SelectSubtitle(id); err != nil {
			log.Debugf("select subtitle %d: %v", id, err)
			return
		}
		c.subSel = position
		c.publish()
	})
}

// ToggleLoop flips loop-at-end behavior. Coordinator-owned state, so it
// works in any status.
func (c *Coordinator) ToggleLoop() {
	c.do(func() {
		c.loop = !c.loop
		c.publish()
	})
}

// SetTrimIn places the trim in-point at the current time.
func (c *Coordinator) SetTrimIn() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		c.trimRange.SetIn(c.position)
		c.publish()
	})
}

// SetTrimOut places the trim out-point at the current time.
func (c *Coordinator) SetTrimOut() {
	c.do(func() {
		if !c.status.IsReady() {
			return
		}
		c.trimRange.SetOut(c.position)
		c.publish()
	})
}

// ClearTrimIn removes the trim in-point.
func (c *Coordinator) ClearTrimIn() {
	c.do(func() {
		c.trimRange.ClearIn()
		c.publish()
	})
}

// ClearTrimOut removes the trim out-point.
func (c *Coordinator) ClearTrimOut() {
	c.do(func() {
		c.trimRange.ClearOut()
		c.publish()
	})
}

// ClearTrim removes both trim markers.
func (c *Coordinator) ClearTrim() {
	c.do(func() {
		c.trimRange.Clear()
		c.publish()
	})
}

// CycleDisplayMode switches the position label between timecode and frame
// count.
func (c *Coordinator) CycleDisplayMode() {
	c.do(func() {
		c.displayMode = c.displayMode.Cycle()
		c.publish()
	})
}

// Screenshot captures the current frame to dst via the export service.
// The result only updates the transient export status.
func (c *Coordinator) Screenshot(dst string) {
	c.do(func() {
		if !c.status.IsReady() || c.opts.Exporter == nil {
			return
		}
		gen := c.generation
		src := c.source.Path
		at := c.position
		c.exportStatus = "capturing screenshot"
		c.publish()
		go func() {
			err := c.opts.Exporter.Screenshot(src, at, dst)
			c.do(func() { c.finishExportLocked(gen, errmsg.OpScreenshot, "screenshot", dst, err) })
		}()
	})
}

// ExportTrim exports the [in, out] trim range to dst. Refused unless both
// markers are set with out > in.
func (c *Coordinator) ExportTrim(dst string) {
	c.do(func() {
		if !c.status.IsReady() || c.opts.Exporter == nil {
			return
		}
		if !c.trimRange.Exportable() {
			c.exportStatus = "export refused: trim range not set"
			c.publish()
			return
		}
		in, _ := c.trimRange.In()
		out, _ := c.trimRange.Out()
		gen := c.generation
		src := c.source.Path
		c.exportStatus = "exporting trim range"
		c.publish()
		go func() {
			err := c.opts.Exporter.ExportRange(src, in, out, dst)
			c.do(func() { c.finishExportLocked(gen, errmsg.OpExportTrim, "export", dst, err) })
		}()
	})
}

func (c *Coordinator) finishExportLocked(gen int, op errmsg.Op, what, dst string, err error) {
	if c.generation != gen {
		return
	}
	if err != nil {
		c.exportStatus = errmsg.Format(op, err)
	} else {
		c.exportStatus = fmt.Sprintf("%s written to %s", what, dst)
	}
	c.publish()
}

// --- Internals ---

func (c *Coordinator) resetRateLocked() {
	if c.adapter != nil && c.adapter.Rate() != 1.0 {
		_ = c.adapter.SetRate(1.0)
	}
	c.rate = 1.0
}

func (c *Coordinator) rebuildCatalogLocked() {
	if c.adapter == nil {
		return
	}
	c.catalog = tracks.Build(c.md, c.adapter.AudioTracks(), c.adapter.SubtitleTracks())
	c.audioSel = tracks.Clamp(c.audioSel, len(c.catalog.Audio))
	// Subtitles stay off unless a position was chosen before the rebuild.
	if c.subSel >= 0 {
		c.subSel = tracks.Clamp(c.subSel, len(c.catalog.Subtitles))
	}
}

func (c *Coordinator) applySelectionsLocked() {
	if c.adapter == nil {
		return
	}
	if id, ok := c.catalog.AudioID(c.audioSel); ok {
		_ = c.adapter.SelectAudio(id)
	}
	if c.subSel >= 0 {
		if id, ok := c.catalog.SubtitleID(c.subSel); ok {
			_ = c.adapter.SelectSubtitle(id)
		}
	}
}

func (c *Coordinator) effectiveFPSLocked() float64 {
	if c.md != nil && c.md.FrameRate > 0 {
		return c.md.FrameRate
	}
	return c.opts.DefaultFPS
}

func (c *Coordinator) startTimecodeLocked() string {
	if c.md != nil {
		return c.md.StartTimecode
	}
	return ""
}

func (c *Coordinator) clampTime(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}
	if c.duration > 0 && seconds > c.duration {
		return c.duration
	}
	return seconds
}

func (c *Coordinator) snapshotLocked() Snapshot {
	fps := c.effectiveFPSLocked()
	dropFrame := math.Abs(fps-math.Round(fps)) > 0.001

	var label string
	if c.displayMode == timecode.ModeFrames {
		label = fmt.Sprintf("%d", timecode.FrameCount(c.position, fps, c.startTimecodeLocked()))
	} else {
		label = timecode.Format(c.position, fps, c.startTimecodeLocked(), dropFrame)
	}

	var kind backend.Kind
	var aspect float64
	if c.adapter != nil {
		kind = c.adapter.Kind()
		if a, ok := c.adapter.AspectRatio(); ok {
			aspect = a
		}
	}

	in, inSet := c.trimRange.In()
	out, outSet := c.trimRange.Out()

	return Snapshot{
		Status:            c.status,
		Backend:           kind,
		Time:              c.position,
		Duration:          c.duration,
		Playing:           c.playing,
		Rate:              c.rate,
		ReverseActive:     c.rev.Active(),
		Loop:              c.loop,
		Catalog:           c.catalog,
		AudioSelection:    c.audioSel,
		SubtitleSelection: c.subSel,
		TrimIn:            in,
		TrimInSet:         inSet,
		TrimOut:           out,
		TrimOutSet:        outSet,
		DisplayMode:       c.displayMode,
		PositionLabel:     label,
		SourceName:        c.source.Name,
		SourceSize:        c.source.SizeLabel(),
		AspectRatio:       aspect,
		ErrorMessage:      c.errorMsg,
		ExportStatus:      c.exportStatus,
	}
}

func (c *Coordinator) publish() {
	snap := c.snapshotLocked()
	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.send(snap)
	}
	c.subsMu.Unlock()
}
