package backend

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/tracks"
)

const (
	mpvSocketRetries = 20
	mpvSocketDelay   = 150 * time.Millisecond
	mpvQuitTimeout   = 3 * time.Second

	mpvRateStep = 1.0
	mpvMaxRate  = 4.0
)

// MPV is the primary backend adapter. It spawns mpv with a JSON-IPC unix
// socket at a randomized temp path and drives it through property
// observation: mpv pushes time-pos/eof/track-list changes over a
// persistent connection, and the adapter republishes them as Events.
type MPV struct {
	bin    string
	events chan Event

	mu         sync.Mutex
	cmd        *exec.Cmd
	socketDir  string
	socketPath string
	exited     chan struct{}
	listener   *mpvListener
	ready      bool
	tornDown   bool

	duration  float64
	rate      float64
	audio     []tracks.Native
	subs      []tracks.Native
	hasVideo  bool
	aspect    float64
	hasAspect bool
}

// NewMPV creates an mpv adapter using the given binary (path or name in
// PATH).
func NewMPV(bin string) *MPV {
	if bin == "" {
		bin = "mpv"
	}
	return &MPV{
		bin:    bin,
		events: make(chan Event, eventBufferSize),
		rate:   1.0,
	}
}

func (m *MPV) Kind() Kind           { return KindPrimary }
func (m *MPV) Events() <-chan Event { return m.events }
func (m *MPV) RateStep() float64    { return mpvRateStep }
func (m *MPV) MaxRate() float64     { return mpvMaxRate }

// Prepare spawns mpv on the source. Construction problems are returned
// synchronously; everything after a successful spawn (socket readiness,
// decode verification) arrives as a Ready or Failure event.
func (m *MPV) Prepare(source media.Source, startTime float64) error {
	if _, err := exec.LookPath(m.bin); err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, m.bin)
	}

	socketDir, err := os.MkdirTemp("", "reel-mpv-*")
	if err != nil {
		return fmt.Errorf("mpv socket dir: %w", err)
	}

	m.mu.Lock()
	m.socketDir = socketDir
	m.socketPath = filepath.Join(socketDir, "socket")
	m.hasVideo = source.HasVideo
	m.exited = make(chan struct{})

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + m.socketPath,
		"--force-media-title=" + source.Name,
		"--force-window=yes",
		"--keep-open=yes",
		"--pause=yes",
	}
	if startTime > 0 {
		args = append(args, fmt.Sprintf("--start=%.3f", startTime))
	}
	args = append(args, source.Path)

	m.cmd = exec.Command(m.bin, args...)
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		m.mu.Unlock()
		os.RemoveAll(socketDir)
		return fmt.Errorf("start mpv: %w", err)
	}
	cmd := m.cmd
	exited := m.exited
	m.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	go m.finishPrepare()

	return nil
}

// finishPrepare waits for the IPC socket, verifies the load and emits the
// ready/failure event. Runs on its own goroutine; results only travel
// through the events channel.
func (m *MPV) finishPrepare() {
	if err := m.waitForSocket(); err != nil {
		m.mu.Lock()
		tornDown := m.tornDown
		m.mu.Unlock()
		if tornDown {
			return
		}
		emit(m.events, FailureEvent{Failure{
			Kind:    FailureConstruction,
			Message: fmt.Sprintf("mpv control socket never became ready: %v", err),
		}})
		return
	}

	// Wait for the file to actually load before inspecting tracks.
	if err := m.waitForLoad(); err != nil {
		emit(m.events, FailureEvent{Failure{
			Kind:    FailureDecodeOrFormat,
			Message: err.Error(),
		}})
		return
	}

	if err := m.refreshTracks(); err != nil {
		log.Debugf("mpv track enumeration: %v", err)
	}
	if fail := m.verifyVideo(); fail != nil {
		emit(m.events, FailureEvent{*fail})
		return
	}

	m.mu.Lock()
	listener := newMPVListener(m.socketPath, m.onProperty)
	m.listener = listener
	m.ready = true
	duration := m.duration
	m.mu.Unlock()

	if err := listener.start([]string{"time-pos", "eof-reached", "track-list", "duration"}); err != nil {
		emit(m.events, FailureEvent{Failure{
			Kind:    FailureConstruction,
			Message: fmt.Sprintf("mpv event listener: %v", err),
		}})
		return
	}

	if aspect, err := mpvCommand(m.socketPath, "get_property", "video-params/aspect"); err == nil {
		if v, ok := aspect.(float64); ok && v > 0 {
			m.mu.Lock()
			m.aspect, m.hasAspect = v, true
			m.mu.Unlock()
		}
	}

	emit(m.events, ReadyEvent{Duration: duration})
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < mpvSocketRetries; i++ {
		time.Sleep(mpvSocketDelay)
		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}
		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket not ready after %d attempts", mpvSocketRetries)
}

// waitForLoad polls until mpv reports a duration for the loaded file.
func (m *MPV) waitForLoad() error {
	for i := 0; i < mpvSocketRetries; i++ {
		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited while loading the file")
		default:
		}
		data, err := mpvCommand(m.socketPath, "get_property", "duration")
		if err == nil {
			if d, ok := data.(float64); ok && d > 0 {
				m.mu.Lock()
				m.duration = d
				m.mu.Unlock()
				return nil
			}
		}
		time.Sleep(mpvSocketDelay)
	}
	return fmt.Errorf("mpv did not load the file")
}

// verifyVideo enforces the readiness check: when the source claims video,
// at least one reported video track must carry a usable codec.
func (m *MPV) verifyVideo() *Failure {
	m.mu.Lock()
	hasVideo := m.hasVideo
	socketPath := m.socketPath
	m.mu.Unlock()
	if !hasVideo {
		return nil
	}
	data, err := mpvCommand(socketPath, "get_property", "track-list")
	if err != nil {
		return &Failure{Kind: FailureDecodeOrFormat, Message: fmt.Sprintf("track query failed: %v", err)}
	}
	list, ok := data.([]any)
	if !ok {
		return &Failure{Kind: FailureDecodeOrFormat, Message: "unreadable track list"}
	}
	for _, entry := range list {
		t, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := t["type"].(string)
		codec, _ := t["codec"].(string)
		if kind == "video" && codec != "" {
			return nil
		}
	}
	return &Failure{Kind: FailureDecodeOrFormat, Message: "no decodable video track"}
}

// onProperty translates mpv property notifications into adapter events.
// Called from the listener goroutine.
func (m *MPV) onProperty(name string, data any) {
	switch name {
	case "time-pos":
		if v, ok := data.(float64); ok {
			emit(m.events, PositionEvent{Seconds: v})
		}
	case "eof-reached":
		if v, ok := data.(bool); ok && v {
			emit(m.events, EndOfMediaEvent{})
		}
	case "duration":
		if v, ok := data.(float64); ok && v > 0 {
			m.mu.Lock()
			m.duration = v
			m.mu.Unlock()
		}
	case "track-list":
		if err := m.refreshTracks(); err == nil {
			emit(m.events, TracksChangedEvent{})
		}
	}
}

// refreshTracks re-reads the native track enumeration into the cache.
func (m *MPV) refreshTracks() error {
	m.mu.Lock()
	socketPath := m.socketPath
	m.mu.Unlock()

	data, err := mpvCommand(socketPath, "get_property", "track-list")
	if err != nil {
		return err
	}
	list, ok := data.([]any)
	if !ok {
		return fmt.Errorf("unexpected track-list shape %T", data)
	}

	var audio, subs []tracks.Native
	for _, entry := range list {
		t, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := t["id"].(float64)
		title, _ := t["title"].(string)
		if title == "" {
			title, _ = t["lang"].(string)
		}
		switch t["type"] {
		case "audio":
			audio = append(audio, tracks.Native{ID: int64(id), Title: title})
		case "sub":
			subs = append(subs, tracks.Native{ID: int64(id), Title: title})
		}
	}

	m.mu.Lock()
	m.audio, m.subs = audio, subs
	m.mu.Unlock()
	return nil
}

func (m *MPV) Play() error {
	return m.setProperty("pause", false)
}

func (m *MPV) Pause() error {
	return m.setProperty("pause", true)
}

func (m *MPV) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

func (m *MPV) SetRate(rate float64) error {
	if rate > mpvMaxRate {
		rate = mpvMaxRate
	}
	if rate <= 0 {
		rate = 1.0
	}
	if err := m.setProperty("speed", rate); err != nil {
		return err
	}
	m.mu.Lock()
	m.rate = rate
	m.mu.Unlock()
	return nil
}

func (m *MPV) Seek(seconds float64) error {
	path, err := m.socket()
	if err != nil {
		return err
	}
	_, err = mpvCommand(path, "seek", seconds, "absolute+exact")
	return err
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MPV) AudioTracks() []tracks.Native {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracks.Native(nil), m.audio...)
}

func (m *MPV) SubtitleTracks() []tracks.Native {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracks.Native(nil), m.subs...)
}

func (m *MPV) SelectAudio(nativeID int64) error {
	return m.setProperty("aid", nativeID)
}

func (m *MPV) SelectSubtitle(nativeID int64) error {
	return m.setProperty("sid", nativeID)
}

func (m *MPV) DisableSubtitles() error {
	return m.setProperty("sid", "no")
}

func (m *MPV) AspectRatio() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aspect, m.hasAspect
}

// Teardown stops the listener, asks mpv to quit and reaps it, force-killing
// after a grace period. Idempotent.
func (m *MPV) Teardown() {
	m.mu.Lock()
	if m.tornDown {
		m.mu.Unlock()
		return
	}
	m.tornDown = true
	listener := m.listener
	socketPath := m.socketPath
	socketDir := m.socketDir
	cmd := m.cmd
	exited := m.exited
	m.mu.Unlock()

	if listener != nil {
		listener.stop()
	}
	if socketPath != "" {
		_, _ = mpvCommand(socketPath, "quit")
	}
	if exited != nil {
		select {
		case <-exited:
		case <-time.After(mpvQuitTimeout):
			if cmd != nil && cmd.Process != nil {
				log.Warnf("mpv did not quit, killing pid %d", cmd.Process.Pid)
				_ = cmd.Process.Kill()
			}
		}
	}
	if socketDir != "" {
		_ = os.RemoveAll(socketDir)
	}
}

func (m *MPV) socket() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.socketPath == "" || m.tornDown {
		return "", ErrNotPrepared
	}
	return m.socketPath, nil
}

func (m *MPV) setProperty(name string, value any) error {
	path, err := m.socket()
	if err != nil {
		return err
	}
	_, err = mpvCommand(path, "set_property", name, value)
	return err
}

// Compile-time contract check.
var _ Adapter = (*MPV)(nil)
