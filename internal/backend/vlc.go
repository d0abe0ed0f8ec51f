package backend

import (
	"bufio"
	"fmt"
	"math"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/task"
	"github.com/aagedal/reel/internal/tracks"
)

const (
	vlcConnectRetries = 30
	vlcConnectDelay   = 200 * time.Millisecond
	vlcReadDeadline   = time.Second
	vlcQuitTimeout    = 3 * time.Second
	vlcPollInterval   = 100 * time.Millisecond

	vlcRateStep = 0.5
	vlcMaxRate  = 4.0
)

// VLC is the universal backend adapter. It spawns vlc with the line-based
// remote-control interface on a loopback TCP port and drives it through
// text commands. The RC interface pushes nothing on its own, so a 100ms
// poll loop reads the position and feeds the event channel.
type VLC struct {
	bin    string
	events chan Event

	mu       sync.Mutex
	cmd      *exec.Cmd
	conn     net.Conn
	reader   *bufio.Reader
	exited   chan struct{}
	poll     *task.Handle
	tornDown bool

	duration float64
	rate     float64
	playing  bool
	audio    []tracks.Native
	subs     []tracks.Native
}

// NewVLC creates a vlc adapter using the given binary (path or name in
// PATH).
func NewVLC(bin string) *VLC {
	if bin == "" {
		bin = "vlc"
	}
	return &VLC{
		bin:    bin,
		events: make(chan Event, eventBufferSize),
		rate:   1.0,
	}
}

func (v *VLC) Kind() Kind           { return KindUniversal }
func (v *VLC) Events() <-chan Event { return v.events }
func (v *VLC) RateStep() float64    { return vlcRateStep }
func (v *VLC) MaxRate() float64     { return vlcMaxRate }

// Prepare spawns vlc with the RC interface bound to a free loopback port.
// Readiness arrives as an event once the control connection is up and the
// media reports a duration.
func (v *VLC) Prepare(source media.Source, startTime float64) error {
	if _, err := exec.LookPath(v.bin); err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, v.bin)
	}

	addr, err := freeLoopbackPort()
	if err != nil {
		return fmt.Errorf("vlc control port: %w", err)
	}

	args := []string{
		"--intf", "rc",
		"--rc-host", addr,
		"--no-video-title-show",
		"--play-and-pause",
	}
	if startTime > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.3f", startTime))
	}
	args = append(args, source.Path)

	v.mu.Lock()
	v.exited = make(chan struct{})
	v.cmd = exec.Command(v.bin, args...)
	v.cmd.Stdout = nil
	v.cmd.Stderr = nil
	v.cmd.Stdin = nil

	if err := v.cmd.Start(); err != nil {
		v.mu.Unlock()
		return fmt.Errorf("start vlc: %w", err)
	}
	cmd := v.cmd
	exited := v.exited
	v.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	go v.finishPrepare(addr)

	return nil
}

func (v *VLC) finishPrepare(addr string) {
	conn, err := v.connect(addr)
	if err != nil {
		v.mu.Lock()
		tornDown := v.tornDown
		v.mu.Unlock()
		if tornDown {
			return
		}
		emit(v.events, FailureEvent{Failure{
			Kind:    FailureConstruction,
			Message: fmt.Sprintf("vlc control connection: %v", err),
		}})
		return
	}

	v.mu.Lock()
	v.conn = conn
	v.reader = bufio.NewReader(conn)
	v.playing = true // vlc starts playing the positional argument
	v.mu.Unlock()

	duration, err := v.waitForLoad()
	if err != nil {
		emit(v.events, FailureEvent{Failure{
			Kind:    FailureUnsupported,
			Message: err.Error(),
		}})
		return
	}

	if err := v.refreshTracks(); err != nil {
		log.Debugf("vlc track enumeration: %v", err)
	}

	v.mu.Lock()
	v.poll = task.Repeat(vlcPollInterval, v.pollPosition)
	v.mu.Unlock()

	emit(v.events, ReadyEvent{Duration: duration})
}

func (v *VLC) connect(addr string) (net.Conn, error) {
	for i := 0; i < vlcConnectRetries; i++ {
		time.Sleep(vlcConnectDelay)
		select {
		case <-v.exited:
			return nil, fmt.Errorf("vlc exited before the RC interface was up")
		default:
		}
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("RC interface not reachable after %d attempts", vlcConnectRetries)
}

// waitForLoad polls get_length until the media reports a duration.
func (v *VLC) waitForLoad() (float64, error) {
	for i := 0; i < vlcConnectRetries; i++ {
		select {
		case <-v.exited:
			return 0, fmt.Errorf("vlc exited while loading the file")
		default:
		}
		if n, err := v.queryFloat("get_length"); err == nil && n > 0 {
			v.mu.Lock()
			v.duration = n
			v.mu.Unlock()
			return n, nil
		}
		time.Sleep(vlcConnectDelay)
	}
	return 0, fmt.Errorf("vlc did not report a duration for the file")
}

// pollPosition runs on the poll task goroutine every 100ms and republishes
// the current position. End-of-media detection against this stream is the
// coordinator's job.
func (v *VLC) pollPosition() {
	pos, err := v.queryFloat("get_time")
	if err != nil {
		return
	}
	emit(v.events, PositionEvent{Seconds: pos})
}

func (v *VLC) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing {
		return nil
	}
	// The RC interface only exposes a pause toggle.
	if err := v.sendLocked("pause"); err != nil {
		return err
	}
	v.playing = true
	return nil
}

func (v *VLC) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.playing {
		return nil
	}
	if err := v.sendLocked("pause"); err != nil {
		return err
	}
	v.playing = false
	return nil
}

func (v *VLC) Rate() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rate
}

// SetRate approximates the requested rate with the RC speed commands:
// "normal" resets to 1.0 and every "faster" adds half a step.
func (v *VLC) SetRate(rate float64) error {
	if rate > vlcMaxRate {
		rate = vlcMaxRate
	}
	if rate <= 0 {
		rate = 1.0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.sendLocked("normal"); err != nil {
		return err
	}
	steps := int(math.Round((rate - 1.0) / vlcRateStep))
	for i := 0; i < steps; i++ {
		if err := v.sendLocked("faster"); err != nil {
			return err
		}
	}
	v.rate = 1.0 + float64(steps)*vlcRateStep
	return nil
}

func (v *VLC) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sendLocked(fmt.Sprintf("seek %.3f", seconds))
}

func (v *VLC) Duration() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.duration
}

func (v *VLC) AudioTracks() []tracks.Native {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]tracks.Native(nil), v.audio...)
}

func (v *VLC) SubtitleTracks() []tracks.Native {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]tracks.Native(nil), v.subs...)
}

func (v *VLC) SelectAudio(nativeID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sendLocked(fmt.Sprintf("atrack %d", nativeID))
}

func (v *VLC) SelectSubtitle(nativeID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sendLocked(fmt.Sprintf("strack %d", nativeID))
}

func (v *VLC) DisableSubtitles() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sendLocked("strack -1")
}

// AspectRatio is not queryable over the RC interface.
func (v *VLC) AspectRatio() (float64, bool) { return 0, false }

// Teardown cancels the poll task, quits vlc and reaps it. Idempotent.
func (v *VLC) Teardown() {
	v.mu.Lock()
	if v.tornDown {
		v.mu.Unlock()
		return
	}
	v.tornDown = true
	poll := v.poll
	conn := v.conn
	cmd := v.cmd
	exited := v.exited
	if conn != nil {
		_ = v.sendLocked("quit")
	}
	v.mu.Unlock()

	if poll != nil {
		poll.Cancel()
	}
	if exited != nil {
		select {
		case <-exited:
		case <-time.After(vlcQuitTimeout):
			if cmd != nil && cmd.Process != nil {
				log.Warnf("vlc did not quit, killing pid %d", cmd.Process.Pid)
				_ = cmd.Process.Kill()
			}
		}
	}
	if conn != nil {
		conn.Close()
	}
}

// refreshTracks re-reads the native audio and subtitle enumerations.
func (v *VLC) refreshTracks() error {
	audio, err := v.queryTrackList("atrack")
	if err != nil {
		return err
	}
	subs, err := v.queryTrackList("strack")
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.audio, v.subs = audio, subs
	v.mu.Unlock()
	emit(v.events, TracksChangedEvent{})
	return nil
}

// queryTrackList issues atrack/strack without an argument and parses the
// "| <id> - <name>" listing vlc prints between the +----[ ... ] markers.
func (v *VLC) queryTrackList(command string) ([]tracks.Native, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.sendLocked(command); err != nil {
		return nil, err
	}

	var list []tracks.Native
	deadline := time.Now().Add(vlcReadDeadline)
	for {
		line, err := v.readLineLocked(deadline)
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "+----[ end"):
			return list, nil
		case strings.HasPrefix(line, "+----"):
			// Section header.
		case strings.HasPrefix(line, "|"):
			if n, ok := parseVLCTrackLine(line); ok {
				list = append(list, n)
			}
		}
	}
}

func parseVLCTrackLine(line string) (tracks.Native, bool) {
	entry := strings.TrimSpace(strings.TrimPrefix(line, "|"))
	idStr, title, found := strings.Cut(entry, " - ")
	if !found {
		return tracks.Native{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		return tracks.Native{}, false
	}
	// The selected track carries a trailing marker.
	title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), "*"))
	return tracks.Native{ID: id, Title: title}, true
}

// queryFloat issues a command whose response is a bare number on its own
// line (get_time, get_length).
func (v *VLC) queryFloat(command string) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.sendLocked(command); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(vlcReadDeadline)
	for {
		line, err := v.readLineLocked(deadline)
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">") {
			continue
		}
		if n, err := strconv.ParseFloat(strings.TrimPrefix(line, "> "), 64); err == nil {
			return n, nil
		}
	}
}

func (v *VLC) sendLocked(command string) error {
	if v.conn == nil || v.tornDown {
		return ErrNotPrepared
	}
	if _, err := v.conn.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("vlc rc write: %w", err)
	}
	return nil
}

func (v *VLC) readLineLocked(deadline time.Time) (string, error) {
	if v.conn == nil {
		return "", ErrNotPrepared
	}
	if err := v.conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	return v.reader.ReadString('\n')
}

// freeLoopbackPort reserves a loopback TCP address for the RC interface.
func freeLoopbackPort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	addr := l.Addr().String()
	l.Close()
	return addr, nil
}

// Compile-time contract check.
var _ Adapter = (*VLC)(nil)
