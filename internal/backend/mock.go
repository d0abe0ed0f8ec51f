package backend

import (
	"sync"

	"github.com/aagedal/reel/internal/media"
	"github.com/aagedal/reel/internal/tracks"
)

// Mock is a test double for Adapter. Tests script engine behavior through
// the Emit helpers and inspect the calls the coordinator made.
type Mock struct {
	kind   Kind
	events chan Event

	mu            sync.Mutex
	prepareErr    error
	prepareCalls  int
	lastSource    media.Source
	lastStartTime float64
	playing       bool
	rate          float64
	duration      float64
	seeks         []float64
	audioSelects  []int64
	subSelects    []int64
	subDisables   int
	tornDown      bool
	audio         []tracks.Native
	subs          []tracks.Native
}

// NewMock creates a mock adapter reporting the given kind.
func NewMock(kind Kind) *Mock {
	return &Mock{
		kind:   kind,
		events: make(chan Event, eventBufferSize),
		rate:   1.0,
	}
}

func (m *Mock) Kind() Kind           { return m.kind }
func (m *Mock) Events() <-chan Event { return m.events }
func (m *Mock) RateStep() float64    { return 1.0 }
func (m *Mock) MaxRate() float64     { return 4.0 }

func (m *Mock) Prepare(source media.Source, startTime float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareCalls++
	m.lastSource = source
	m.lastStartTime = startTime
	return m.prepareErr
}

func (m *Mock) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tornDown = true
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = true
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	return nil
}

func (m *Mock) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

func (m *Mock) SetRate(rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rate > 4.0 {
		rate = 4.0
	}
	m.rate = rate
	return nil
}

func (m *Mock) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, seconds)
	return nil
}

func (m *Mock) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) AudioTracks() []tracks.Native {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracks.Native(nil), m.audio...)
}

func (m *Mock) SubtitleTracks() []tracks.Native {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracks.Native(nil), m.subs...)
}

func (m *Mock) SelectAudio(nativeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audioSelects = append(m.audioSelects, nativeID)
	return nil
}

func (m *Mock) SelectSubtitle(nativeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subSelects = append(m.subSelects, nativeID)
	return nil
}

func (m *Mock) DisableSubtitles() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subDisables++
	return nil
}

func (m *Mock) AspectRatio() (float64, bool) { return 16.0 / 9.0, true }

// Event helpers

func (m *Mock) EmitReady(duration float64) {
	m.mu.Lock()
	m.duration = duration
	m.mu.Unlock()
	m.events <- ReadyEvent{Duration: duration}
}

func (m *Mock) EmitFailure(kind FailureKind, msg string) {
	m.events <- FailureEvent{Failure{Kind: kind, Message: msg}}
}

func (m *Mock) EmitPosition(seconds float64) {
	m.events <- PositionEvent{Seconds: seconds}
}

func (m *Mock) EmitEndOfMedia() {
	m.events <- EndOfMediaEvent{}
}

func (m *Mock) EmitTracksChanged() {
	m.events <- TracksChangedEvent{}
}

// Inspection helpers

func (m *Mock) SetPrepareError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareErr = err
}

func (m *Mock) SetTracks(audio, subs []tracks.Native) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio, m.subs = audio, subs
}

func (m *Mock) PrepareCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepareCalls
}

func (m *Mock) LastStartTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStartTime
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Seeks() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.seeks...)
}

func (m *Mock) AudioSelects() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.audioSelects...)
}

func (m *Mock) SubtitleSelects() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.subSelects...)
}

func (m *Mock) TornDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tornDown
}

// Compile-time contract check.
var _ Adapter = (*Mock)(nil)
