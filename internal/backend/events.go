package backend

// FailureKind reduces adapter-specific failures to the two signals the
// coordinator understands: recoverable-by-fallback or terminal.
type FailureKind int

const (
	// FailureConstruction means the engine process or its control channel
	// could not be created. Terminal.
	FailureConstruction FailureKind = iota
	// FailureDecodeOrFormat means the engine started but cannot decode the
	// source or reports an unusable format. Triggers the one-time fallback
	// when raised by the primary backend.
	FailureDecodeOrFormat
	// FailureUnsupported means the format is unsupported with no fallback
	// available. Terminal.
	FailureUnsupported
)

// Failure describes why an adapter gave up on a source.
type Failure struct {
	Kind    FailureKind
	Message string
}

// RecoverableByFallback reports whether the coordinator may retry the
// source on the other backend. Only meaningful for the primary adapter.
func (f Failure) RecoverableByFallback() bool {
	return f.Kind == FailureDecodeOrFormat
}

// Event is an engine-originated notification republished by an adapter.
type Event interface{ isEvent() }

// ReadyEvent signals that the engine has loaded the source and accepted
// transport commands.
type ReadyEvent struct {
	Duration float64
}

// FailureEvent signals that the engine gave up on the source.
type FailureEvent struct {
	Failure Failure
}

// PositionEvent carries a time-position update in seconds.
type PositionEvent struct {
	Seconds float64
}

// EndOfMediaEvent signals that playback reached the end of the source.
type EndOfMediaEvent struct{}

// TracksChangedEvent signals that the engine's native track enumeration
// changed; the coordinator rebuilds its catalog in response.
type TracksChangedEvent struct{}

func (ReadyEvent) isEvent()         {}
func (FailureEvent) isEvent()       {}
func (PositionEvent) isEvent()      {}
func (EndOfMediaEvent) isEvent()    {}
func (TracksChangedEvent) isEvent() {}

const eventBufferSize = 32

// emit delivers an event without ever blocking the engine-side goroutine.
// A full buffer sheds its oldest entry, so under a position-update flood
// the newest event (ready and failure included) still lands.
func emit(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
