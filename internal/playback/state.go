// Package playback implements the coordinator: the state machine that owns
// exactly one live backend adapter, exposes the transport API, and is the
// sole writer of published playback state.
package playback

// Status is the coordinator's lifecycle state for the current source.
//
// Transitions:
//   - Idle → Preparing            (Load)
//   - Preparing → Ready           (adapter ready)
//   - Preparing → Preparing       (primary failure, one-time fallback)
//   - Preparing → Failed          (terminal failure)
//   - Ready → Preparing           (forced backend switch, new Load)
//   - Ready/Failed → Preparing    (new Load, Retry)
type Status int

const (
	StatusIdle Status = iota
	StatusPreparing
	StatusReady
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusPreparing:
		return "Preparing"
	case StatusReady:
		return "Ready"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsReady reports whether transport operations are accepted.
func (s Status) IsReady() bool { return s == StatusReady }
