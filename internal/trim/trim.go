// Package trim tracks the in/out marker pair that defines a lossless
// export segment.
package trim

// Range holds two optional time markers in seconds. Whenever both are set,
// in < out holds; setting a marker that would violate this clears the other.
type Range struct {
	in     float64
	out    float64
	hasIn  bool
	hasOut bool
}

// SetIn places the in marker at t. An out marker at or before t is cleared.
func (r *Range) SetIn(t float64) {
	r.in = t
	r.hasIn = true
	if r.hasOut && r.out <= t {
		r.hasOut = false
	}
}

// SetOut places the out marker at t. An in marker at or after t is cleared.
func (r *Range) SetOut(t float64) {
	r.out = t
	r.hasOut = true
	if r.hasIn && r.in >= t {
		r.hasIn = false
	}
}

// ClearIn removes the in marker.
func (r *Range) ClearIn() { r.hasIn = false }

// ClearOut removes the out marker.
func (r *Range) ClearOut() { r.hasOut = false }

// Clear removes both markers.
func (r *Range) Clear() {
	r.hasIn = false
	r.hasOut = false
}

// In returns the in marker and whether it is set.
func (r *Range) In() (float64, bool) { return r.in, r.hasIn }

// Out returns the out marker and whether it is set.
func (r *Range) Out() (float64, bool) { return r.out, r.hasOut }

// Exportable reports whether both markers are set with out > in, the
// precondition for a trim export.
func (r *Range) Exportable() bool {
	return r.hasIn && r.hasOut && r.out > r.in
}
