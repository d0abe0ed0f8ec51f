package backend

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNone, "None"},
		{KindPrimary, "Primary"},
		{KindUniversal, "Universal"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestFailureRecoverableByFallback(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want bool
	}{
		{FailureConstruction, false},
		{FailureDecodeOrFormat, true},
		{FailureUnsupported, false},
	}
	for _, tt := range tests {
		f := Failure{Kind: tt.kind}
		if got := f.RecoverableByFallback(); got != tt.want {
			t.Errorf("Failure{%d}.RecoverableByFallback() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestEmitNeverBlocks(t *testing.T) {
	ch := make(chan Event, 2)
	for i := 0; i < 10; i++ {
		emit(ch, PositionEvent{Seconds: float64(i)})
	}
	if len(ch) != 2 {
		t.Errorf("buffered %d events, want 2", len(ch))
	}
}

func TestEmitShedsOldestUnderFlood(t *testing.T) {
	ch := make(chan Event, 2)
	for i := 0; i < eventBufferSize*2; i++ {
		emit(ch, PositionEvent{Seconds: float64(i)})
	}
	emit(ch, FailureEvent{Failure{Kind: FailureDecodeOrFormat, Message: "late failure"}})

	// Drain: the failure must still be buffered despite the flood.
	var sawFailure bool
	for len(ch) > 0 {
		if _, ok := (<-ch).(FailureEvent); ok {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Error("failure event was shed by the position flood")
	}
}

func TestParseVLCTrackLine(t *testing.T) {
	tests := []struct {
		line  string
		id    int64
		title string
		ok    bool
	}{
		{"| 1 - English", 1, "English", true},
		{"| 2 - Commentary *", 2, "Commentary", true},
		{"|  -1 - Disable", -1, "Disable", true},
		{"+----[ Audio Track ]", 0, "", false},
		{"| garbage", 0, "", false},
	}
	for _, tt := range tests {
		got, ok := parseVLCTrackLine(tt.line)
		if ok != tt.ok {
			t.Errorf("parseVLCTrackLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if ok && (got.ID != tt.id || got.Title != tt.title) {
			t.Errorf("parseVLCTrackLine(%q) = %d/%q, want %d/%q",
				tt.line, got.ID, got.Title, tt.id, tt.title)
		}
	}
}

func TestMockImplementsContract(t *testing.T) {
	m := NewMock(KindPrimary)
	if m.Kind() != KindPrimary {
		t.Errorf("kind = %v", m.Kind())
	}
	if err := m.Play(); err != nil || !m.Playing() {
		t.Error("Play should mark the mock playing")
	}
	if err := m.SetRate(10); err != nil || m.Rate() != 4.0 {
		t.Errorf("rate = %v, want clamp at 4.0", m.Rate())
	}
	m.EmitReady(120)
	if ev, ok := (<-m.Events()).(ReadyEvent); !ok || ev.Duration != 120 {
		t.Error("EmitReady should deliver a ReadyEvent")
	}
}
