package compiler

import "notran/internal/isa"

// compileVoice is the compile-time state of one of the four voice slots,
// per spec.md §3.
type compileVoice struct {
	Waveform          uint8 // 0..15
	Octave            uint8 // 1..6, 0 = never set
	LastPitch         uint8 // 1..61, 0 = no history
	UseAbsolute       bool
	RemainingDuration uint8 // 0..254; isa.VoiceInactive (0xFF) = inactive
}

func newCompileVoice() compileVoice {
	return compileVoice{RemainingDuration: isa.VoiceInactive}
}

func (v *compileVoice) active() bool {
	return v.RemainingDuration != isa.VoiceInactive
}

// needsNote reports whether this voice is active and waiting for the
// current event's note.
func (v *compileVoice) needsNote() bool {
	return v.active() && v.RemainingDuration == 0
}

// eventTracker is the small state machine spec.md §9 describes: a tagged
// variant of {Closed, Open(cursor)}. The cursor is the next voice slot the
// emitter searches from when assigning an incoming note.
type eventTracker struct {
	open   bool
	cursor int
}

func (e *eventTracker) reset() {
	e.open = false
	e.cursor = 0
}
