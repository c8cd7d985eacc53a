// Package synth is the fixed-point phase-accumulator synthesis engine
// (spec.md §4.5): four voices, a 256-entry wavetable lookup per voice, and a
// saturating mix. Modeled on the teacher's internal/apu fixed-point channel
// mixer, generalized from four float/int16 oscillator channels to four
// wavetable-lookup voices driven entirely by the frequency-increment table in
// internal/isa.
package synth

import (
	"io"

	"notran/internal/debug"
	"notran/internal/isa"
)

// Voice is the run-time state of one of the four synthesis voices
// (spec.md §3, "Voice state (run time)").
type Voice struct {
	Phase             uint16
	WavetableIndex    uint8
	NoteOffset        uint8 // absolute_pitch*2, as emitted by the compiler
	FreqIncrement     uint16
	RemainingDuration uint8 // isa.VoiceInactive = not participating
}

// Active reports whether this voice is participating in playback at all
// (distinct from being silent — see FreqIncrement).
func (v *Voice) Active() bool {
	return v.RemainingDuration != isa.VoiceInactive
}

// Engine owns the four voices and the tempo register, and renders samples.
type Engine struct {
	Voices     [4]Voice
	Tempo      uint8
	SampleRate uint32
	Logger     *debug.Logger
}

// NewEngine creates an engine with all voices inactive.
func NewEngine(sampleRate uint32, logger *debug.Logger) *Engine {
	e := &Engine{SampleRate: sampleRate, Logger: logger}
	for i := range e.Voices {
		e.Voices[i].RemainingDuration = isa.VoiceInactive
	}
	return e
}

// SetTempo sets the tempo register. 0 is invalid at runtime (spec.md §4.1);
// callers are expected to reject it before calling SetTempo.
func (e *Engine) SetTempo(t uint8) {
	e.Tempo = t
}

// Activate brings a voice to remaining_duration = 0 (needs a note next).
func (e *Engine) Activate(voice int) {
	e.Voices[voice].RemainingDuration = 0
}

// Deactivate returns a voice to the inactive sentinel.
func (e *Engine) Deactivate(voice int) {
	e.Voices[voice] = Voice{RemainingDuration: isa.VoiceInactive}
}

// AssignNote gives an active, pending voice its next note: a wavetable
// index, a note offset (absolute_pitch*2, or 0 for rest), and a duration in
// time units. An out-of-range wavetable index or note offset is a soft error
// (spec.md §7(i)): the voice is clamped to silence and the problem is logged,
// not propagated.
func (e *Engine) AssignNote(voice int, wavetableIndex uint8, noteOffset uint8, durationUnits uint8, numTables int) {
	v := &e.Voices[voice]
	v.WavetableIndex = wavetableIndex
	v.NoteOffset = noteOffset
	v.RemainingDuration = durationUnits
	v.Phase = 0

	if noteOffset == 0 {
		v.FreqIncrement = 0
		return
	}
	idx := int(noteOffset) / 2
	if idx < 0 || idx >= len(isa.FrequencyIncrements) {
		e.logf("voice %d note offset %d out of range, silencing", voice, noteOffset)
		v.FreqIncrement = 0
		return
	}
	if int(wavetableIndex) >= numTables {
		e.logf("voice %d wavetable index %d out of range, silencing", voice, wavetableIndex)
		v.FreqIncrement = 0
		return
	}
	v.FreqIncrement = isa.FrequencyIncrements[idx]
}

// ActiveIndices returns the voice slots currently participating.
func (e *Engine) ActiveIndices() []int {
	var out []int
	for i := range e.Voices {
		if e.Voices[i].Active() {
			out = append(out, i)
		}
	}
	return out
}

// PendingIndices returns the active voice slots still waiting for a note.
func (e *Engine) PendingIndices() []int {
	var out []int
	for i := range e.Voices {
		if e.Voices[i].Active() && e.Voices[i].RemainingDuration == 0 {
			out = append(out, i)
		}
	}
	return out
}

// MinRemaining returns the minimum remaining_duration among active voices.
func (e *Engine) MinRemaining() (uint8, bool) {
	min := -1
	for i := range e.Voices {
		if !e.Voices[i].Active() {
			continue
		}
		d := int(e.Voices[i].RemainingDuration)
		if min < 0 || d < min {
			min = d
		}
	}
	if min < 0 {
		return 0, false
	}
	return uint8(min), true
}

// DecrementActive subtracts by from every active voice's remaining duration.
func (e *Engine) DecrementActive(by uint8) {
	for i := range e.Voices {
		if e.Voices[i].Active() {
			e.Voices[i].RemainingDuration -= by
		}
	}
}

// RenderSamples produces count samples from the current voice state and
// writes them to sink, retrying on short writes per spec.md §5.
func (e *Engine) RenderSamples(tables [][256]byte, count int, sink io.Writer) error {
	if count <= 0 {
		return nil
	}
	buf := make([]byte, count)
	for s := 0; s < count; s++ {
		var mix uint16
		for i := range e.Voices {
			v := &e.Voices[i]
			if !v.Active() || v.FreqIncrement == 0 {
				continue
			}
			if int(v.WavetableIndex) >= len(tables) {
				continue
			}
			mix += uint16(tables[v.WavetableIndex][v.Phase>>8])
		}
		if mix > 255 {
			mix = 255
		}
		buf[s] = byte(mix)

		for i := range e.Voices {
			v := &e.Voices[i]
			if !v.Active() || v.FreqIncrement == 0 {
				continue
			}
			v.Phase += v.FreqIncrement
		}
	}
	return writeAll(sink, buf)
}

func writeAll(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.LogSynthf(debug.LogLevelWarning, format, args...)
	}
}
