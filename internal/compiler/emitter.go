package compiler

import (
	"notran/internal/config"
	"notran/internal/debug"
	"notran/internal/isa"
)

// emitter owns the code buffer and the four voice slots; it is the compiler
// component spec.md §4.3 describes (event formation, encoding choice,
// SUB/ESB back-patching).
type emitter struct {
	opts   config.CompilerOptions
	code   []byte
	voices [4]compileVoice
	event  eventTracker
	symtab *symbolTable
	logger *debug.Logger

	subPending   bool
	subPatchAddr int

	ended bool
}

func newEmitter(opts config.CompilerOptions, logger *debug.Logger) *emitter {
	e := &emitter{
		opts:   opts,
		symtab: newSymbolTable(opts.BaseAddress, opts.MaxIdentifiers),
		logger: logger,
	}
	for i := range e.voices {
		e.voices[i] = newCompileVoice()
	}
	return e
}

func (e *emitter) offset() uint16 {
	return uint16(len(e.code))
}

func (e *emitter) appendByte(line int, b byte) *CompileError {
	if len(e.code) >= e.opts.MaxCodeSize {
		return newErr(line, ErrCodeOverflow, "code buffer exceeds %d bytes", e.opts.MaxCodeSize)
	}
	e.code = append(e.code, b)
	return nil
}

func (e *emitter) appendBytes(line int, bs ...byte) *CompileError {
	for _, b := range bs {
		if err := e.appendByte(line, b); err != nil {
			return err
		}
	}
	return nil
}

// --- event lifecycle -------------------------------------------------

func (e *emitter) anyVoiceActive() bool {
	for i := range e.voices {
		if e.voices[i].active() {
			return true
		}
	}
	return false
}

// closeEvent applies the completion rule from spec.md §4.3: find the
// minimum remaining duration among active voices and subtract it from
// every active voice.
func (e *emitter) closeEvent() {
	min := -1
	for i := range e.voices {
		if !e.voices[i].active() {
			continue
		}
		d := int(e.voices[i].RemainingDuration)
		if min < 0 || d < min {
			min = d
		}
	}
	if min > 0 {
		for i := range e.voices {
			if e.voices[i].active() {
				e.voices[i].RemainingDuration -= uint8(min)
			}
		}
	}
	e.event.reset()
}

// forceCloseEvent implements the recovery policy for "executable control in
// event": the event is abandoned so compilation can continue. Voices that
// still need a note stay exactly as they are — the next note token simply
// reopens an event and picks up the search from slot 0.
func (e *emitter) forceCloseEvent() {
	e.event.reset()
}

// --- keyword operations -----------------------------------------------

// guardNotInEvent is called by every executable-control operation before it
// does anything. If an event is open it reports the error and force-closes
// the event, matching spec.md §7's recovery policy.
func (e *emitter) guardNotInEvent(line int) *CompileError {
	if e.event.open {
		e.forceCloseEvent()
		return newErr(line, ErrExecControlInEvent, "keyword used while an event is open")
	}
	return nil
}

func (e *emitter) setVoices(line int, n int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if n < 1 || n > isa.NumVoices {
		return newErr(line, ErrArgumentOutOfRange, "NVC %d out of range 1..4", n)
	}
	return e.appendBytes(line, isa.CommandByte(uint8(isa.OpSETVOICES), 0), byte(n))
}

func (e *emitter) activate(line int, voice int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if voice < 1 || voice > isa.NumVoices {
		return newErr(line, ErrArgumentOutOfRange, "voice %d out of range 1..4", voice)
	}
	e.voices[voice-1].RemainingDuration = 0
	return e.appendBytes(line, isa.CommandByte(uint8(isa.OpACTIVATE), 0), byte(voice-1))
}

func (e *emitter) deactivate(line int, voice int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if voice < 1 || voice > isa.NumVoices {
		return newErr(line, ErrArgumentOutOfRange, "voice %d out of range 1..4", voice)
	}
	e.voices[voice-1].RemainingDuration = isa.VoiceInactive
	return e.appendBytes(line, isa.CommandByte(uint8(isa.OpDEACTIVATE), 0), byte(voice-1))
}

func (e *emitter) setWaveform(line int, waveform, voice int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if voice < 1 || voice > isa.NumVoices {
		return newErr(line, ErrArgumentOutOfRange, "voice %d out of range 1..4", voice)
	}
	if waveform < 1 || waveform > 16 {
		return newErr(line, ErrArgumentOutOfRange, "waveform %d out of range 1..16", waveform)
	}
	e.voices[voice-1].Waveform = uint8(waveform - 1)
	e.voices[voice-1].UseAbsolute = true
	return nil
}

func (e *emitter) tempo(line int, t int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if t < 1 || t > 255 {
		return newErr(line, ErrArgumentOutOfRange, "tempo %d out of range 1..255", t)
	}
	return e.appendBytes(line, isa.CommandByte(uint8(isa.OpTEMPO), 0), byte(t))
}

func (e *emitter) markAbsolute(line int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	for i := range e.voices {
		e.voices[i].UseAbsolute = true
	}
	return nil
}

func (e *emitter) jump(line int, target uint8, isCall bool) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	rel, ok := e.symtab.Resolve(target)
	if !ok {
		return newErr(line, ErrUndefinedIdentifier, "identifier %d is undefined", target)
	}
	high := uint8(isa.OpJUMP)
	if isCall {
		high = uint8(isa.OpCALL)
	}
	return e.appendBytes(line, isa.CommandByte(high, 0), byte(rel), byte(rel>>8))
}

func (e *emitter) ret(line int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	return e.appendBytes(line, isa.CommandByte(uint8(isa.OpRETURN), 0))
}

func (e *emitter) openSub(line int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if e.subPending {
		return newErr(line, ErrNestedSub, "SUB already open")
	}
	if err := e.appendBytes(line, isa.CommandByte(uint8(isa.OpJUMP), 0), 0, 0); err != nil {
		return err
	}
	e.subPatchAddr = int(e.offset()) - 2
	e.subPending = true
	return nil
}

func (e *emitter) closeSub(line int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	if !e.subPending {
		return newErr(line, ErrEsbWithoutSub, "ESB without a pending SUB")
	}
	target := e.offset()
	e.code[e.subPatchAddr] = byte(target)
	e.code[e.subPatchAddr+1] = byte(target >> 8)
	e.subPending = false
	return nil
}

func (e *emitter) end(line int) *CompileError {
	if err := e.guardNotInEvent(line); err != nil {
		return err
	}
	e.ended = true
	return e.appendBytes(line, isa.CommandByte(uint8(isa.OpEND), 0))
}

func (e *emitter) defineLabel(line int, id uint8) *CompileError {
	if e.event.open {
		return newErr(line, ErrIdentifierInEvent, "label %d defined while an event is open", id)
	}
	dup, overflow := e.symtab.Define(id, e.offset())
	if dup {
		return newErr(line, ErrDuplicateIdentifier, "identifier %d redefined", id)
	}
	if overflow {
		return newErr(line, ErrSymbolTableOverflow, "more than %d identifiers", e.opts.MaxIdentifiers)
	}
	return nil
}

// --- notes -------------------------------------------------------------

// emitNote implements spec.md §4.3 in full: event formation, voice slot
// assignment, short/long encoding choice, and event completion.
func (e *emitter) emitNote(line int, n noteSpec) *CompileError {
	code, units, ok := durationLookup(n.DurLetter, n.DurMod)
	if !ok {
		return newErr(line, ErrIllegalDuration, "illegal duration %q", string(n.DurLetter)+string(n.DurMod))
	}

	if !e.event.open {
		if !e.anyVoiceActive() {
			// Open Question, resolved in SPEC_FULL.md §11: flag-and-continue
			// rather than treating this as a process-ending fatal error.
			return newErr(line, ErrNoVoicesActive, "no voices active at event open")
		}
		e.event.open = true
		e.event.cursor = 0
	}

	slot, found := e.findPendingVoice()
	if !found {
		return newErr(line, ErrVoiceMismatch, "no voice slot is waiting for a note")
	}
	if n.Voice != 0 && n.Voice-1 != slot {
		return newErr(line, ErrVoiceMismatch, "note specifies voice %d, event expects voice %d", n.Voice, slot+1)
	}

	v := &e.voices[slot]

	if n.IsRest {
		if err := e.appendBytes(line, isa.CommandByte(uint8(isa.OpDEACTIVATE), code)); err != nil {
			return err
		}
		v.RemainingDuration = units8(units)
		e.advanceAndMaybeClose(slot)
		return nil
	}

	var rangeErr *CompileError
	octave := n.Octave
	if octave == 0 {
		if v.Octave == 0 {
			rangeErr = newErr(line, ErrPitchOutOfRange, "voice %d has no current octave", slot+1)
			octave = 4
		} else {
			octave = int(v.Octave)
		}
	}

	pitchClass, ok := isa.PitchClass(n.Letter, n.Accidental)
	if !ok {
		return newErr(line, ErrIncomprehensible, "unrecognized pitch letter %q", string(n.Letter))
	}
	absPitch := isa.AbsolutePitch(octave, pitchClass)
	if absPitch < isa.MinAbsolutePitch || absPitch > isa.MaxAbsolutePitch {
		if rangeErr == nil {
			rangeErr = newErr(line, ErrPitchOutOfRange, "pitch %d out of range 1..61", absPitch)
		}
		absPitch = isa.MaxAbsolutePitch
	}

	delta := absPitch - int(v.LastPitch)
	useShort := !v.UseAbsolute && v.LastPitch != 0 && delta >= -7 && delta <= 7

	if useShort {
		high := uint8(delta)
		if delta < 0 {
			high = uint8(delta + 16)
		}
		if err := e.appendBytes(line, isa.CommandByte(high, code)); err != nil {
			return err
		}
	} else {
		pitchByte := byte(absPitch * 2)
		waveDur := byte(v.Waveform<<4) | code
		if err := e.appendBytes(line, isa.CommandByte(uint8(isa.OpLONGNOTEABS), 0), pitchByte, waveDur); err != nil {
			return err
		}
	}

	v.LastPitch = uint8(absPitch)
	v.Octave = uint8(octave)
	v.UseAbsolute = false
	v.RemainingDuration = units8(units)

	e.advanceAndMaybeClose(slot)
	return rangeErr
}

func durationLookup(letter, mod byte) (code uint8, units uint16, ok bool) {
	return isa.DurationCode(letter, mod)
}

func units8(units uint16) uint8 {
	if units > 254 {
		return 254
	}
	return uint8(units)
}

// findPendingVoice scans active voices starting at the event cursor for one
// still waiting for a note (remaining_duration == 0), per spec.md §4.3.
func (e *emitter) findPendingVoice() (int, bool) {
	for i := 0; i < isa.NumVoices; i++ {
		slot := (e.event.cursor + i) % isa.NumVoices
		if e.voices[slot].needsNote() {
			return slot, true
		}
	}
	return 0, false
}

func (e *emitter) advanceAndMaybeClose(slot int) {
	e.event.cursor = (slot + 1) % isa.NumVoices
	for i := range e.voices {
		if e.voices[i].needsNote() {
			return
		}
	}
	e.closeEvent()
}
