// Package interp is the interpreter decode loop (spec.md §4.4): it fetches
// opcodes, dispatches control vs. note commands, maintains a return-address
// stack and a bounded-jump counter, and drives the synth engine one event at
// a time.
package interp

import (
	"io"

	"notran/internal/config"
	"notran/internal/debug"
	"notran/internal/isa"
	"notran/internal/synth"
)

const callStackCapacity = 256

// Interpreter runs a compiled code buffer against a set of wavetables.
type Interpreter struct {
	code []byte
	pc   uint16

	callStack []uint16

	jumpsRemaining uint32
	unboundedJumps bool

	voiceCount uint8
	terminated bool

	engine *synth.Engine
	logger *debug.Logger

	// trace, when non-nil, makes the decode loop record instructions
	// instead of rendering audio (Disassemble uses this).
	trace *[]TraceEntry
}

// New creates an interpreter positioned at the start of code.
func New(code []byte, opts config.InterpreterOptions, logger *debug.Logger) *Interpreter {
	return &Interpreter{
		code:           code,
		callStack:      make([]uint16, 0, callStackCapacity),
		jumpsRemaining: opts.MaxJumps,
		unboundedJumps: opts.MaxJumps == 0,
		voiceCount:     isa.NumVoices,
		engine:         synth.NewEngine(opts.SampleRate, logger),
		logger:         logger,
	}
}

// Run executes the program against tables, writing samples to sink until END,
// jump-budget exhaustion, a fatal error, or stop is closed/signaled.
func (ip *Interpreter) Run(tables [][256]byte, sink io.Writer, stop <-chan struct{}) error {
	for !ip.terminated {
		select {
		case <-stop:
			return nil
		default:
		}

		if err := ip.drainControls(); err != nil {
			return err
		}
		if ip.terminated {
			return nil
		}

		interrupted, err := ip.assignPendingVoices(tables)
		if err != nil {
			return err
		}
		if interrupted {
			continue
		}

		if len(ip.engine.PendingIndices()) == 0 {
			if err := ip.renderEvent(tables, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

// drainControls executes pure control commands (spec.md §4.4: "duration
// byte = 0 and not a long-note opcode") until it meets a note form or END.
func (ip *Interpreter) drainControls() error {
	for {
		if ip.pc >= uint16(len(ip.code)) {
			return newRuntimeErr(ip.pc, ErrTruncatedCode, "code ended without END")
		}
		at := ip.pc
		b := ip.code[ip.pc]
		kind, high, _ := isa.Classify(b)
		if kind != isa.KindControl {
			return nil
		}
		ip.pc++

		if ip.trace != nil {
			ip.recordControl(at, isa.Opcode(high))
		}

		switch isa.Opcode(high) {
		case isa.OpEND:
			ip.terminated = true
			return nil

		case isa.OpTEMPO:
			t, err := ip.fetchByte()
			if err != nil {
				return err
			}
			if t == 0 {
				ip.logf("tempo 0 is invalid, clamping to 1")
				t = 1
			}
			ip.engine.SetTempo(t)

		case isa.OpCALL:
			target, err := ip.fetchAddress()
			if err != nil {
				return err
			}
			if len(ip.callStack) >= callStackCapacity {
				return newRuntimeErr(at, ErrCallStackOverflow, "call stack already at capacity %d", callStackCapacity)
			}
			ip.callStack = append(ip.callStack, ip.pc)
			if err := ip.jumpTo(at, target); err != nil {
				return err
			}

		case isa.OpRETURN:
			if len(ip.callStack) == 0 {
				return newRuntimeErr(at, ErrCallStackUnderflow, "RETURN with no pending CALL")
			}
			ip.pc = ip.callStack[len(ip.callStack)-1]
			ip.callStack = ip.callStack[:len(ip.callStack)-1]

		case isa.OpJUMP:
			target, err := ip.fetchAddress()
			if err != nil {
				return err
			}
			if !ip.unboundedJumps {
				if ip.jumpsRemaining == 0 {
					ip.terminated = true
					return nil
				}
				ip.jumpsRemaining--
			}
			if err := ip.jumpTo(at, target); err != nil {
				return err
			}

		case isa.OpSETVOICES:
			n, err := ip.fetchByte()
			if err != nil {
				return err
			}
			if n < 1 || n > isa.NumVoices {
				ip.logf("voice count %d out of range, clamping", n)
				if n < 1 {
					n = 1
				}
				if n > isa.NumVoices {
					n = isa.NumVoices
				}
			}
			ip.voiceCount = n

		case isa.OpACTIVATE:
			v, err := ip.fetchByte()
			if err != nil {
				return err
			}
			ip.engine.Activate(int(v & 0x03))

		case isa.OpDEACTIVATE:
			v, err := ip.fetchByte()
			if err != nil {
				return err
			}
			ip.engine.Deactivate(int(v & 0x03))
		}
	}
}

// assignPendingVoices gives each currently pending voice its next note. If a
// pure control command is encountered while reading a voice's note, the byte
// is un-consumed (spec.md §9: "the decoder must track the last byte read so
// it can rewind... model by peeking rather than consuming") and interrupted
// is returned true so the caller goes back to drainControls.
func (ip *Interpreter) assignPendingVoices(tables [][256]byte) (interrupted bool, err error) {
	for _, v := range ip.engine.PendingIndices() {
		if ip.pc >= uint16(len(ip.code)) {
			return false, newRuntimeErr(ip.pc, ErrTruncatedCode, "code ended mid-event")
		}
		at := ip.pc
		kind, high, low := isa.Classify(ip.code[ip.pc])
		if kind == isa.KindControl {
			return true, nil
		}
		ip.pc++

		switch kind {
		case isa.KindRest:
			units, _ := isa.DurationUnits(low)
			if ip.trace != nil {
				ip.recordNote(at, v, "REST", 0, low)
			}
			ip.engine.AssignNote(v, ip.engine.Voices[v].WavetableIndex, 0, units8(units), len(tables))

		case isa.KindShortNote:
			delta := isa.ShortNoteDelta(high)
			newOffset := uint8(int(ip.engine.Voices[v].NoteOffset) + 2*delta)
			units, _ := isa.DurationUnits(low)
			if ip.trace != nil {
				ip.recordNote(at, v, "SHORT", newOffset, low)
			}
			ip.engine.AssignNote(v, ip.engine.Voices[v].WavetableIndex, newOffset, units8(units), len(tables))

		case isa.KindLongNote:
			pitchByte, err := ip.fetchByte()
			if err != nil {
				return false, err
			}
			waveDur, err := ip.fetchByte()
			if err != nil {
				return false, err
			}
			waveform := waveDur >> 4
			durCode := waveDur & 0x0F
			if durCode == 0 {
				ip.logf("zero duration code in long note at offset 0x%04X, clamping", at)
				durCode = 1
			}
			units, _ := isa.DurationUnits(durCode)

			var noteOffset uint8
			if isa.Opcode(high) == isa.OpLONGNOTEABS {
				noteOffset = pitchByte
			} else {
				delta := int(int8(pitchByte))
				noteOffset = uint8(int(ip.engine.Voices[v].NoteOffset) + 2*delta)
			}
			if ip.trace != nil {
				ip.recordNote(at, v, "LONG", noteOffset, durCode)
			}
			ip.engine.AssignNote(v, waveform, noteOffset, units8(units), len(tables))
		}
	}
	return false, nil
}

func (ip *Interpreter) renderEvent(tables [][256]byte, sink io.Writer) error {
	dur, ok := ip.engine.MinRemaining()
	if !ok {
		return nil
	}
	if ip.trace == nil {
		count := int(ip.engine.Tempo) * int(dur)
		if err := ip.engine.RenderSamples(tables, count, sink); err != nil {
			return err
		}
	}
	ip.engine.DecrementActive(dur)
	return nil
}

func (ip *Interpreter) fetchByte() (uint8, error) {
	if ip.pc >= uint16(len(ip.code)) {
		return 0, newRuntimeErr(ip.pc, ErrTruncatedCode, "code ended mid-instruction")
	}
	b := ip.code[ip.pc]
	ip.pc++
	return b, nil
}

func (ip *Interpreter) fetchAddress() (uint16, error) {
	lo, err := ip.fetchByte()
	if err != nil {
		return 0, err
	}
	hi, err := ip.fetchByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (ip *Interpreter) jumpTo(at uint16, target uint16) error {
	if int(target) >= len(ip.code) {
		return newRuntimeErr(at, ErrTargetOutOfRange, "target 0x%04X outside %d-byte code", target, len(ip.code))
	}
	ip.pc = target
	return nil
}

func units8(units uint16) uint8 {
	if units > 254 {
		return 254
	}
	return uint8(units)
}

func (ip *Interpreter) logf(format string, args ...interface{}) {
	if ip.logger != nil {
		ip.logger.LogInterpf(debug.LogLevelWarning, format, args...)
	}
}
