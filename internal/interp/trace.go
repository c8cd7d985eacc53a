package interp

import (
	"fmt"
	"io"

	"notran/internal/config"
	"notran/internal/isa"
)

// TraceEntry is one decoded instruction, as produced by Disassemble. This is
// the trace/disassembly mode SPEC_FULL.md §11 adds: notranc disasm reuses
// the exact decode loop execution would use, without driving the synth.
type TraceEntry struct {
	Offset   uint16
	Mnemonic string
	Operands string
}

var controlMnemonic = map[isa.Opcode]string{
	isa.OpEND:        "END",
	isa.OpTEMPO:      "TPO",
	isa.OpCALL:       "JSR",
	isa.OpRETURN:     "RTS",
	isa.OpJUMP:       "JMP",
	isa.OpSETVOICES:  "NVC",
	isa.OpACTIVATE:   "ACT",
	isa.OpDEACTIVATE: "DCT",
}

func (ip *Interpreter) recordControl(at uint16, op isa.Opcode) {
	*ip.trace = append(*ip.trace, TraceEntry{
		Offset:   at,
		Mnemonic: controlMnemonic[op],
	})
}

func (ip *Interpreter) recordNote(at uint16, voice int, form string, noteOffset uint8, durationCode uint8) {
	operands := fmt.Sprintf("voice=%d form=%s offset=%d dur=%d", voice, form, noteOffset, durationCode)
	*ip.trace = append(*ip.trace, TraceEntry{Offset: at, Mnemonic: "NOTE", Operands: operands})
}

// Disassemble runs the decode loop to completion without producing audio,
// recording every decoded instruction in code order. Numeric wavetable
// indices are not validated against a real table set (none is available at
// disassembly time), so the full 16-entry waveform range is accepted.
func Disassemble(code []byte, maxJumps uint32) ([]TraceEntry, error) {
	ip := New(code, config.InterpreterOptions{SampleRate: 8772, MaxJumps: maxJumps}, nil)
	var entries []TraceEntry
	ip.trace = &entries

	placeholderTables := make([][256]byte, 16)
	err := ip.Run(placeholderTables, io.Discard, nil)
	return entries, err
}
