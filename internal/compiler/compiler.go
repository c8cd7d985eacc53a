// Package compiler implements the NOTRAN compiler front end, emitter, and
// voice/event tracker (spec.md §4.2-§4.3).
package compiler

import (
	"strings"

	"notran/internal/config"
	"notran/internal/debug"
)

// LineRecord is one line's contribution to a compile: its source text, the
// code offset it started at, and the bytes it emitted. Exposed so a caller
// can render a listing (spec.md §3: "each line of source records its start
// offset so a listing can report address ← bytes for that line").
type LineRecord struct {
	Line        int
	Source      string
	StartOffset uint16
	Bytes       []byte
}

// Result is the outcome of a compile.
type Result struct {
	Code    []byte
	OK      bool
	Errors  []*CompileError
	Listing []LineRecord
	Labels  map[uint8]uint16
}

// Compile compiles NOTRAN source text into bytecode. It never stops at the
// first error: every line up to END is processed and every diagnosable problem is
// recorded in Result.Errors, matching spec.md §7's recovery policy. Result.OK
// is false whenever any error was recorded, which should suppress object
// emission by the caller.
func Compile(source string, opts config.CompilerOptions, logger *debug.Logger) *Result {
	e := newEmitter(opts, logger)
	var errs []*CompileError
	var listing []LineRecord

	record := func(err *CompileError) {
		if err == nil {
			return
		}
		errs = append(errs, err)
		if e.logger != nil {
			e.logger.LogCompilerf(debug.LogLevelError, "%s", err.Error())
		}
	}

	rawLines := strings.Split(source, "\n")
	for i, raw := range rawLines {
		lineNo := i + 1
		l := tokenizeLine(lineNo, raw)

		start := e.offset()

		switch {
		case l.Malformed:
			record(newErr(lineNo, ErrIncomprehensible, "line must start with a label, '*', or whitespace"))
		case l.IsComment, l.IsBlank:
			// No code; still recorded in the listing below.
		default:
			if l.HasLabel {
				if l.LabelBad {
					record(newErr(lineNo, ErrArgumentOutOfRange, "label %d out of range 1..255", l.Label))
				} else {
					record(e.defineLabel(lineNo, l.Label))
				}
			}
			for _, s := range l.Specs {
				if e.ended {
					break
				}
				processSpec(e, lineNo, s, record)
			}
		}

		listing = append(listing, LineRecord{
			Line:        lineNo,
			Source:      raw,
			StartOffset: start,
			Bytes:       append([]byte(nil), e.code[start:]...),
		})

		if e.ended {
			break
		}
	}

	if e.subPending {
		record(newErr(len(rawLines), ErrHangingSub, "SUB was never closed with a matching ESB"))
	}

	return &Result{
		Code:    e.code,
		OK:      len(errs) == 0,
		Errors:  errs,
		Listing: listing,
		Labels:  e.symtab.Snapshot(),
	}
}

func processSpec(e *emitter, line int, s spec, record func(*CompileError)) {
	if !s.IsKeyword {
		n, ok := parseNoteSpec(s.NoteToken)
		if !ok {
			record(newErr(line, ErrIncomprehensible, "unrecognized specification %q", s.NoteToken))
			return
		}
		record(e.emitNote(line, n))
		return
	}

	switch s.Keyword {
	case kwNVC:
		n, err := parseDecimal(line, s.Operand)
		if err != nil {
			record(err)
			return
		}
		record(e.setVoices(line, n))

	case kwTPO:
		n, err := parseDecimal(line, s.Operand)
		if err != nil {
			record(err)
			return
		}
		record(e.tempo(line, n))

	case kwACT, kwDCT:
		voices, err := splitCommaInts(line, s.Operand)
		if err != nil {
			record(err)
			return
		}
		for _, v := range voices {
			if s.Keyword == kwACT {
				record(e.activate(line, v))
			} else {
				record(e.deactivate(line, v))
			}
		}

	case kwWAV:
		parts, err := splitCommaInts(line, s.Operand)
		if err != nil {
			record(err)
			return
		}
		if len(parts) != 2 {
			record(newErr(line, ErrIncomprehensible, "WAV needs waveform,voice, got %q", s.Operand))
			return
		}
		record(e.setWaveform(line, parts[0], parts[1]))

	case kwABS:
		record(e.markAbsolute(line))

	case kwJMP, kwJSR:
		id, err := parseIdentifier(line, s.Operand)
		if err != nil {
			record(err)
			return
		}
		record(e.jump(line, id, s.Keyword == kwJSR))

	case kwRTS:
		record(e.ret(line))

	case kwSUB:
		record(e.openSub(line))

	case kwESB:
		record(e.closeSub(line))

	case kwEND:
		record(e.end(line))
	}
}

// parseDecimal parses 1+ decimal digits, reporting overflow past a byte
// (spec.md §4.3: "Integer operand parsing accepts 1+ decimal digits and
// reports overflow if > 255").
func parseDecimal(line int, s string) (int, *CompileError) {
	if s == "" {
		return 0, newErr(line, ErrIncomprehensible, "missing operand")
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, newErr(line, ErrIncomprehensible, "expected decimal digits, got %q", s)
		}
		n = n*10 + int(c-'0')
		if n > 255 {
			return 0, newErr(line, ErrArgumentOutOfRange, "value %q overflows a byte", s)
		}
	}
	return n, nil
}

// parseIdentifier parses a JMP/JSR target operand, which must fall in the
// symbol table's 1..255 domain (spec.md §3: "a mapping from a 1..255
// identifier to an address"; §4.2: a digit run "introduces a numeric label
// (1..255)").
func parseIdentifier(line int, s string) (uint8, *CompileError) {
	n, err := parseDecimal(line, s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, newErr(line, ErrArgumentOutOfRange, "identifier %q out of range 1..255", s)
	}
	return uint8(n), nil
}

func splitCommaInts(line int, s string) ([]int, *CompileError) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := parseDecimal(line, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
