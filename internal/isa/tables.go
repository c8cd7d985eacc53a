package isa

// Pitch letter → chromatic base index, per spec.md §4.2: A=10, B=12, C=1,
// D=3, E=5, F=6, G=8. '#' adds one semitone, '@' (flat) subtracts one.
var pitchLetterBase = map[byte]int{
	'A': 10,
	'B': 12,
	'C': 1,
	'D': 3,
	'E': 5,
	'F': 6,
	'G': 8,
}

// PitchClass resolves a letter (A-G) and an optional accidental ('#', '@',
// or 0 for natural) to its chromatic index. ok is false for an unknown
// letter or accidental.
func PitchClass(letter byte, accidental byte) (class int, ok bool) {
	base, known := pitchLetterBase[letter]
	if !known {
		return 0, false
	}
	switch accidental {
	case 0:
		return base, true
	case '#':
		return base + 1, true
	case '@':
		return base - 1, true
	default:
		return 0, false
	}
}

// MinAbsolutePitch and MaxAbsolutePitch bound the 1..61 absolute pitch range
// spec.md §4.2 requires ("octave*12 + pitch - 12" must lie in 1..61).
const (
	MinAbsolutePitch = 1
	MaxAbsolutePitch = 61
)

// AbsolutePitch computes octave*12 + pitchClass - 12.
func AbsolutePitch(octave, pitchClass int) int {
	return octave*12 + pitchClass - 12
}

// durationEntry is one legal (letter, modifier) duration spelling. The code
// assigned to each entry is simply its 1-based position in this table — the
// same ordering spec.md §4.2 lists the time-unit values in.
type durationEntry struct {
	letter byte
	mod    byte // 0 = none, '.' = dotted, '3' = triplet
	code   uint8
	units  uint16
}

var durationTable = []durationEntry{
	{'W', 0, 1, 192},
	{'W', '.', 2, 144},
	{'H', 0, 3, 96},
	{'H', '.', 4, 72},
	{'H', '3', 5, 64},
	{'Q', 0, 6, 48},
	{'Q', '.', 7, 36},
	{'Q', '3', 8, 32},
	{'E', 0, 9, 24},
	{'E', '.', 10, 18},
	{'E', '3', 11, 16},
	{'S', 0, 12, 12},
	{'S', '.', 13, 9},
	{'S', '3', 14, 8},
	{'T', 0, 15, 6},
}

// DurationCode looks up the code and time-unit value for a (letter, modifier)
// pair. ok is false for a letter outside W/H/Q/E/S/T or an unsupported
// modifier for that letter (e.g. "W3" or "T."), which spec.md §4.2 treats as
// duration code 0 — an error.
func DurationCode(letter, mod byte) (code uint8, units uint16, ok bool) {
	for _, e := range durationTable {
		if e.letter == letter && e.mod == mod {
			return e.code, e.units, true
		}
	}
	return 0, 0, false
}

// DurationUnits returns the time-unit value for an already-resolved duration
// code (1..15), as emitted in bytecode. Used by the interpreter, which only
// ever sees the code, never the source letters.
func DurationUnits(code uint8) (units uint16, ok bool) {
	if code == 0 || int(code) > len(durationTable) {
		return 0, false
	}
	return durationTable[code-1].units, true
}

// FrequencyIncrements is the 62-entry table mapping note id (absolute pitch,
// 0 = silence) to a 16-bit phase increment calibrated for SampleRateHz, per
// spec.md §4.6. Index i is addressed by note_offset/2 at runtime; since the
// compiler always emits note_offset = absolute_pitch*2, indexing this table
// directly by absolute pitch is equivalent to the runtime's /2 step.
//
// Table 0 is silence. Table 37 (absolute pitch 37, i.e. C4 — octave 4,
// natural C) is tuned to middle C, 261.6256 Hz; the rest follow the equal
// tempered chromatic scale, one semitone per table entry.
const SampleRateHz = 8772

var FrequencyIncrements = [62]uint16{
	0x0000, 0x00F4, 0x0103, 0x0112, 0x0123, 0x0134, 0x0146, 0x015A,
	0x016E, 0x0184, 0x019B, 0x01B3, 0x01CD, 0x01E9, 0x0206, 0x0224,
	0x0245, 0x0268, 0x028C, 0x02B3, 0x02DC, 0x0308, 0x0336, 0x0367,
	0x039A, 0x03D1, 0x040B, 0x0449, 0x048A, 0x04CF, 0x0519, 0x0566,
	0x05B8, 0x060F, 0x066C, 0x06CD, 0x0735, 0x07A3, 0x0817, 0x0892,
	0x0914, 0x099F, 0x0A31, 0x0ACC, 0x0B71, 0x0C1F, 0x0CD7, 0x0D9B,
	0x0E6A, 0x0F45, 0x102E, 0x1124, 0x1229, 0x133D, 0x1462, 0x1598,
	0x16E1, 0x183E, 0x19AF, 0x1B35, 0x1CD4, 0x1E8A,
}
