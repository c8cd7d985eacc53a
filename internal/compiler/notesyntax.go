package compiler

// noteSpec is a parsed note token, per spec.md §4.2's grammar:
//
//	[voice?] ( 'R' | pitch[octave?] ) duration
//	pitch    ::= [A-G] ('#' | '@')?
//	duration ::= [WHQEST] ('.' | '3')?
type noteSpec struct {
	Voice      int  // 1..4, 0 = unspecified
	IsRest     bool
	Letter     byte // 'A'..'G', unset if IsRest
	Accidental byte // '#', '@', or 0
	Octave     int  // 1..6, 0 = unspecified
	DurLetter  byte // 'W','H','Q','E','S','T'
	DurMod     byte // '.', '3', or 0
}

const durationLetters = "WHQEST"

func isDurationLetter(b byte) bool {
	for i := 0; i < len(durationLetters); i++ {
		if durationLetters[i] == b {
			return true
		}
	}
	return false
}

// parseNoteSpec parses one note token (already uppercased, no internal
// whitespace — the line tokenizer never lets whitespace inside a token).
// ok is false if tok isn't shaped like a note at all, in which case the
// caller should report "incomprehensible specification".
func parseNoteSpec(tok string) (spec noteSpec, ok bool) {
	if len(tok) == 0 {
		return spec, false
	}
	i := 0

	if tok[i] >= '1' && tok[i] <= '4' {
		spec.Voice = int(tok[i] - '0')
		i++
	}
	if i >= len(tok) {
		return spec, false
	}

	if tok[i] == 'R' {
		spec.IsRest = true
		i++
	} else if tok[i] >= 'A' && tok[i] <= 'G' {
		spec.Letter = tok[i]
		i++
		if i < len(tok) && (tok[i] == '#' || tok[i] == '@') {
			spec.Accidental = tok[i]
			i++
		}
		if i < len(tok) && tok[i] >= '1' && tok[i] <= '6' {
			spec.Octave = int(tok[i] - '0')
			i++
		}
	} else {
		return spec, false
	}

	if i >= len(tok) || !isDurationLetter(tok[i]) {
		return spec, false
	}
	spec.DurLetter = tok[i]
	i++
	if i < len(tok) && (tok[i] == '.' || tok[i] == '3') {
		spec.DurMod = tok[i]
		i++
	}

	if i != len(tok) {
		return spec, false
	}
	return spec, true
}
