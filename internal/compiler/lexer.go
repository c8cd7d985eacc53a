package compiler

import "strings"

// keyword is one of the fixed 3-letter uppercase control words spec.md §4.2
// names.
type keyword string

const (
	kwNVC keyword = "NVC"
	kwACT keyword = "ACT"
	kwDCT keyword = "DCT"
	kwWAV keyword = "WAV"
	kwTPO keyword = "TPO"
	kwABS keyword = "ABS"
	kwJMP keyword = "JMP"
	kwJSR keyword = "JSR"
	kwRTS keyword = "RTS"
	kwSUB keyword = "SUB"
	kwESB keyword = "ESB"
	kwEND keyword = "END"
)

var keywordSet = map[string]keyword{
	"NVC": kwNVC, "ACT": kwACT, "DCT": kwDCT, "WAV": kwWAV,
	"TPO": kwTPO, "ABS": kwABS, "JMP": kwJMP, "JSR": kwJSR,
	"RTS": kwRTS, "SUB": kwSUB, "ESB": kwESB, "END": kwEND,
}

// keywordTakesOperand reports whether a keyword takes an operand at all.
var keywordTakesOperand = map[keyword]bool{
	kwNVC: true, kwACT: true, kwDCT: true, kwWAV: true, kwTPO: true,
	kwABS: false, kwJMP: true, kwJSR: true, kwRTS: false,
	kwSUB: false, kwESB: false, kwEND: false,
}

// spec is one parsed specification from a source line: either a keyword
// (with its operand text, possibly empty) or a raw note token to be handed
// to parseNoteSpec.
type spec struct {
	IsKeyword bool
	Keyword   keyword
	Operand   string
	NoteToken string
}

// line is one fully tokenized source line.
type line struct {
	Number    int
	Raw       string
	IsComment bool
	IsBlank   bool
	HasLabel  bool
	Label     uint8
	LabelBad  bool // label value outside 1..255
	Specs     []spec
	Malformed bool // line didn't start with digit/'*'/whitespace
}

func isSpaceOrSemicolon(r byte) bool {
	return r == ' ' || r == '\t' || r == ';'
}

// tokenizeLine splits raw source text into a line structure, per spec.md
// §4.2's line model. It does not validate operand values — that's the
// emitter's job, against the compiler's live state.
func tokenizeLine(number int, raw string) line {
	l := line{Number: number, Raw: raw}

	trimmed := strings.TrimRight(raw, "\r\n")
	upper := strings.ToUpper(trimmed)

	if strings.TrimSpace(upper) == "" {
		l.IsBlank = true
		return l
	}

	firstNonSpace := 0
	for firstNonSpace < len(upper) && (upper[firstNonSpace] == ' ' || upper[firstNonSpace] == '\t') {
		firstNonSpace++
	}
	if firstNonSpace >= len(upper) {
		l.IsBlank = true
		return l
	}

	if upper[firstNonSpace] == '*' {
		l.IsComment = true
		return l
	}

	rest := upper
	if firstNonSpace == 0 && upper[0] >= '0' && upper[0] <= '9' {
		// Label: leading run of digits, bound to the current code offset.
		j := 0
		for j < len(upper) && upper[j] >= '0' && upper[j] <= '9' {
			j++
		}
		val := 0
		for k := 0; k < j; k++ {
			val = val*10 + int(upper[k]-'0')
			if val > 255 {
				l.LabelBad = true
			}
		}
		if val < 1 {
			l.LabelBad = true
		}
		l.HasLabel = true
		l.Label = uint8(val)
		rest = upper[j:]
	} else if firstNonSpace == 0 {
		// A line is either a label (digit run at column 0), a comment ('*'
		// at column 0), or content that begins with whitespace. Content
		// starting immediately at column 0 with neither a digit nor '*' has
		// no grammar to land in and is malformed.
		l.Malformed = true
		return l
	}

	l.Specs = splitSpecs(rest)
	return l
}

// splitSpecs breaks the remainder of a line (after any label) into
// specifications separated by spaces or ';', classifying each as a keyword
// (with its inline or following operand) or a raw note token.
func splitSpecs(rest string) []spec {
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return isSpaceOrSemicolon(byte(r))
	})

	var specs []spec
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if len(tok) >= 3 {
			if kw, known := keywordSet[tok[:3]]; known {
				operand := tok[3:]
				if operand == "" && keywordTakesOperand[kw] && i+1 < len(fields) {
					i++
					operand = fields[i]
				}
				specs = append(specs, spec{IsKeyword: true, Keyword: kw, Operand: operand})
				continue
			}
		}
		specs = append(specs, spec{NoteToken: tok})
	}
	return specs
}
