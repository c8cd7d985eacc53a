package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notran/internal/config"
)

func compile(t *testing.T, source string) *Result {
	t.Helper()
	return Compile(source, config.DefaultCompilerOptions(), nil)
}

// Scenario 1: NVC4, activate all four voices, a C4 quarter note on each voice
// (closing the event), END. Establishes the baseline long-note-absolute
// encoding, checked on voice 1's note.
func TestCompile_FirstNoteIsLongAbsolute(t *testing.T) {
	r := compile(t, " NVC4 ACT1,2,3,4 1C4Q 2C4Q 3C4Q 4C4Q\n END\n")
	require.True(t, r.OK, "%v", r.Errors)

	// NVC4: 0x50 0x04
	assert.Equal(t, byte(0x50), r.Code[0])
	assert.Equal(t, byte(0x04), r.Code[1])

	// ACT1..4: four (0x90, voice-1) pairs.
	for i := 0; i < 4; i++ {
		off := 2 + i*2
		assert.Equal(t, byte(0x90), r.Code[off])
		assert.Equal(t, byte(i), r.Code[off+1])
	}

	// 1C4Q: long-note-absolute, voice 1, pitch class C natural octave 4 ->
	// absolute pitch 37, duration Q -> code 6.
	noteOff := 2 + 4*2
	assert.Equal(t, byte(0x60), r.Code[noteOff])
	assert.Equal(t, byte(37*2), r.Code[noteOff+1])
	assert.Equal(t, byte(0x06), r.Code[noteOff+2]) // waveform 0, duration code 6

	// END: 0x00
	assert.Equal(t, byte(0x00), r.Code[len(r.Code)-1])
}

// Scenario 2: a second note on the same voice within 7 semitones of the last
// pitch encodes as a 1-byte short note.
func TestCompile_SubsequentCloseNoteIsShort(t *testing.T) {
	r := compile(t, " NVC1 ACT1 1C4Q\n D4Q\n END\n")
	require.True(t, r.OK, "%v", r.Errors)

	// D4 is absolute pitch 39; delta from C4 (37) is +2.
	last := r.Code[len(r.Code)-2] // byte before END
	assert.Equal(t, byte(0x26), last, "short note: delta=2, duration code=6")
}

// Scenario 3: REST on an active voice emits DEACTIVATE's opcode with a
// nonzero duration nibble.
func TestCompile_RestEncodesAsNonzeroLowNibbleOnDeactivateOpcode(t *testing.T) {
	r := compile(t, " NVC1 ACT1 1RQ\n END\n")
	require.True(t, r.OK, "%v", r.Errors)
	assert.Equal(t, byte(0x86), r.Code[4])
}

// Scenario 4: a delta of more than 7 semitones forces a long-note-absolute
// even though the voice isn't in absolute mode.
func TestCompile_LargeDeltaForcesLongNote(t *testing.T) {
	// Unvoiced "C6Q" continues voice 1 implicitly.
	r := compile(t, " NVC1 ACT1 1C4Q\n C6Q\n END\n")
	require.True(t, r.OK, "%v", r.Errors)

	// C6 is absolute pitch 61; the encoding must be long (3 bytes), not a
	// 1-byte short note, since 61-37=24 is far outside -7..7.
	idx := len(r.Code) - 1 - 3 // 3 bytes before END
	assert.Equal(t, byte(0x60), r.Code[idx])
	assert.Equal(t, byte(61*2), r.Code[idx+1])
}

// Scenario 5: two simultaneous voices form one event and each gets its own
// note before the event closes.
func TestCompile_TwoVoiceEventClosesTogether(t *testing.T) {
	r := compile(t, " NVC2 ACT1,2 1C4Q 2E4Q\n END\n")
	require.True(t, r.OK, "%v", r.Errors)
	// Both notes present: voice 1's long-note-absolute then voice 2's.
	assert.Equal(t, byte(0x60), r.Code[6])
	assert.Equal(t, byte(0x60), r.Code[9])
}

// Scenario 6: a keyword used while an event is still open is an error, and
// the event is force-closed so compilation continues.
func TestCompile_KeywordInOpenEventIsError(t *testing.T) {
	r := compile(t, " NVC2 ACT1,2 1C4Q TPO100\n END\n")
	require.False(t, r.OK)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrExecControlInEvent, r.Errors[0].Kind)
}

func TestCompile_LabelAndJump(t *testing.T) {
	r := compile(t, " NVC1 ACT1\n10 1C4Q\n JMP10\n END\n")
	require.True(t, r.OK, "%v", r.Errors)
	require.Contains(t, r.Labels, uint8(10))
}

func TestCompile_UndefinedIdentifierIsReported(t *testing.T) {
	r := compile(t, " NVC1 ACT1 JMP99\n END\n")
	require.False(t, r.OK)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrUndefinedIdentifier, r.Errors[0].Kind)
}

func TestCompile_SubEsbBackpatch(t *testing.T) {
	r := compile(t, " NVC1 ACT1\n SUB\n C4Q\n ESB\n END\n")
	require.True(t, r.OK, "%v", r.Errors)
	// NVC1 (2 bytes) + ACT1 (2 bytes) = offset 4, where SUB's 3-byte JUMP
	// placeholder starts; its operand lives at offset 5-6. The patched
	// target must point past the note bytes emitted between SUB and ESB.
	target := uint16(r.Code[5]) | uint16(r.Code[6])<<8
	assert.Equal(t, uint16(4+3+3), target)
}

func TestCompile_NestedSubIsError(t *testing.T) {
	r := compile(t, " NVC1 ACT1\n SUB\n SUB\n ESB\n END\n")
	require.False(t, r.OK)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrNestedSub, r.Errors[0].Kind)
}

func TestCompile_HangingSubIsReportedAtEnd(t *testing.T) {
	r := compile(t, " NVC1 ACT1\n SUB\n C4Q\n END\n")
	require.False(t, r.OK)
	found := false
	for _, e := range r.Errors {
		if e.Kind == ErrHangingSub {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompile_VoiceOutOfRangeIsArgumentOutOfRange(t *testing.T) {
	r := compile(t, " NVC1 ACT5\n END\n")
	require.False(t, r.OK)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrArgumentOutOfRange, r.Errors[0].Kind)
}

func TestCompile_IllegalDurationIsReported(t *testing.T) {
	r := compile(t, " NVC1 ACT1 1C4W3\n END\n")
	require.False(t, r.OK)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrIllegalDuration, r.Errors[0].Kind)
}

func TestCompile_CommentAndBlankLinesProduceNoCode(t *testing.T) {
	r := compile(t, "* this is a comment\n\n NVC1 ACT1 1C4Q\n END\n")
	require.True(t, r.OK, "%v", r.Errors)
	// Compilation stops at END, so the trailing blank line after it never
	// reaches the listing.
	assert.Equal(t, 4, len(r.Listing))
}

func TestCompile_MalformedLineIsReported(t *testing.T) {
	// "TPO5" begins at column 0 with no leading whitespace and no label
	// digit or comment marker, so it has no grammar to land in.
	r := compile(t, " NVC1 ACT1 1C4Q\nTPO5\n END\n")
	require.False(t, r.OK)
	assert.Equal(t, ErrIncomprehensible, r.Errors[0].Kind)
}

func TestCompile_ListingRecordsStartOffsetPerLine(t *testing.T) {
	// Unvoiced "C4Q" continues voice 1 implicitly.
	r := compile(t, " NVC1 ACT1\n C4Q\n END\n")
	require.True(t, r.OK, "%v", r.Errors)
	require.Len(t, r.Listing, 3)
	assert.Equal(t, uint16(0), r.Listing[0].StartOffset)
	assert.Equal(t, uint16(4), r.Listing[1].StartOffset)
	assert.Equal(t, uint16(7), r.Listing[2].StartOffset)
}
