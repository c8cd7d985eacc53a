package synth

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notran/internal/isa"
)

func TestEngine_PhaseWrapsModulo65536(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	tables := [][256]byte{{}}
	e.Voices[0].FreqIncrement = 0x8000
	e.Voices[0].Phase = 0xC000
	e.Voices[0].RemainingDuration = 10

	require.NoError(t, e.RenderSamples(tables, 1, &bytes.Buffer{}))
	assert.Equal(t, uint16(0x4000), e.Voices[0].Phase, "0xC000+0x8000 must wrap mod 2^16")
}

func TestEngine_SaturatingMixClampsTo255(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.Activate(1)
	e.Voices[0].FreqIncrement = 1
	e.Voices[1].FreqIncrement = 1
	tables := [][256]byte{{0: 200}, {0: 200}}
	e.Voices[0].WavetableIndex = 0
	e.Voices[1].WavetableIndex = 1

	var out bytes.Buffer
	require.NoError(t, e.RenderSamples(tables, 1, &out))
	assert.Equal(t, byte(255), out.Bytes()[0])
}

func TestEngine_SilentVoiceContributesNothing(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.Voices[0].FreqIncrement = 0
	tables := [][256]byte{{0: 255}}

	var out bytes.Buffer
	require.NoError(t, e.RenderSamples(tables, 1, &out))
	assert.Equal(t, byte(0), out.Bytes()[0])
}

func TestEngine_AssignNoteLooksUpFrequencyIncrement(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.AssignNote(0, 0, 37*2, 48, 1)
	assert.Equal(t, isa.FrequencyIncrements[37], e.Voices[0].FreqIncrement)
}

func TestEngine_AssignNoteRestIsSilent(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.AssignNote(0, 0, 0, 48, 1)
	assert.Equal(t, uint16(0), e.Voices[0].FreqIncrement)
}

func TestEngine_AssignNoteOutOfRangeWavetableSilencesAndLogs(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.AssignNote(0, 5, 37*2, 48, 1) // only 1 table loaded, index 5 invalid
	assert.Equal(t, uint16(0), e.Voices[0].FreqIncrement)
}

func TestEngine_MinRemainingAndDecrement(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.Activate(1)
	e.Voices[0].RemainingDuration = 48
	e.Voices[1].RemainingDuration = 24

	min, ok := e.MinRemaining()
	require.True(t, ok)
	assert.Equal(t, uint8(24), min)

	e.DecrementActive(min)
	assert.Equal(t, uint8(24), e.Voices[0].RemainingDuration)
	assert.Equal(t, uint8(0), e.Voices[1].RemainingDuration)
}

func TestEngine_DeactivateResetsVoice(t *testing.T) {
	e := NewEngine(8772, nil)
	e.Activate(0)
	e.Voices[0].FreqIncrement = 123
	e.Deactivate(0)
	assert.False(t, e.Voices[0].Active())
	assert.Equal(t, uint16(0), e.Voices[0].FreqIncrement)
}
