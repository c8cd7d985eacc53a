package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notran/internal/compiler"
	"notran/internal/config"
)

func mustCompile(t *testing.T, source string) []byte {
	t.Helper()
	r := compiler.Compile(source, config.DefaultCompilerOptions(), nil)
	require.True(t, r.OK, "%v", r.Errors)
	return r.Code
}

func TestRun_SingleNoteProducesExpectedSampleCount(t *testing.T) {
	code := mustCompile(t, " NVC1 ACT1 WAV1,1 TPO100 1C4Q\n END\n")
	ip := New(code, config.DefaultInterpreterOptions(), nil)

	tables := make([][256]byte, 1)
	for i := range tables[0] {
		tables[0][i] = 10
	}

	var out bytes.Buffer
	require.NoError(t, ip.Run(tables, &out, nil))

	// Q duration = 48 units; tempo 100 => 4800 samples for the one event.
	assert.Equal(t, 4800, out.Len())
}

func TestRun_CallReturnSymmetry(t *testing.T) {
	// SUB/ESB jumps around the inline subroutine body so label 1 is
	// resolvable (defined before JSR1, as the single-pass compiler
	// requires) while execution reaches JSR1 instead of falling into the
	// body on its own.
	code := mustCompile(t, " NVC1 ACT1\n SUB\n1 RTS\n ESB\n JSR1\n END\n")
	ip := New(code, config.DefaultInterpreterOptions(), nil)
	tables := make([][256]byte, 1)

	require.NoError(t, ip.Run(tables, &bytes.Buffer{}, nil))
}

func TestRun_JumpBudgetTerminatesNormally(t *testing.T) {
	code := mustCompile(t, " NVC1 ACT1\n1 JMP1\n")
	opts := config.InterpreterOptions{SampleRate: 8772, MaxJumps: 5}
	ip := New(code, opts, nil)
	tables := make([][256]byte, 1)

	err := ip.Run(tables, &bytes.Buffer{}, nil)
	require.NoError(t, err)
	assert.True(t, ip.terminated)
}

func TestRun_ReturnUnderflowIsFatal(t *testing.T) {
	code := mustCompile(t, " NVC1 ACT1 RTS\n END\n")
	ip := New(code, config.DefaultInterpreterOptions(), nil)
	tables := make([][256]byte, 1)

	err := ip.Run(tables, &bytes.Buffer{}, nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrCallStackUnderflow, rerr.Kind)
}

func TestDisassemble_RecordsOneEntryPerInstruction(t *testing.T) {
	code := mustCompile(t, " NVC1 ACT1 1C4Q\n END\n")
	entries, err := Disassemble(code, 0)
	require.NoError(t, err)

	var mnemonics []string
	for _, e := range entries {
		mnemonics = append(mnemonics, e.Mnemonic)
	}
	assert.Equal(t, []string{"NVC", "ACT", "NOTE", "END"}, mnemonics)
}

func TestRun_StopChannelHaltsBeforeNextEvent(t *testing.T) {
	code := mustCompile(t, " NVC1 ACT1 1C4Q\n END\n")
	ip := New(code, config.DefaultInterpreterOptions(), nil)
	tables := make([][256]byte, 1)

	stop := make(chan struct{})
	close(stop)
	require.NoError(t, ip.Run(tables, &bytes.Buffer{}, stop))
}
