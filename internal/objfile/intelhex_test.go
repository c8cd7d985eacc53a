package objfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntelHexWriter_SingleByteRecordAndEOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, IntelHexWriter{}.Write([]byte{0x00}, 0, &out))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ":0100000000ff", lines[0])
	assert.Equal(t, ":00000001ff", lines[1])
}

func TestIntelHexWriter_SplitsAcrossMultipleRecords(t *testing.T) {
	code := make([]byte, bytesPerRecord+1)
	var out bytes.Buffer
	require.NoError(t, IntelHexWriter{}.Write(code, 0, &out))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	// 16 bytes in record 1, 1 byte in record 2, plus EOF.
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], ":10000000"))
	assert.True(t, strings.HasPrefix(lines[1], ":01001000"))
	assert.Equal(t, ":00000001ff", lines[2])
}
