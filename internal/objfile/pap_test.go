package objfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPAPWriter_FrameAndTrailingChecksum(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03, 0x04}
	var out bytes.Buffer
	require.NoError(t, PAPWriter{}.Write(code, 0x1000, &out))

	buf := out.Bytes()
	require.Len(t, buf, 4+len(code)+1)
	assert.Equal(t, uint16(len(code)), binary.LittleEndian.Uint16(buf[0:2]))
	assert.Equal(t, uint16(0x1000), binary.LittleEndian.Uint16(buf[2:4]))
	assert.Equal(t, code, buf[4:4+len(code)])
	assert.Equal(t, byte(checksum(code)&0xFF), buf[len(buf)-1])
}

func TestPAPWriter_EmptyCodeStillWritesFrame(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, PAPWriter{}.Write(nil, 0, &out))
	assert.Equal(t, 5, out.Len())
}
