package objfile

import (
	"encoding/binary"
	"io"
)

// PAPWriter writes a minimal "paper-tape" framed container: a length word,
// a base-address word, the raw payload, and a trailing checksum byte.
// Modeled on internal/rom.ROMBuilder's header-then-payload layout, shrunk to
// the two fields a tape loader actually needs before it starts reading.
type PAPWriter struct{}

func (PAPWriter) Write(code []byte, baseAddress uint16, w io.Writer) error {
	frame := make([]byte, 4)
	binary.LittleEndian.PutUint16(frame[0:2], uint16(len(code)))
	binary.LittleEndian.PutUint16(frame[2:4], baseAddress)

	if _, err := w.Write(frame); err != nil {
		return err
	}
	if _, err := w.Write(code); err != nil {
		return err
	}

	sum := checksum(code) & 0xFF
	_, err := w.Write([]byte{byte(sum)})
	return err
}
