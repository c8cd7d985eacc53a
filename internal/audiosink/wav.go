package audiosink

import (
	"encoding/binary"
	"io"
)

const (
	wavHeaderSize   = 44
	wavChannels     = 1
	wavBitsPerSamp  = 8
	wavSampleFormat = 1 // PCM
)

// WavSink buffers samples in memory and emits a canonical 8-bit-PCM mono WAV
// file on Close. Grounded on internal/rom.ROMBuilder.BuildROM's pattern of
// assembling a header with encoding/binary and writing it ahead of the raw
// payload.
type WavSink struct {
	w          io.Writer
	sampleRate uint32
	samples    []byte
}

// NewWavSink creates a sink that writes a WAV file to w once Close is
// called.
func NewWavSink(w io.Writer, sampleRate uint32) *WavSink {
	return &WavSink{w: w, sampleRate: sampleRate}
}

func (s *WavSink) Write(samples []byte) (int, error) {
	s.samples = append(s.samples, samples...)
	return len(samples), nil
}

// Close assembles the RIFF/WAVE header and flushes header plus buffered
// samples to the underlying writer.
func (s *WavSink) Close() error {
	dataSize := uint32(len(s.samples))
	byteRate := s.sampleRate * wavChannels * (wavBitsPerSamp / 8)
	blockAlign := uint16(wavChannels * (wavBitsPerSamp / 8))

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavSampleFormat)
	binary.LittleEndian.PutUint16(header[22:24], wavChannels)
	binary.LittleEndian.PutUint32(header[24:28], s.sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], wavBitsPerSamp)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := s.w.Write(header); err != nil {
		return err
	}
	_, err := s.w.Write(s.samples)
	return err
}
