// Package wavetable loads pre-built 256-byte waveform tables (spec.md §6)
// from a binary stream. It performs no synthesis of its own; tables are
// consumed exactly as supplied, matching the fixed-point engine in
// internal/synth, which indexes them with a single byte.
package wavetable

import (
	"fmt"
	"io"
)

// TableSize is the fixed size of one wavetable entry in bytes.
const TableSize = 256

// LoadSet reads r to completion and slices it into TableSize-byte tables.
// Table 0 is the first TableSize bytes read, table 1 the next, and so on.
func LoadSet(r io.Reader) ([][256]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("wavetable: read: %w", err)
	}
	if len(raw)%TableSize != 0 {
		return nil, fmt.Errorf("wavetable: stream length %d is not a multiple of %d", len(raw), TableSize)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("wavetable: stream is empty")
	}

	tables := make([][256]byte, len(raw)/TableSize)
	for i := range tables {
		copy(tables[i][:], raw[i*TableSize:(i+1)*TableSize])
	}
	return tables, nil
}
