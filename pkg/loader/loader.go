// Package loader reads a UM program file into a word slice suitable
// for mapping as segment 0.
package loader

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ErrTruncated indicates the input's byte length is not a multiple of
// four, so it cannot be a tightly packed stream of 32-bit words.
var ErrTruncated = fmt.Errorf("loader: program length is not a multiple of 4 bytes")

// Load reads all of r and decodes it as a tightly packed, big-endian
// stream of 32-bit words, one word per instruction, in file order. A
// length that is not a non-negative multiple of four is reported as
// ErrTruncated; any other read failure (missing file, permission
// denied, I/O error) is returned as surfaced by r.
func Load(r io.Reader) ([]uint32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, ErrTruncated
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(raw[i*4 : i*4+4])
	}
	return words, nil
}
