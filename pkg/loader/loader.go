// Package loader turns a raw program image into the word stream the
// core simulator's ROM expects.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when the image length is not a multiple of 4
// bytes, so the final word would be partial.
var ErrTruncated = errors.New("loader: image length is not a multiple of 4 bytes")

// LoadWords groups a little-endian byte image into 32-bit words, the
// format core.ROM.Load expects.
func LoadWords(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTruncated, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return words, nil
}
