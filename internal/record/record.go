// Package record implements the fixed-width binary layout shared with the
// legacy dataset files. All integers are little-endian int32, floats are
// IEEE-754 float32, and text fields are fixed-length byte arrays padded
// with NULs. Records are written back-to-back with no framing, so a store
// file is valid only when its size is an exact multiple of the record width.
package record

import (
	"bytes"
	"encoding/binary"
	"math"
)

// MaxPartySize is the number of reference slots in a trainer record. It is
// part of the on-disk layout and cannot be raised without a format change.
const MaxPartySize = 6

const (
	nameLen     = 50
	typeLen     = 20
	colorLen    = 20
	eggGroupLen = 20
	bodyLen     = 30
)

func putInt32(b []byte, off int, v int32) int {
	binary.LittleEndian.PutUint32(b[off:], uint32(v))
	return off + 4
}

func putFloat32(b []byte, off int, v float32) int {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
	return off + 4
}

// putString NUL-pads up to size; longer values are silently truncated,
// matching how the legacy writer filled these fields.
func putString(b []byte, off int, s string, size int) int {
	field := b[off : off+size]
	for i := range field {
		field[i] = 0
	}
	copy(field, s)
	return off + size
}

func getInt32(b []byte, off int) (int32, int) {
	return int32(binary.LittleEndian.Uint32(b[off:])), off + 4
}

func getFloat32(b []byte, off int) (float32, int) {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])), off + 4
}

func getString(b []byte, off, size int) (string, int) {
	field := b[off : off+size]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field), off + size
}
