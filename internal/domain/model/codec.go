package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrBadVectorEncoding is returned when a blob is not a whole number of float32 values.
var ErrBadVectorEncoding = errors.New("bad vector encoding")

const float32Size = 4

// EncodeVector packs v as little-endian float32 values.
func EncodeVector(v Vector) []byte {
	out := make([]byte, len(v)*float32Size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*float32Size:], math.Float32bits(f))
	}
	return out
}

// DecodeVector unpacks a blob written by EncodeVector.
func DecodeVector(b []byte) (Vector, error) {
	if len(b)%float32Size != 0 {
		return nil, fmt.Errorf("%d bytes: %w", len(b), ErrBadVectorEncoding)
	}
	v := make(Vector, len(b)/float32Size)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*float32Size:]))
	}
	return v, nil
}
