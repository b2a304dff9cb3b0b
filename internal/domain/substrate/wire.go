package substrate

import (
	"encoding/binary"
	"math"

	"github.com/hartonomous/substrate/pkg/hash"
)

// writeFloat64LE writes each value in vs to s as a little-endian IEEE 754
// double, matching "f64_le(...)" wire-bytes convention.
func writeFloat64LE(s *hash.Streamer, vs ...float64) {
	var buf [8]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		s.Write(buf[:])
	}
}

// writeUint32LE writes v to s as a little-endian u32, matching // "u32_le(...)" wire-bytes convention (used for ordinals and codepoints).
func writeUint32LE(s *hash.Streamer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	s.Write(buf[:])
}
