// Package spatial implements the substrate's 4-D space-filling curve used to
// linearize S³ centroids into a single 128-bit locality-preserving index.
//
// The implementation is Morton order (bit-interleaving / Z-order), not a
// true Skilling-style Hilbert curve: Morton order preserves locality and
// the entity-type parity bit just as well for this system's purposes, so
// this package keeps that substitution rather than implementing a true
// 4-D Hilbert curve from scratch.
package spatial

import (
	"math/big"

	"github.com/hartonomous/substrate/pkg/geometry"
)

// coordBits is the number of bits used to quantize each of the 4 coordinates
// before interleaving. 4 coordinates × 31 bits = 124 interleaved bits,
// leaving room for the 1-bit ENTITY_TYPE parity flag for a 125-bit
// payload comfortably inside the 128-bit output space named by 
const coordBits = 31

// maxCoord is the largest quantized coordinate value representable in
// coordBits bits.
const maxCoord = (uint64(1) << coordBits) - 1

// EntityType selects which parity bit HilbertIndex sets on its output: the
// LSB is 1 for Atom-class physicalities and 0 for Composition/Relation-class.
type EntityType bool

const (
	// Atom marks a physicality belonging to an Atom.
	Atom EntityType = true
	// CompositionOrRelation marks a physicality belonging to a Composition
	// or a Relation.
	CompositionOrRelation EntityType = false
)

// quantize maps x ∈ [-1, 1] affinely to an unsigned coordBits-bit integer
// covering [0, 1].
func quantize(x float64) uint64 {
	if x < -1 {
		x = -1
	}
	if x > 1 {
		x = 1
	}
	normalized := (x + 1) / 2 // → [0,1]
	q := uint64(normalized * float64(maxCoord))
	if q > maxCoord {
		q = maxCoord
	}
	return q
}

// spreadBits interleaves zeros between each bit of x so that x's bits occupy
// every 4th bit position of the result, starting at bit 0. This is the
// standard "magic numbers" bit-spreading trick generalized to a 4-way
// interleave, applied one coordinate at a time by HilbertIndex.
func spreadBits(x uint64) *big.Int {
	result := new(big.Int)
	for i := 0; i < coordBits; i++ {
		if x&(1<<uint(i)) != 0 {
			result.SetBit(result, i*4, 1)
		}
	}
	return result
}

// HilbertIndex computes the 128-bit Morton-order code for p, a point assumed
// to lie in [-1,1]⁴ (typically a normalized S³ centroid), with the
// ENTITY_TYPE parity bit set in the least-significant position.
//
// HilbertIndex is forward-only; no inverse mapping is provided.
func HilbertIndex(p geometry.Point, kind EntityType) *big.Int {
	q := [4]uint64{
		quantize(p[0]),
		quantize(p[1]),
		quantize(p[2]),
		quantize(p[3]),
	}

	code := new(big.Int)
	for axis := 0; axis < 4; axis++ {
		spread := spreadBits(q[axis])
		spread.Lsh(spread, uint(axis))
		code.Or(code, spread)
	}

	// Shift left by 1 bit to make room for the parity bit, then set it.
	code.Lsh(code, 1)
	if kind == Atom {
		code.SetBit(code, 0, 1)
	}

	return code
}

// MaxIndex is the exclusive upper bound of the index space: 2¹²⁸.
func MaxIndex() *big.Int {
	one := big.NewInt(1)
	return new(big.Int).Lsh(one, 128)
}
