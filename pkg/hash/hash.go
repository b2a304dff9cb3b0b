// Package hash provides the substrate's content-addressing primitive: a
// deterministic, collision-resistant 128-bit digest over typed byte
// sequences.  Every Atom, Composition, Relation, and Physicality identity in
// the system is a Digest produced by this package — identity is a pure
// function of content.
package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"runtime"
	"sync"

	"github.com/zeebo/blake3"
)

// Size is the length in bytes of a Digest. The substrate uses a 128-bit
// identifier space, truncated from BLAKE3's native 256-bit output.
const Size = 16

// Digest is a 128-bit content hash. It is the identifier type for every
// entity kind in the substrate (Atom, Composition, Relation, Physicality).
type Digest [Size]byte

// String renders the digest as a lowercase hex string.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Parse decodes a hex string produced by Digest.String back into a Digest.
// It is the inverse used wherever a digest round-trips through a text
// representation (OpenSearch document ids, CLI arguments, log lines).
func Parse(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("hash: %w", err)
	}
	if len(b) != Size {
		return d, fmt.Errorf("hash: decoded digest has length %d, want %d", len(b), Size)
	}
	copy(d[:], b)
	return d, nil
}

// IsZero reports whether d is the all-zero digest, which never occurs for a
// genuinely hashed value and is used as the "absent" sentinel in lookup
// results.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Less reports whether d sorts strictly before other under byte-lexicographic
// comparison. This is the canonicalization order used when forming a
// Relation from an unordered pair of Compositions.
func (d Digest) Less(other Digest) bool {
	for i := range d {
		if d[i] != other[i] {
			return d[i] < other[i]
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Type tags for the wire-bytes identity scheme ( "Wire bytes for
// identity").
// ─────────────────────────────────────────────────────────────────────────────

const (
	TagAtom           byte = 0x41 // 'A'
	TagComposition    byte = 0x43 // 'C'
	TagCompositionSeq byte = 0x53 // 'S'
	TagRelation       byte = 0x52 // 'R'
	TagRelationSeq    byte = 0x54 // 'T'
	TagPhysicality    byte = 0x50 // 'P'
)

// Sum computes the 128-bit content hash of b: a BLAKE3 digest of b truncated
// to Size bytes. Sum is the building block every entity-identity function in
// internal/domain/substrate composes its tagged input around.
func Sum(b []byte) Digest {
	full := blake3.Sum256(b)
	var d Digest
	copy(d[:], full[:Size])
	return d
}

// Codepoint hashes a single Unicode codepoint the way an Atom derives its
// identity: H(0x41 ‖ u32_le(codepoint)).
func Codepoint(cp uint32) Digest {
	buf := make([]byte, 5)
	buf[0] = TagAtom
	binary.LittleEndian.PutUint32(buf[1:], cp)
	return Sum(buf)
}

// Concat hashes the concatenation of every part without allocating an
// intermediate byte slice larger than necessary; it streams each part into a
// single BLAKE3 hasher via Streamer. Callers that already hold a single
// contiguous buffer should prefer Sum.
func Concat(parts ...[]byte) Digest {
	s := NewStreamer()
	for _, p := range parts {
		s.Write(p)
	}
	return s.Finalize()
}

// ─────────────────────────────────────────────────────────────────────────────
// Streamer — init/update/finalize hashing, per "streamable"
// contract.
// ─────────────────────────────────────────────────────────────────────────────

// Streamer is a resettable, streaming BLAKE3 hasher truncated to Size-byte
// output on Finalize. It satisfies io.Writer so identity-derivation code can
// feed tag bytes and field bytes incrementally instead of building one large
// slice per call.
type Streamer struct {
	h *blake3.Hasher
}

// NewStreamer returns a Streamer ready to accept Write calls.
func NewStreamer() *Streamer {
	return &Streamer{h: blake3.New()}
}

// Write implements io.Writer. It never returns an error; BLAKE3's sponge
// construction cannot fail on well-formed input.
func (s *Streamer) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

// Finalize returns the truncated digest of everything written so far and
// resets the Streamer so it can be reused for the next entity.
func (s *Streamer) Finalize() Digest {
	full := s.h.Sum(nil)
	var d Digest
	copy(d[:], full[:Size])
	s.h.Reset()
	return d
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch hashing — parallel over independent inputs with deterministic
// output order.
// ─────────────────────────────────────────────────────────────────────────────

// SumBatch hashes each element of inputs concurrently using a fixed worker
// pool sized to GOMAXPROCS, and returns digests in the same order as inputs.
// Each input is hashed independently, so output order is deterministic
// regardless of goroutine scheduling.
func SumBatch(inputs [][]byte) []Digest {
	out := make([]Digest, len(inputs))
	if len(inputs) == 0 {
		return out
	}

	var wg sync.WaitGroup
	jobs := make(chan int, len(inputs))
	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	workers := batchWorkerCount(len(inputs))
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = Sum(inputs[i])
			}
		}()
	}
	wg.Wait()
	return out
}

// batchWorkerCount bounds the number of goroutines SumBatch spawns to the
// smaller of the input count and GOMAXPROCS, avoiding goroutine churn for
// small batches.
func batchWorkerCount(n int) int {
	max := runtime.GOMAXPROCS(0)
	if n < max {
		return n
	}
	return max
}
