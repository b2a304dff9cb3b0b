// Package geometry implements the substrate's spatial primitives on the unit
// 3-sphere S³ ⊂ ℝ⁴: normalization, geodesic distance, the Super-Fibonacci
// low-discrepancy sequence used to semantically seed the Unicode codespace,
// and the Hopf fibration S³ → S² used by downstream visualisation and
// dimensionality-reduced spatial indexing.
package geometry

import "math"

// Point is a point in ℝ⁴. When it lies on S³ (‖Point‖₂ = 1), it represents a
// valid centroid, trajectory sample, or seed position in the substrate.
type Point [4]float64

// degenerateEpsilon is the norm threshold below which a vector sum is
// treated as degenerate: if the sum has near-zero norm, the centroid is
// the canonical point (1,0,0,0).
const degenerateEpsilon = 1e-15

// CanonicalPoint is the fallback centroid for degenerate (near-zero-norm)
// vector sums.
var CanonicalPoint = Point{1, 0, 0, 0}

// Dot returns the Euclidean inner product of a and b.
func Dot(a, b Point) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// Norm returns the Euclidean (L2) length of p.
func Norm(p Point) float64 {
	return math.Sqrt(Dot(p, p))
}

// Add returns the component-wise sum of a and b.
func Add(a, b Point) Point {
	return Point{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

// Scale returns p scaled by s.
func Scale(p Point, s float64) Point {
	return Point{p[0] * s, p[1] * s, p[2] * s, p[3] * s}
}

// clamp restricts x to the closed interval [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Normalize returns p / ‖p‖. If ‖p‖ is below degenerateEpsilon, Normalize
// returns CanonicalPoint rather than dividing by (near) zero.
func Normalize(p Point) Point {
	n := Norm(p)
	if n < degenerateEpsilon {
		return CanonicalPoint
	}
	return Scale(p, 1/n)
}

// Centroid returns the normalized vector sum of pts: normalize(Σ pts).
// Used to derive a Composition's centroid from its atom positions and a
// Relation's centroid from its two endpoint centroids.
func Centroid(pts ...Point) Point {
	var sum Point
	for _, p := range pts {
		sum = Add(sum, p)
	}
	return Normalize(sum)
}

// Geodesic returns the great-circle arc length between a and b on S³:
// arccos(clamp(a·b, -1, 1)), in the range [0, π]. Geodesic(p, p) == 0 for any
// unit point p (up to floating-point rounding at the clamp boundary).
func Geodesic(a, b Point) float64 {
	return math.Acos(clamp(Dot(a, b), -1, 1))
}

// ─────────────────────────────────────────────────────────────────────────────
// Super-Fibonacci spiral — deterministic low-discrepancy sampling of S³.
// ─────────────────────────────────────────────────────────────────────────────

// Irrational constants driving the Super-Fibonacci spiral: the golden ratio
// φ and the plastic constant ψ ≈ 1.32471795724 (the real root of x³ = x + 1).
// Their mutual irrationality is what gives the sequence its low-discrepancy
// (near-uniform, non-repeating) coverage of S³.
const (
	goldenRatio     = 1.6180339887498948482
	plasticConstant = 1.3247179572447458

	twoPi = 2 * math.Pi
)

// SuperFibonacci returns the i-th point (0-indexed) of a deterministic,
// low-discrepancy sequence of N points on S³. The construction follows the
// canonical Super-Fibonacci spiral: two independent angular sweeps driven
// by φ and ψ parameterize a pair of 2D phase pairs that
// are combined into a unit 4-vector.
//
// Guarantees: the result always has unit norm; SuperFibonacci(i, N) is a
// pure function of its arguments (same inputs always yield the same point);
// for N ≥ 2 the minimum pairwise geodesic distance across i∈[0,N) is
// positive (no two seed points coincide).
func SuperFibonacci(i, n int) Point {
	if n < 1 {
		n = 1
	}
	fi := float64(i) + 0.5

	// s parameterizes the "latitude" split between the two 2D rotation
	// planes; it ranges over (0,1) and determines how much of the unit norm
	// budget each plane receives.
	s := fi / float64(n)
	r := math.Sqrt(s)
	rc := math.Sqrt(1 - s)

	alpha := twoPi * fi / goldenRatio
	beta := twoPi * fi / plasticConstant

	return Point{
		r * math.Sin(alpha),
		r * math.Cos(alpha),
		rc * math.Sin(beta),
		rc * math.Cos(beta),
	}
}

// SuperFibonacciSequence returns the first n points of the Super-Fibonacci
// spiral, i.e. SuperFibonacci(0, n)..SuperFibonacci(n-1, n). It is a
// convenience for callers (e.g. internal/ucd) that need the whole seed
// sequence rather than a single index.
func SuperFibonacciSequence(n int) []Point {
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = SuperFibonacci(i, n)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Hopf fibration — S³ → S².
// ─────────────────────────────────────────────────────────────────────────────

// Point2 is a point on S² ⊂ ℝ³.
type Point2 [3]float64

// HopfForward applies the standard Hopf map to p ∈ S³, collapsing each fiber
// (the circle of points reachable from p by a right complex phase rotation)
// to a single point on S². Viewing p = (x0,x1,x2,x3) as two complex numbers
// z = x0 + i·x1 and w = x2 + i·x3 (with |z|²+|w|²=1), the map is:
//
//	(a, b, c) = (|z|² − |w|², 2·Re(z·w̄), 2·Im(z·w̄))
//
// The forward map is canonical; its inverse is a one-parameter family
// indexed by the fiber angle. HopfInverse below provides
// one such lift, used only by internal/ucd's deterministic seeding walk —
// it is not a general-purpose inverse for arbitrary callers.
func HopfForward(p Point) Point2 {
	x0, x1, x2, x3 := p[0], p[1], p[2], p[3]

	// z*conj(w) where z=x0+i x1, w=x2+i x3 → conj(w)=x2-i x3
	reZW := x0*x2 + x1*x3
	imZW := x1*x2 - x0*x3

	zNormSq := x0*x0 + x1*x1
	wNormSq := x2*x2 + x3*x3

	return Point2{zNormSq - wNormSq, 2 * reZW, 2 * imZW}
}

// HopfInverse lifts a point on S² back to one point on its S³ fiber circle,
// selecting the specific preimage at fiberAngle (the inverse is a
// one-argument family parameterized by fiber angle). Given
// p = (x, y, z) ∈ S², it constructs z₁ = r₁·e^(iθ), z₂ = r₂·e^(i(θ-φ)) with
// r₁² = (1+x)/2, r₂² = (1-x)/2, φ = atan2(z, y), returning (Re z₁, Im z₁,
// Re z₂, Im z₂) ∈ S³.
func HopfInverse(p Point2, fiberAngle float64) Point {
	x, y, z := p[0], p[1], p[2]

	r1 := math.Sqrt(math.Max(0, (1+x)/2))
	r2 := math.Sqrt(math.Max(0, (1-x)/2))
	phase := math.Atan2(z, y)

	theta1 := fiberAngle
	theta2 := fiberAngle - phase

	return Point{
		r1 * math.Cos(theta1),
		r1 * math.Sin(theta1),
		r2 * math.Cos(theta2),
		r2 * math.Sin(theta2),
	}
}

// FibonacciLatticeS2 returns the i-th point (0-indexed, midpoint rule) of the
// classic golden-angle Fibonacci lattice on S² ⊂ ℝ³: N near-uniformly spaced
// points with longitude driven by the golden ratio φ.
func FibonacciLatticeS2(i, n int) Point2 {
	if n < 1 {
		n = 1
	}
	t := (float64(i) + 0.5) / float64(n)

	y := 1 - 2*t
	radius := math.Sqrt(math.Max(0, 1-y*y))
	theta := twoPi * t * goldenRatio

	return Point2{radius * math.Cos(theta), y, radius * math.Sin(theta)}
}

// HopfLiftedFibonacci returns the i-th point (0-indexed) of the Hopf-lifted
// Fibonacci lattice used for UCD codepoint seeding: a golden-angle
// Fibonacci lattice on S² lifted to S³ via HopfInverse, with the fiber
// angle itself swept by the plastic constant ψ so the S¹ fiber phase is
// irrationally decoupled from the S² longitude. This is distinct from
// SuperFibonacci (used for general low-discrepancy S³ sampling, e.g. the
// Voronoi cell estimator): HopfLiftedFibonacci is specifically the
// total-order-preserving embedding C4 assigns to semantically sequenced
// codepoints, since it maps a 1-D index monotonically through a 2-D lattice
// before lifting, matching the original Unicode-seeding pipeline's
// node-generation step.
func HopfLiftedFibonacci(i, n int) Point {
	if n < 1 {
		n = 1
	}
	t := (float64(i) + 0.5) / float64(n)
	s2 := FibonacciLatticeS2(i, n)
	fiberAngle := twoPi * t * plasticConstant
	return HopfInverse(s2, fiberAngle)
}
