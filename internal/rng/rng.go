// Package rng implements the deterministic, platform-stable random number
// generator used everywhere in the simulation. Every draw is keyed by a
// small tuple (seed, round id, semantic location) so that two processes
// running the same match produce bit-identical results.
package rng

import "fmt"

// hashSeed is mixed into every key hash. Matches the fixed seed used by the
// reference byte-rotation hash so derived values land on the same sequence.
const hashSeed uint64 = 12345674357

// FroggyRand is a pure, stateless deterministic generator. It carries no
// mutable state: every method derives its output solely from the receiver's
// seed and the key(s) passed in, so the same (seed, key) pair always yields
// the same value regardless of call order or process.
type FroggyRand struct {
	seed uint64
}

// New builds a generator from an arbitrary set of key parts, hashed into a
// single seed the same way every other key in this package is hashed.
func New(parts ...interface{}) FroggyRand {
	return FroggyRand{seed: hashParts(parts)}
}

// FromSeed builds a generator directly from a raw 64-bit seed, skipping the
// hash step. Used when the caller already holds a match seed.
func FromSeed(seed uint64) FroggyRand {
	return FroggyRand{seed: seed}
}

// Seed returns the raw seed backing this generator.
func (r FroggyRand) Seed() uint64 {
	return r.seed
}

// Sub derives a new generator scoped under this one by an additional key,
// e.g. rng.Sub("round", roundID).Sub("row", rowID).
func (r FroggyRand) Sub(parts ...interface{}) FroggyRand {
	return FroggyRand{seed: r.seed ^ hashParts(parts)}
}

// Gen returns the raw 64-bit draw for a key.
func (r FroggyRand) Gen(parts ...interface{}) uint64 {
	return splitMix64(r.seed + hashParts(parts))
}

// GenUnit returns a float64 in [0, 1) derived from the key.
func (r FroggyRand) GenUnit(parts ...interface{}) float64 {
	const resolution = 1_000_000
	return float64(r.Gen(parts...)%resolution) / float64(resolution)
}

// GenRange returns an integer in [min, max) derived from the key. Panics if
// max <= min, matching the source's unchecked modulo-by-range behaviour
// becoming a crash rather than an infinite loop.
func (r FroggyRand) GenRange(min, max int64, parts ...interface{}) int64 {
	if max <= min {
		panic(fmt.Sprintf("rng: GenRange requires max > min, got [%d, %d)", min, max))
	}
	span := uint64(max - min)
	return min + int64(r.Gen(parts...)%span)
}

// Choose picks an element of a non-empty slice deterministically.
func Choose[T any](r FroggyRand, slice []T, parts ...interface{}) T {
	if len(slice) == 0 {
		panic("rng: Choose called with empty slice")
	}
	idx := r.Gen(parts...) % uint64(len(slice))
	return slice[idx]
}

// GenFroggy approximates a bell-curve-shaped draw in [min, max] by summing n
// independent uniform draws each scaled to [min/n, max/n]. Larger n produces
// a tighter peak around the midpoint.
func (r FroggyRand) GenFroggy(min, max float64, n int, parts ...interface{}) float64 {
	if n <= 0 {
		n = 1
	}
	total := 0.0
	subMin := min / float64(n)
	subMax := max / float64(n)
	for i := 0; i < n; i++ {
		u := r.GenUnit(append(append([]interface{}{}, parts...), "froggy", i)...)
		total += subMin + u*(subMax-subMin)
	}
	return total
}

// Shuffle performs an in-place Fisher-Yates shuffle driven entirely by this
// generator's key stream, so two processes shuffling the same slice under
// the same key produce the same permutation.
func Shuffle[T any](r FroggyRand, slice []T, parts ...interface{}) {
	for i := len(slice) - 1; i > 0; i-- {
		j := r.GenRange(0, int64(i+1), append(append([]interface{}{}, parts...), "shuffle", i)...)
		slice[i], slice[j] = slice[j], slice[i]
	}
}

// splitMix64 is the closed-form deterministic mixing function underlying
// every draw. Identical across platforms since it operates purely on
// unsigned 64-bit arithmetic with no floating point or host byte order
// dependence.
func splitMix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// hashParts reduces an arbitrary key tuple to a single uint64 using a
// reproducible, endian-independent byte-rotation hash: every part is
// serialized to bytes in a fixed, platform-independent way, and each byte
// rotates the running accumulator left by one bit before being added in.
// This mirrors the source's FroggyHash exactly so the same tuple always
// hashes to the same value regardless of host architecture.
func hashParts(parts []interface{}) uint64 {
	acc := hashSeed
	for _, p := range parts {
		for _, b := range encodePart(p) {
			acc = rotl64(acc, 1) + uint64(b)
		}
	}
	return acc
}

func rotl64(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// encodePart turns a key component into a stable little-endian byte
// sequence. Supported key types cover everything the simulation ever hashes
// on: integers of every width, strings, bools, and nested slices/tuples.
func encodePart(p interface{}) []byte {
	switch v := p.(type) {
	case nil:
		return []byte{0}
	case bool:
		if v {
			return []byte{1}
		}
		return []byte{0}
	case uint8:
		return []byte{v}
	case int:
		return encodeUint64(uint64(int64(v)))
	case int32:
		return encodeUint64(uint64(int64(v)))
	case int64:
		return encodeUint64(uint64(v))
	case uint32:
		return encodeUint64(uint64(v))
	case uint64:
		return encodeUint64(v)
	case string:
		return []byte(v)
	case []interface{}:
		out := make([]byte, 0, len(v)*4)
		for _, e := range v {
			out = append(out, encodePart(e)...)
		}
		return out
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprintf("%v", v))
	}
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}
