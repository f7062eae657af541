/*package rand contains a small deterministic random number stream. Streams
seeded with the same value produce the same sequence on every platform.
*/
package rand

import (
	"math"
)

var (
	xorshiftMaxUint = float64(math.MaxUint32)
)

// Xorshift is an xorshift128 random number generator. It is not thread safe.
type Xorshift struct {
	w, x, y, z uint32
}

// NewXorshift returns a generator seeded with seed.
func NewXorshift(seed uint64) *Xorshift {
	gen := &Xorshift{}
	gen.Seed(seed)
	return gen
}

// Seed resets the generator to the start of the stream for seed.
func (gen *Xorshift) Seed(seed uint64) {
	gen.w = uint32(seed) ^ uint32(seed>>32)
	gen.x, gen.y, gen.z = 123456789, 362436069, 521288629
}

// Uint32 returns the next raw value in the stream.
func (gen *Xorshift) Uint32() uint32 {
	t := gen.x ^ (gen.x << 11)
	gen.x, gen.y, gen.z = gen.y, gen.z, gen.w
	gen.w = gen.w ^ (gen.w >> 19) ^ (t ^ (t >> 8))
	return gen.w
}

// Uniform generates a single random number in the range [0, 1).
func (gen *Xorshift) Uniform() float64 {
	res := float64(math.MaxUint32-gen.Uint32()) / xorshiftMaxUint
	if res == 1.0 {
		return gen.Uniform()
	}
	return res
}

// Angle returns an angle in [0, 2 pi) quantized to 32768 steps.
func (gen *Xorshift) Angle() float64 {
	return float64(gen.Uint32()%32768) / 32768 * 2 * math.Pi
}
