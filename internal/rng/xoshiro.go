package rng

import "math/bits"

// Xoshiro is a xoshiro256++ generator, the fast path for deal
// generation. Deals derived from it depend only on a u64 seed, which
// is what makes the fast mode embarrassingly parallel.
type Xoshiro struct {
	s [4]uint64
}

// XoshiroState is a captured snapshot of a Xoshiro generator.
type XoshiroState struct {
	S [4]uint64
}

// NewXoshiro seeds a generator from a u64, expanding it into the full
// 256-bit state with SplitMix64 as the xoshiro authors recommend.
func NewXoshiro(seed uint64) *Xoshiro {
	r := &Xoshiro{}
	z := seed
	for i := range r.s {
		z += 0x9e3779b97f4a7c15
		x := z
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		r.s[i] = x ^ (x >> 31)
	}
	return r
}

// Uint64 returns the next 64-bit value.
func (r *Xoshiro) Uint64() uint64 {
	result := bits.RotateLeft64(r.s[0]+r.s[3], 23) + r.s[0]

	t := r.s[1] << 17

	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]

	r.s[2] ^= t
	r.s[3] = bits.RotateLeft64(r.s[3], 45)

	return result
}

// Uint32 returns the upper 32 bits of the next 64-bit value.
func (r *Xoshiro) Uint32() uint32 {
	return uint32(r.Uint64() >> 32)
}

// NextIndex returns an unbiased value in [0, n) using Lemire's nearly
// divisionless method, with a mask fast path for powers of two.
func (r *Xoshiro) NextIndex(n uint32) uint32 {
	if n&(n-1) == 0 {
		return r.Uint32() & (n - 1)
	}

	x := r.Uint32()
	m := uint64(x) * uint64(n)
	l := uint32(m)
	if l < n {
		t := -n % n
		for l < t {
			x = r.Uint32()
			m = uint64(x) * uint64(n)
			l = uint32(m)
		}
	}
	return uint32(m >> 32)
}

// State captures the generator state for later restoration.
func (r *Xoshiro) State() XoshiroState {
	return XoshiroState{S: r.s}
}

// Restore resets the generator to a previously captured state.
func (r *Xoshiro) Restore(s XoshiroState) {
	r.s = s.S
}

// Jump advances the state by 2^128 steps, yielding non-overlapping
// subsequences for independent streams.
func (r *Xoshiro) Jump() {
	jump := [4]uint64{
		0x180ec6d33cfd0aba, 0xd5a61266f0c9392c,
		0xa9582618e03fc9aa, 0x39abdc4529b1661c,
	}

	var s0, s1, s2, s3 uint64
	for _, j := range jump {
		for b := 0; b < 64; b++ {
			if (j>>b)&1 != 0 {
				s0 ^= r.s[0]
				s1 ^= r.s[1]
				s2 ^= r.s[2]
				s3 ^= r.s[3]
			}
			r.Uint64()
		}
	}
	r.s[0], r.s[1], r.s[2], r.s[3] = s0, s1, s2, s3
}
