package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacySeed1FirstOutputs(t *testing.T) {
	t.Parallel()
	r := NewLegacy(1)

	// Pinned against the historical generator's output for seed=1.
	expected := []uint32{
		269167349, 3317012772, 3037285189, 3401557626, 2521781105,
		2065258565, 1482041942, 628309313, 1207992583, 2382384936,
		1768143021, 3682773873, 3955356955, 3180623894, 3111145845,
		1145084505, 2396622951, 3748706040, 2988814062, 146139516,
	}
	for i, want := range expected {
		assert.Equal(t, want, r.Uint32(), "output %d", i)
	}
}

func TestLegacySeed2FirstOutputs(t *testing.T) {
	t.Parallel()
	r := NewLegacy(2)

	expected := []uint32{
		1858980908, 1463972797, 3014841053, 46344911, 2127386354,
		4256254646, 2737123461, 2264856394, 3087684303, 1485731095,
	}
	for i, want := range expected {
		assert.Equal(t, want, r.Uint32(), "output %d", i)
	}
}

func TestLegacyStateCaptureRestore(t *testing.T) {
	t.Parallel()
	r1 := NewLegacy(42)
	for i := 0; i < 10; i++ {
		r1.Uint32()
	}

	state := r1.State()
	var expected [10]uint32
	for i := range expected {
		expected[i] = r1.Uint32()
	}

	r2 := NewLegacy(0)
	r2.Restore(state)
	for i, want := range expected {
		assert.Equal(t, want, r2.Uint32(), "output %d after restore", i)
	}
}

func TestLegacyNextIndexBounds(t *testing.T) {
	t.Parallel()
	r := NewLegacy(7)
	for _, n := range []uint32{1, 2, 13, 52} {
		for i := 0; i < 200; i++ {
			require.Less(t, r.NextIndex(n), n)
		}
	}
}

func TestXoshiroDeterministic(t *testing.T) {
	t.Parallel()
	r1 := NewXoshiro(42)
	r2 := NewXoshiro(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, r1.Uint64(), r2.Uint64())
	}
}

func TestXoshiroDifferentSeeds(t *testing.T) {
	t.Parallel()
	r1 := NewXoshiro(1)
	r2 := NewXoshiro(2)
	assert.NotEqual(t, r1.Uint64(), r2.Uint64())
}

func TestXoshiroStateCaptureRestore(t *testing.T) {
	t.Parallel()
	r1 := NewXoshiro(123)
	for i := 0; i < 50; i++ {
		r1.Uint64()
	}

	state := r1.State()
	var expected [10]uint64
	for i := range expected {
		expected[i] = r1.Uint64()
	}

	r2 := NewXoshiro(0)
	r2.Restore(state)
	for i, want := range expected {
		assert.Equal(t, want, r2.Uint64(), "output %d after restore", i)
	}
}

func TestXoshiroNextIndexBounds(t *testing.T) {
	t.Parallel()
	r := NewXoshiro(999)
	for _, n := range []uint32{1, 2, 3, 10, 13, 52, 100} {
		for i := 0; i < 1000; i++ {
			require.Less(t, r.NextIndex(n), n)
		}
	}
}

func TestXoshiroNextIndexRoughlyUniform(t *testing.T) {
	t.Parallel()
	r := NewXoshiro(12345)
	const n = 52
	const samples = 52000
	var counts [n]int
	for i := 0; i < samples; i++ {
		counts[r.NextIndex(n)]++
	}

	expected := samples / n
	for i, count := range counts {
		assert.GreaterOrEqual(t, count, expected*7/10, "bucket %d", i)
		assert.LessOrEqual(t, count, expected*13/10, "bucket %d", i)
	}
}

func TestXoshiroJumpDiverges(t *testing.T) {
	t.Parallel()
	r1 := NewXoshiro(42)
	r2 := NewXoshiro(42)
	r1.Jump()
	assert.NotEqual(t, r1.Uint64(), r2.Uint64())

	// Two jumps from the same state stay in lockstep.
	r3 := NewXoshiro(42)
	r4 := NewXoshiro(42)
	r3.Jump()
	r4.Jump()
	for i := 0; i < 10; i++ {
		assert.Equal(t, r3.Uint64(), r4.Uint64())
	}
}
