package lbvh

import (
	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/types"
)

const (
	// Each axis is quantized to 10 bits for a 30-bit Morton code.
	mortonBitsPerAxis        = 10
	mortonGridSize    uint32 = 1 << mortonBitsPerAxis
)

// Spread the lower 10 bits of v so that two zero bits are inserted between
// every bit of the input.
func expandBits(v uint32) uint32 {
	v = (v * 0x00010001) & 0xFF0000FF
	v = (v * 0x00000101) & 0x0F00F00F
	v = (v * 0x00000011) & 0xC30C30C3
	v = (v * 0x00000005) & 0x49249249
	return v
}

// Map a normalized coordinate to the [0, 1023] grid. Values outside [0, 1]
// (including NaN) are clamped so the result never spills into an 11th bit.
func quantize(x float32) uint32 {
	q := x * float32(mortonGridSize)
	if !(q > 0) {
		return 0
	}
	if q >= float32(mortonGridSize-1) {
		return mortonGridSize - 1
	}
	return uint32(q)
}

// MortonCode3D calculates the 30-bit Morton code for point p which is expected
// to lie inside bounds. Axes along which bounds has zero extent quantize to 0.
func MortonCode3D(p types.Vec3, bounds AABB) uint32 {
	var q [3]uint32
	extent := bounds.Extent()
	for axis := 0; axis < 3; axis++ {
		if extent[axis] > 0 {
			q[axis] = quantize((p[axis] - bounds.Min[axis]) / extent[axis])
		}
	}

	return expandBits(q[0])<<2 | expandBits(q[1])<<1 | expandBits(q[2])
}

// Pack a Morton code and the index of the primitive it was generated for
// into a composite sort key. Keys are unique even when codes collide and
// sorting them orders equal codes by primitive index.
func mortonKey(code uint32, primitive int) uint64 {
	return uint64(code)<<32 | uint64(uint32(primitive))
}

// Extract the primitive index from a composite key.
func keyPrimitive(key uint64) int32 {
	return int32(uint32(key))
}

// Extract the Morton code from a composite key.
func keyCode(key uint64) uint32 {
	return uint32(key >> 32)
}

// Generate the composite Morton key for each centroid.
func encodeMortonKeys(centroids []types.Vec3, bounds AABB, keys []uint64, workers int) {
	parallel.For(len(centroids), workers, func(start, end int) {
		for index := start; index < end; index++ {
			keys[index] = mortonKey(MortonCode3D(centroids[index], bounds), index)
		}
	})
}

// Map the highest bit where two Morton codes differ to the axis it encodes.
// commonPrefix is the number of leading bits shared by the composite keys;
// prefixes that extend past the code bits (duplicate codes) map to the X axis.
func splitAxis(commonPrefix int) uint8 {
	if commonPrefix < 0 || commonPrefix >= 32 {
		return 0
	}

	// x bits occupy positions 2, 5, 8...; y bits 1, 4, 7...; z bits 0, 3, 6...
	bit := 31 - commonPrefix
	return uint8(2 - bit%3)
}
