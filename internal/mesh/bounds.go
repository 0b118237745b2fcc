package mesh

import (
	"math"

	"github.com/chewxy/math32"
)

// BoundingBox is an axis-aligned bounding box stored in f64 so that split
// and plane-test arithmetic doesn't drift across many recursion levels, even
// though the vertices it bounds are stored as f32.
type BoundingBox struct {
	Min [3]float64
	Max [3]float64
}

// Valid reports whether Min[i] <= Max[i] for every axis.
func (b BoundingBox) Valid() bool {
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() [3]float64 {
	return [3]float64{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// HalfSize returns half the box's extent on each axis.
func (b BoundingBox) HalfSize() [3]float64 {
	return [3]float64{
		(b.Max[0] - b.Min[0]) / 2,
		(b.Max[1] - b.Min[1]) / 2,
		(b.Max[2] - b.Min[2]) / 2,
	}
}

// Diagonal returns the length of the box's space diagonal.
func (b BoundingBox) Diagonal() float64 {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Octant returns the sub-box for octant index 0..7, where bit 0 selects
// +X vs -X, bit 1 selects +Y vs -Y, and bit 2 selects +Z vs -Z (relative to
// the box's midpoint).
func (b BoundingBox) Octant(idx int) BoundingBox {
	mid := b.Center()
	var out BoundingBox
	for axis := 0; axis < 3; axis++ {
		if idx&(1<<uint(axis)) != 0 {
			out.Min[axis] = mid[axis]
			out.Max[axis] = b.Max[axis]
		} else {
			out.Min[axis] = b.Min[axis]
			out.Max[axis] = mid[axis]
		}
	}
	return out
}

// Contains reports whether p lies within the box (inclusive).
func (b BoundingBox) Contains(p [3]float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// BoundsOf computes the AABB of a triangle's three vertices.
func BoundsOf(a, c, d [3]float64) (min, max [3]float64) {
	min, max = a, a
	for _, p := range [][3]float64{c, d} {
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}

// MeshBounds computes the bounding box of every position in the mesh. The
// scan itself runs in f32 (positions are stored interleaved as f32, and a
// photogrammetry mesh can carry tens of millions of vertices), promoting to
// f64 only once at the end for the BoundingBox that downstream split/clip
// arithmetic accumulates into.
func MeshBounds(m *IndexedMesh) BoundingBox {
	if m.VertexCount() == 0 {
		return BoundingBox{}
	}
	minX, minY, minZ := m.Positions[0], m.Positions[1], m.Positions[2]
	maxX, maxY, maxZ := minX, minY, minZ
	for i := 0; i < m.VertexCount(); i++ {
		x, y, z := m.Position(uint32(i))
		minX, minY, minZ = math32.Min(minX, x), math32.Min(minY, y), math32.Min(minZ, z)
		maxX, maxY, maxZ = math32.Max(maxX, x), math32.Max(maxY, y), math32.Max(maxZ, z)
	}
	return BoundingBox{
		Min: [3]float64{float64(minX), float64(minY), float64(minZ)},
		Max: [3]float64{float64(maxX), float64(maxY), float64(maxZ)},
	}
}
