// Package octree implements C3: splitting a mesh into up to 8 spatial
// children by clipping against the three midplanes of its bounding box.
package octree

import (
	"github.com/joeblew999/tile3d/internal/clip"
	"github.com/joeblew999/tile3d/internal/mesh"
)

// Split partitions m into up to 8 child meshes, one per octant of box.
// Slots with zero triangles are returned as nil. Dedup keys are
// scoped to this one call so a shared edge produces matching output
// vertices on both sides of the split.
func Split(m *mesh.IndexedMesh, box mesh.BoundingBox) [8]*mesh.IndexedMesh {
	mid := box.Center()
	builders := [8]*mesh.Builder{}
	dedup := [8]*mesh.DedupMap{}
	for i := range builders {
		builders[i] = mesh.NewBuilder()
		dedup[i] = mesh.NewDedupMap()
	}

	tcount := m.TriangleCount()
	for t := 0; t < tcount; t++ {
		ia, ib, ic := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		va := m.VertexAt(ia)
		vb := m.VertexAt(ib)
		vc := m.VertexAt(ic)

		if octant, ok := sameOctant(va.Position, vb.Position, vc.Position, mid); ok {
			fastPathAppend(builders[octant], dedup[octant], va, vb, vc)
			continue
		}

		slowPathSplit(va, vb, vc, mid, dedup, builders)
	}

	var out [8]*mesh.IndexedMesh
	for i, b := range builders {
		if b.Len() == 0 {
			continue
		}
		out[i] = b.Build(m.Material)
	}
	return out
}

// sameOctant implements the fast path: if the triangle's AABB min and
// max agree in sign relative to mid on every axis, the whole triangle
// belongs to one octant and needs no clipping.
func sameOctant(a, b, c [3]float64, mid [3]float64) (int, bool) {
	min, max := mesh.BoundsOf(a, b, c)
	octant := 0
	for axis := 0; axis < 3; axis++ {
		minSide := min[axis] >= mid[axis]
		maxSide := max[axis] >= mid[axis]
		if minSide != maxSide {
			return 0, false
		}
		if minSide {
			octant |= 1 << uint(axis)
		}
	}
	return octant, true
}

func fastPathAppend(b *mesh.Builder, dm *mesh.DedupMap, verts ...mesh.Vertex) {
	idx := make([]uint32, len(verts))
	for i, v := range verts {
		idx[i] = emitDeduped(v, dm, b)
	}
	b.AddTriangle(idx[0], idx[1], idx[2])
}

// slowPathSplit clips a straddling triangle against the three midplanes in
// turn (X, then Y, then Z), routing each resulting sub-polygon down the
// side chosen at each axis, and finally depositing whatever triangles
// remain into the octant implied by the three choices made.
//
// Each octant keeps its own DedupMap, freshly created per Split call so
// dedup keys are scoped to the parent invocation: two octants
// sharing a midplane edge each independently collapse repeated intersection
// vertices to one local index, and because both sides compute the same
// intersection arithmetic, their DedupKey sets along that edge agree even
// though the local indices they map to differ.
func slowPathSplit(a, b, c mesh.Vertex, mid [3]float64, dedup [8]*mesh.DedupMap, builders [8]*mesh.Builder) {
	clipAxis(0, []mesh.Vertex{a, b, c}, mid, dedup, builders, 0)
}

// clipAxis recursively clips polygon against axis' midplane (if axis < 3),
// then recurses into axis+1 for each half, accumulating which side was
// chosen per axis in octant. Once axis == 3 the polygon is fully classified
// and is fan-triangulated into the target octant builder.
func clipAxis(axis int, polygon []mesh.Vertex, mid [3]float64, dedup [8]*mesh.DedupMap, builders [8]*mesh.Builder, octant int) {
	if axis == 3 {
		deposit(polygon, dedup[octant], builders[octant])
		return
	}
	// A polygon wholly on one side (including one lying in the midplane)
	// goes to that side only, using the same >= mid rule as sameOctant;
	// clipping it both ways would deposit an in-plane polygon twice.
	allGE, allLE := true, true
	for _, v := range polygon {
		allGE = allGE && v.Position[axis] >= mid[axis]
		allLE = allLE && v.Position[axis] <= mid[axis]
	}
	if allGE {
		clipAxis(axis+1, polygon, mid, dedup, builders, octant|(1<<uint(axis)))
		return
	}
	if allLE {
		clipAxis(axis+1, polygon, mid, dedup, builders, octant)
		return
	}
	negPoly := clip.ClipPolygon(polygon, clip.Axis(axis), mid[axis], clip.KeepLE)
	posPoly := clip.ClipPolygon(polygon, clip.Axis(axis), mid[axis], clip.KeepGE)
	if len(negPoly) >= 3 {
		clipAxis(axis+1, negPoly, mid, dedup, builders, octant)
	}
	if len(posPoly) >= 3 {
		clipAxis(axis+1, posPoly, mid, dedup, builders, octant|(1<<uint(axis)))
	}
}

func deposit(polygon []mesh.Vertex, dm *mesh.DedupMap, b *mesh.Builder) {
	for _, t := range clip.Triangulate(polygon) {
		var idx [3]uint32
		for i, v := range t {
			idx[i] = emitDeduped(v, dm, b)
		}
		b.AddTriangle(idx[0], idx[1], idx[2])
	}
}

// emitDeduped adds v to b, reusing an existing vertex index if one with the
// same DedupKey was already emitted into b during this Split call.
func emitDeduped(v mesh.Vertex, dm *mesh.DedupMap, b *mesh.Builder) uint32 {
	key := mesh.KeyOf(v)
	if idx, ok := dm.Lookup(key); ok {
		return idx
	}
	idx := b.AddVertex(v)
	dm.Put(key, idx)
	return idx
}
