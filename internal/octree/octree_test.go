package octree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/octree"
)

// triArea computes the area of triangle (a,b,c) via the cross-product
// magnitude, used to check area is conserved across the split.
func triArea(a, b, c [3]float32) float64 {
	var e1, e2 [3]float64
	for i := 0; i < 3; i++ {
		e1[i] = float64(b[i]) - float64(a[i])
		e2[i] = float64(c[i]) - float64(a[i])
	}
	cross := [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	mag := cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2]
	if mag < 0 {
		mag = 0
	}
	return 0.5 * sqrt(mag)
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 50; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func meshArea(m *mesh.IndexedMesh) float64 {
	var total float64
	for t := 0; t < m.TriangleCount(); t++ {
		ia, ib, ic := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		ax, ay, az := m.Position(ia)
		bx, by, bz := m.Position(ib)
		cx, cy, cz := m.Position(ic)
		total += triArea([3]float32{ax, ay, az}, [3]float32{bx, by, bz}, [3]float32{cx, cy, cz})
	}
	return total
}

// straddlingQuad is two triangles forming a unit square in the XY plane,
// centered on the origin so the bounding box's midplanes cut it into 4
// equal quadrants, each requiring the slow (clipping) path.
func straddlingQuad() *mesh.IndexedMesh {
	return &mesh.IndexedMesh{
		Positions: []float32{
			-1, -1, 0,
			1, -1, 0,
			1, 1, 0,
			-1, 1, 0,
		},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		Material: -1,
	}
}

func TestSplitConservesTriangleArea(t *testing.T) {
	m := straddlingQuad()
	box := mesh.MeshBounds(m)
	before := meshArea(m)

	children := octree.Split(m, box)
	var after float64
	for _, c := range children {
		if c == nil {
			continue
		}
		require.NoError(t, c.Validate())
		after += meshArea(c)
	}
	assert.InDelta(t, before, after, 1e-5)
}

func TestSplitProducesNoOverlapAcrossOctants(t *testing.T) {
	m := straddlingQuad()
	box := mesh.MeshBounds(m)
	children := octree.Split(m, box)

	for i, c := range children {
		if c == nil {
			continue
		}
		childBox := box.Octant(i)
		for v := 0; v < c.VertexCount(); v++ {
			x, y, z := c.Position(uint32(v))
			p := [3]float64{float64(x), float64(y), float64(z)}
			assert.True(t, boxContainsWithSlack(childBox, p, 1e-6),
				"child %d vertex %v outside its octant bounds %+v", i, p, childBox)
		}
	}
}

func boxContainsWithSlack(b mesh.BoundingBox, p [3]float64, eps float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i]-eps || p[i] > b.Max[i]+eps {
			return false
		}
	}
	return true
}

// TestSplitFastPathAssignsWholeTriangle checks a triangle entirely inside
// one octant takes the fast path and is not subdivided.
func TestSplitFastPathAssignsWholeTriangle(t *testing.T) {
	m := &mesh.IndexedMesh{
		Positions: []float32{
			0.1, 0.1, 0.1,
			0.2, 0.1, 0.1,
			0.1, 0.2, 0.1,
		},
		Indices:  []uint32{0, 1, 2},
		Material: -1,
	}
	box := mesh.BoundingBox{Min: [3]float64{-1, -1, -1}, Max: [3]float64{1, 1, 1}}
	children := octree.Split(m, box)

	found := 0
	for _, c := range children {
		if c == nil {
			continue
		}
		found++
		assert.Equal(t, 1, c.TriangleCount())
	}
	assert.Equal(t, 1, found, "exactly one octant should receive the whole triangle")
}

// TestSplitBoundaryVerticesShareDedupKeysAcrossOctants checks that two
// octants meeting along a shared midplane edge independently produce
// vertices with matching DedupKeys, even though each octant's DedupMap is
// scoped to its own call.
func TestSplitBoundaryVerticesShareDedupKeysAcrossOctants(t *testing.T) {
	m := straddlingQuad()
	box := mesh.MeshBounds(m)
	children := octree.Split(m, box)

	// The quad lies in the z midplane, which counts as +z (as in the fast
	// path), so octants 4 (-x,-y,+z) and 5 (+x,-y,+z) share the x=0 edge at
	// y in [-1,0].
	var keys [8]map[mesh.DedupKey]struct{}
	for i, c := range children {
		if c == nil {
			continue
		}
		dm := mesh.NewDedupMap()
		for v := 0; v < c.VertexCount(); v++ {
			dm.Put(mesh.KeyOf(c.VertexAt(uint32(v))), uint32(v))
		}
		keys[i] = dm.Keys()
	}

	require.NotNil(t, keys[4])
	require.NotNil(t, keys[5])

	sharedFound := false
	for k := range keys[4] {
		if k.Pos[0] != 0 {
			continue
		}
		if _, ok := keys[5][k]; ok {
			sharedFound = true
		}
	}
	assert.True(t, sharedFound, "octants 4 and 5 should agree on at least one boundary vertex key at x=0")
}

func TestSplitEmptyOctantsAreNil(t *testing.T) {
	m := &mesh.IndexedMesh{
		Positions: []float32{0.1, 0.1, 0.1, 0.2, 0.1, 0.1, 0.1, 0.2, 0.1},
		Indices:   []uint32{0, 1, 2},
		Material:  -1,
	}
	box := mesh.BoundingBox{Min: [3]float64{-1, -1, -1}, Max: [3]float64{1, 1, 1}}
	children := octree.Split(m, box)

	nilCount := 0
	for _, c := range children {
		if c == nil {
			nilCount++
		}
	}
	assert.Equal(t, 7, nilCount)
}
