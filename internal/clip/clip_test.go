package clip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/clip"
	"github.com/joeblew999/tile3d/internal/mesh"
)

func vtx(x, y, z float64) mesh.Vertex {
	return mesh.Vertex{Position: [3]float64{x, y, z}}
}

func vtxUV(x, y, z, u, v float64) mesh.Vertex {
	return mesh.Vertex{Position: [3]float64{x, y, z}, UV: [2]float64{u, v}, HasUV: true}
}

func TestClipAgainstNonIntersectingPlaneReturnsUnchanged(t *testing.T) {
	tri := []mesh.Vertex{vtx(0, 0, 0), vtx(1, 0, 0), vtx(0, 1, 0)}
	out := clip.ClipPolygon(tri, clip.AxisZ, 5, clip.KeepLE)
	require.Len(t, out, 3)
	for i := range tri {
		assert.Equal(t, tri[i].Position, out[i].Position)
	}
}

func TestClipIsIdempotent(t *testing.T) {
	tri := []mesh.Vertex{vtx(0, 0, 0), vtx(1, 0, 0), vtx(0.5, 1, 0)}
	once := clip.ClipPolygon(tri, clip.AxisX, 0.5, clip.KeepLE)
	twice := clip.ClipPolygon(once, clip.AxisX, 0.5, clip.KeepLE)
	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.InDelta(t, once[i].Position[0], twice[i].Position[0], 1e-9)
		assert.InDelta(t, once[i].Position[1], twice[i].Position[1], 1e-9)
	}
}

func TestVertexExactlyOnPlaneIsInside(t *testing.T) {
	tri := []mesh.Vertex{vtx(0.5, 0, 0), vtx(1, 0, 0), vtx(1, 1, 0)}
	// vertex 0 sits exactly on the plane; KeepLE should retain it.
	out := clip.ClipPolygon(tri, clip.AxisX, 0.5, clip.KeepLE)
	// Plane only touches at one vertex so the rest of the triangle is
	// clipped away; the kept polygon should still include that vertex.
	found := false
	for _, v := range out {
		if v.Position[0] == 0.5 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTriangulateDropsDegenerateTriangles(t *testing.T) {
	// Three collinear points.
	poly := []mesh.Vertex{vtx(0, 0, 0), vtx(1, 0, 0), vtx(2, 0, 0)}
	tris := clip.Triangulate(poly)
	assert.Empty(t, tris)
}

// TestQuadSplitByXMidplane clips a triangle with vertices
// (0,0,0),(1,0,0),(0.5,1,0) and matching UVs at x=0.5, which must split
// it into a quad on one side and a triangle on the other.
func TestQuadSplitByXMidplane(t *testing.T) {
	tri := [3]mesh.Vertex{
		vtxUV(0, 0, 0, 0, 0),
		vtxUV(1, 0, 0, 1, 0),
		vtxUV(0.5, 1, 0, 0.5, 1),
	}

	dmNeg := mesh.NewDedupMap()
	negBuilder := mesh.NewBuilder()
	clip.ClipTriangle(tri, clip.AxisX, 0.5, clip.KeepLE, dmNeg, negBuilder)
	negMesh := negBuilder.Build(-1)
	require.Equal(t, 1, negMesh.TriangleCount(), "the -x octant keeps exactly one triangle")

	dmPos := mesh.NewDedupMap()
	posBuilder := mesh.NewBuilder()
	clip.ClipTriangle(tri, clip.AxisX, 0.5, clip.KeepGE, dmPos, posBuilder)
	posMesh := posBuilder.Build(-1)
	require.Equal(t, 2, posMesh.TriangleCount(), "the +x octant fan-triangulates the remaining quad")

	// The -x triangle must have a vertex at x=0.5 matching the clip plane,
	// and a vertex at the apex (0.5,1,0).
	foundClipVertex := false
	foundApex := false
	for i := 0; i < negMesh.VertexCount(); i++ {
		x, y, _ := negMesh.Position(uint32(i))
		if almostEqual(float64(x), 0.5) && almostEqual(float64(y), 0) {
			foundClipVertex = true
		}
		if almostEqual(float64(x), 0.5) && almostEqual(float64(y), 1) {
			foundApex = true
		}
	}
	assert.True(t, foundClipVertex)
	assert.True(t, foundApex)
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
