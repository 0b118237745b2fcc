package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/mesh"
)

func tetrahedron() *mesh.IndexedMesh {
	return &mesh.IndexedMesh{
		Positions: []float32{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		},
		Indices: []uint32{
			0, 1, 2,
			0, 1, 3,
			0, 2, 3,
			1, 2, 3,
		},
		Material: -1,
	}
}

func TestValidateAcceptsTetrahedron(t *testing.T) {
	m := tetrahedron()
	require.NoError(t, m.Validate())
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 4, m.TriangleCount())
}

func TestValidateRejectsOutOfRangeIndex(t *testing.T) {
	m := tetrahedron()
	m.Indices[0] = 99
	assert.Error(t, m.Validate())
}

func TestValidateRejectsMismatchedAttributeLength(t *testing.T) {
	m := tetrahedron()
	m.Normals = []float32{0, 0, 1} // only one vertex's worth
	assert.Error(t, m.Validate())
}

func TestBuilderRoundTripsAttributes(t *testing.T) {
	b := mesh.NewBuilder()
	v0 := b.AddVertex(mesh.Vertex{Position: [3]float64{0, 0, 0}, UV: [2]float64{0, 0}, HasUV: true})
	v1 := b.AddVertex(mesh.Vertex{Position: [3]float64{1, 0, 0}, UV: [2]float64{1, 0}, HasUV: true})
	v2 := b.AddVertex(mesh.Vertex{Position: [3]float64{0, 1, 0}, UV: [2]float64{0, 1}, HasUV: true})
	b.AddTriangle(v0, v1, v2)
	out := b.Build(2)

	require.NoError(t, out.Validate())
	assert.True(t, out.HasUVs())
	assert.False(t, out.HasNormals())
	assert.Equal(t, 2, out.Material)
	assert.Equal(t, float32(1), out.UVs[2])
}

func TestDedupKeyCollapsesNearIdenticalVertices(t *testing.T) {
	a := mesh.KeyOf(mesh.Vertex{Position: [3]float64{0.5, 0.5, 0.5}})
	b := mesh.KeyOf(mesh.Vertex{Position: [3]float64{0.5, 0.5, 0.5}})
	assert.Equal(t, a, b)
}

func TestDedupKeyDistinguishesDifferingUV(t *testing.T) {
	a := mesh.KeyOf(mesh.Vertex{Position: [3]float64{0.5, 0.5, 0.5}, UV: [2]float64{0, 0}, HasUV: true})
	b := mesh.KeyOf(mesh.Vertex{Position: [3]float64{0.5, 0.5, 0.5}, UV: [2]float64{1, 0}, HasUV: true})
	assert.NotEqual(t, a, b, "vertices sharing a 3D position but differing in UV must not collapse")
}

func TestBoundingBoxOctant(t *testing.T) {
	box := mesh.BoundingBox{Min: [3]float64{0, 0, 0}, Max: [3]float64{2, 2, 2}}
	oct := box.Octant(0) // -x -y -z
	assert.Equal(t, [3]float64{0, 0, 0}, oct.Min)
	assert.Equal(t, [3]float64{1, 1, 1}, oct.Max)

	oct7 := box.Octant(7) // +x +y +z
	assert.Equal(t, [3]float64{1, 1, 1}, oct7.Min)
	assert.Equal(t, [3]float64{2, 2, 2}, oct7.Max)
}
