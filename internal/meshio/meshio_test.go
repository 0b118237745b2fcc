package meshio_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/meshio"
)

func TestSnapshotRoundTrip(t *testing.T) {
	m := &mesh.IndexedMesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
		Material:  -1,
	}
	var buf bytes.Buffer
	require.NoError(t, meshio.WriteSnapshot(&buf, m))

	out, err := meshio.ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Positions, out.Positions)
	assert.Equal(t, m.Indices, out.Indices)
}

func TestReadSnapshotRejectsInvalidMesh(t *testing.T) {
	_, err := meshio.ReadSnapshot(strings.NewReader(`{"positions":[0,0],"indices":[0,0,0]}`))
	assert.Error(t, err)
}

const triangleOBJ = `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
f 1/1 2/2 3/3
`

func TestReadOBJParsesTriangle(t *testing.T) {
	m, err := meshio.ReadOBJ(strings.NewReader(triangleOBJ))
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 1, m.TriangleCount())
	assert.True(t, m.HasUVs())
}

const quadOBJ = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`

func TestReadOBJFanTriangulatesQuad(t *testing.T) {
	m, err := meshio.ReadOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	assert.Equal(t, 2, m.TriangleCount())
}
