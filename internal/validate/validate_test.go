package validate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/glbio"
	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/tileset"
	"github.com/joeblew999/tile3d/internal/validate"
)

func writeTriangleGLB(t *testing.T, path string) {
	t.Helper()
	m := &mesh.IndexedMesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
		Material:  -1,
	}
	data, err := glbio.Encode(m, nil, glbio.Options{})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDirValidatesResolvableContent(t *testing.T) {
	dir := t.TempDir()
	writeTriangleGLB(t, filepath.Join(dir, "tiles", "root.glb"))

	root := &tileset.Node{Address: "root", ContentURI: "tiles/root.glb"}
	require.NoError(t, tileset.WriteTilesetJSON(root, nil, dir))

	report, err := validate.Dir(dir)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.TileCount)
}

func TestDirReportsMissingContent(t *testing.T) {
	dir := t.TempDir()
	root := &tileset.Node{Address: "root", ContentURI: "tiles/root.glb"}
	require.NoError(t, tileset.WriteTilesetJSON(root, nil, dir))

	report, err := validate.Dir(dir)
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.Problems, 1)
	assert.Equal(t, "tiles/root.glb", report.Problems[0].URI)
}

func TestDirErrorsOnMissingTilesetJSON(t *testing.T) {
	_, err := validate.Dir(t.TempDir())
	assert.Error(t, err)
}
