package tileset_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/tileset"
)

func sampleTree() *tileset.Node {
	leafBox := mesh.BoundingBox{Min: [3]float64{0, 0, 0}, Max: [3]float64{1, 1, 1}}
	leaf := &tileset.Node{Address: "0", Level: 1, Box: leafBox, GeometricError: 0, ContentURI: "tiles/0/tile.glb"}
	rootBox := mesh.BoundingBox{Min: [3]float64{0, 0, 0}, Max: [3]float64{2, 2, 2}}
	root := &tileset.Node{
		Address:        "root",
		Level:          0,
		Box:            rootBox,
		GeometricError: 5,
		ContentURI:     "tiles/root.glb",
		Children:       []*tileset.Node{leaf},
	}
	return root
}

func TestWriteTilesetJSONStructure(t *testing.T) {
	root := sampleTree()
	transform := &[16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 10, 20, 30, 1}
	outDir := t.TempDir()

	require.NoError(t, tileset.WriteTilesetJSON(root, transform, outDir))

	data, err := os.ReadFile(outDir + "/tileset.json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	asset := doc["asset"].(map[string]any)
	assert.Equal(t, "1.1", asset["version"])
	assert.Equal(t, 5.0, doc["geometricError"])

	rootDoc := doc["root"].(map[string]any)
	assert.Equal(t, "REPLACE", rootDoc["refine"])
	assert.Contains(t, rootDoc, "transform")
	assert.Len(t, rootDoc["transform"], 16)

	boundingVolume := rootDoc["boundingVolume"].(map[string]any)
	box := boundingVolume["box"].([]any)
	assert.Len(t, box, 12)

	content := rootDoc["content"].(map[string]any)
	assert.Equal(t, "tiles/root.glb", content["uri"])

	children := rootDoc["children"].([]any)
	require.Len(t, children, 1)
	child := children[0].(map[string]any)
	assert.NotContains(t, child, "transform", "only the root carries a transform")
	assert.Equal(t, 0.0, child["geometricError"])
}

func TestWriteTilesetJSONOmitsTransformWithoutRoot(t *testing.T) {
	root := sampleTree()
	outDir := t.TempDir()
	require.NoError(t, tileset.WriteTilesetJSON(root, nil, outDir))

	data, err := os.ReadFile(outDir + "/tileset.json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	rootDoc := doc["root"].(map[string]any)
	assert.NotContains(t, rootDoc, "transform")
}
