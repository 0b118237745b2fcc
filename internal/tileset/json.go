package tileset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// tilesetDoc mirrors the 3D Tiles 1.1 root document.
type tilesetDoc struct {
	Asset          assetDoc   `json:"asset"`
	GeometricError float64    `json:"geometricError"`
	Root           *tileDoc   `json:"root"`
}

type assetDoc struct {
	Version string `json:"version"`
}

// tileDoc mirrors one tile object. Default-valued fields (empty transform,
// absent content/children) are omitted via `omitempty`/pointer types;
// geometricError is always written, including the 0 of a leaf.
type tileDoc struct {
	BoundingVolume boundingVolumeDoc `json:"boundingVolume"`
	GeometricError float64          `json:"geometricError"`
	Refine         string           `json:"refine,omitempty"`
	Content        *contentDoc      `json:"content,omitempty"`
	Children       []*tileDoc       `json:"children,omitempty"`
	Transform      []float64        `json:"transform,omitempty"`
}

type boundingVolumeDoc struct {
	Box [12]float64 `json:"box"`
}

type contentDoc struct {
	URI string `json:"uri"`
}

// WriteTilesetJSON serializes root (and its descendants) into a 3D Tiles
// 1.1 tileset.json at outDir/tileset.json. Only the root tile
// carries transform.
func WriteTilesetJSON(root *Node, transform *[16]float64, outDir string) error {
	doc := tilesetDoc{
		Asset:          assetDoc{Version: "1.1"},
		GeometricError: root.GeometricError,
		Root:           toTileDoc(root, transform),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("tileset: marshal tileset.json: %w", err)
	}
	path := filepath.Join(outDir, "tileset.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tileset: write %s: %w", path, err)
	}
	return nil
}

func toTileDoc(n *Node, transform *[16]float64) *tileDoc {
	td := &tileDoc{
		BoundingVolume: boundingVolumeDoc{Box: orientedBox(n.Box)},
		GeometricError: n.GeometricError,
		Refine:         "REPLACE",
	}
	if n.ContentURI != "" {
		td.Content = &contentDoc{URI: n.ContentURI}
	}
	if transform != nil {
		td.Transform = transform[:]
	}
	for _, c := range n.Children {
		td.Children = append(td.Children, toTileDoc(c, nil))
	}
	return td
}

// orientedBox converts an axis-aligned BoundingBox into the 12-element
// oriented-box form 3D Tiles requires: center, then the three half-axis
// vectors, which for an AABB are simply the half-extents along X, Y, Z.
func orientedBox(box mesh.BoundingBox) [12]float64 {
	c := box.Center()
	h := box.HalfSize()
	return [12]float64{
		c[0], c[1], c[2],
		h[0], 0, 0,
		0, h[1], 0,
		0, 0, h[2],
	}
}
