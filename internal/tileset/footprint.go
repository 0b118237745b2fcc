package tileset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// WriteDebugFootprints walks root and writes a GeoJSON FeatureCollection of
// every tile's XY footprint (its bounding box projected onto the X/Y plane)
// to outDir/footprints.geojson. This is a debug aid for inspecting the
// octree split shape in a GIS viewer; it has no bearing on the tileset
// itself and is never read back by validate or the builder.
func WriteDebugFootprints(root *Node, outDir string) error {
	fc := geojson.NewFeatureCollection()
	collectFootprints(root, fc)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("tileset: marshal footprints: %w", err)
	}
	path := filepath.Join(outDir, "footprints.geojson")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tileset: write %s: %w", path, err)
	}
	return nil
}

func collectFootprints(n *Node, fc *geojson.FeatureCollection) {
	feature := geojson.NewFeature(footprintRing(n.Box))
	feature.Properties["address"] = n.Address
	feature.Properties["level"] = n.Level
	feature.Properties["triangleCount"] = n.TriangleCount
	feature.Properties["geometricError"] = n.GeometricError
	fc.Append(feature)

	for _, c := range n.Children {
		collectFootprints(c, fc)
	}
}

func footprintRing(box mesh.BoundingBox) orb.Polygon {
	ring := orb.Ring{
		{box.Min[0], box.Min[1]},
		{box.Max[0], box.Min[1]},
		{box.Max[0], box.Max[1]},
		{box.Min[0], box.Max[1]},
		{box.Min[0], box.Min[1]},
	}
	return orb.Polygon{ring}
}
