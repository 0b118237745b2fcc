// Package meshio provides lightweight mesh ingestion: a JSON snapshot
// format used by the test fixtures and CLI round-tripping, and a minimal
// single-material OBJ reader.
package meshio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Snapshot is the on-disk JSON form of an IndexedMesh, used by the CLI's
// `build` command when the input is not OBJ.
type Snapshot struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals,omitempty"`
	UVs       []float32 `json:"uvs,omitempty"`
	Colors    []float32 `json:"colors,omitempty"`
	Indices   []uint32  `json:"indices"`
	Material  int       `json:"material"`
}

// ReadSnapshot decodes a Snapshot from r into an IndexedMesh.
func ReadSnapshot(r io.Reader) (*mesh.IndexedMesh, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("meshio: decode snapshot: %w", err)
	}
	m := &mesh.IndexedMesh{
		Positions: s.Positions,
		Normals:   s.Normals,
		UVs:       s.UVs,
		Colors:    s.Colors,
		Indices:   s.Indices,
		Material:  s.Material,
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("meshio: %w", err)
	}
	return m, nil
}

// WriteSnapshot encodes m as a Snapshot to w.
func WriteSnapshot(w io.Writer, m *mesh.IndexedMesh) error {
	s := Snapshot{
		Positions: m.Positions, Normals: m.Normals, UVs: m.UVs, Colors: m.Colors,
		Indices: m.Indices, Material: m.Material,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("meshio: encode snapshot: %w", err)
	}
	return nil
}
