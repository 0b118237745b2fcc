// Package mesh defines the IndexedMesh data model shared by every stage of
// the tiling pipeline: the simplifier, the clipper, the octree splitter, the
// atlas repacker, and the tileset builder all read and write this type.
package mesh

import "fmt"

// IndexedMesh is the unit of work passed between pipeline stages. Each mesh
// is exclusively owned by its current stage; stages that split a mesh (the
// octree splitter) hand back children that own disjoint copies of their
// vertex and index data.
type IndexedMesh struct {
	// Positions is interleaved (x,y,z) per vertex. Always present.
	Positions []float32
	// Normals is interleaved (x,y,z) per vertex, or nil if absent.
	Normals []float32
	// UVs is interleaved (u,v) per vertex, or nil if absent.
	UVs []float32
	// Colors is interleaved (r,g,b,a) per vertex, or nil if absent.
	Colors []float32
	// Indices is a flat triangle index buffer, always a multiple of 3.
	Indices []uint32
	// Material is the index into the owning MaterialLibrary, or -1 if unset.
	Material int
}

// VertexCount returns the number of vertices implied by Positions.
func (m *IndexedMesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles implied by Indices.
func (m *IndexedMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// HasNormals reports whether the normal attribute is present.
func (m *IndexedMesh) HasNormals() bool { return len(m.Normals) > 0 }

// HasUVs reports whether the UV attribute is present.
func (m *IndexedMesh) HasUVs() bool { return len(m.UVs) > 0 }

// HasColors reports whether the vertex-color attribute is present.
func (m *IndexedMesh) HasColors() bool { return len(m.Colors) > 0 }

// Validate checks the invariants from the data model: position length is a
// multiple of 3, present attributes agree in vertex count with Positions,
// every index is in range, and the index buffer is a multiple of 3.
func (m *IndexedMesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("mesh: positions length %d not a multiple of 3", len(m.Positions))
	}
	vcount := m.VertexCount()
	if m.Normals != nil && len(m.Normals) != vcount*3 {
		return fmt.Errorf("mesh: normals length %d disagrees with %d vertices", len(m.Normals), vcount)
	}
	if m.UVs != nil && len(m.UVs) != vcount*2 {
		return fmt.Errorf("mesh: uvs length %d disagrees with %d vertices", len(m.UVs), vcount)
	}
	if m.Colors != nil && len(m.Colors) != vcount*4 {
		return fmt.Errorf("mesh: colors length %d disagrees with %d vertices", len(m.Colors), vcount)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh: indices length %d not a multiple of 3", len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= vcount {
			return fmt.Errorf("mesh: index %d out of range for %d vertices", idx, vcount)
		}
	}
	return nil
}

// Position returns the position of vertex i as three floats.
func (m *IndexedMesh) Position(i uint32) (x, y, z float32) {
	o := int(i) * 3
	return m.Positions[o], m.Positions[o+1], m.Positions[o+2]
}

// Vertex is the tagged-variant vertex record used by the clipper and the
// atlas repacker: presence of Normal/UV/Color is tracked per-vertex rather
// than through an inheritance hierarchy.
type Vertex struct {
	Position        [3]float64 // f64: clip-plane math needs drift-free arithmetic
	Normal          [3]float64
	UV              [2]float64
	Color           [4]float64
	HasNormal       bool
	HasUV           bool
	HasColor        bool
}

// VertexAt builds a Vertex record for vertex index i of the mesh, promoting
// f32 storage to f64 for clip/split arithmetic.
func (m *IndexedMesh) VertexAt(i uint32) Vertex {
	o3 := int(i) * 3
	v := Vertex{
		Position: [3]float64{
			float64(m.Positions[o3]),
			float64(m.Positions[o3+1]),
			float64(m.Positions[o3+2]),
		},
	}
	if m.HasNormals() {
		on := int(i) * 3
		v.Normal = [3]float64{float64(m.Normals[on]), float64(m.Normals[on+1]), float64(m.Normals[on+2])}
		v.HasNormal = true
	}
	if m.HasUVs() {
		ou := int(i) * 2
		v.UV = [2]float64{float64(m.UVs[ou]), float64(m.UVs[ou+1])}
		v.HasUV = true
	}
	if m.HasColors() {
		oc := int(i) * 4
		v.Color = [4]float64{
			float64(m.Colors[oc]), float64(m.Colors[oc+1]),
			float64(m.Colors[oc+2]), float64(m.Colors[oc+3]),
		}
		v.HasColor = true
	}
	return v
}

// Builder accumulates Vertex records and triangle indices into a new
// IndexedMesh. It is the common output path for the clipper, the octree
// splitter, and the atlas repacker.
type Builder struct {
	verts      []Vertex
	indices    []uint32
	hasNormal  bool
	hasUV      bool
	hasColor   bool
	attrsKnown bool
}

// NewBuilder creates an empty mesh builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddVertex appends v and returns its new index.
func (b *Builder) AddVertex(v Vertex) uint32 {
	if !b.attrsKnown {
		b.hasNormal, b.hasUV, b.hasColor = v.HasNormal, v.HasUV, v.HasColor
		b.attrsKnown = true
	}
	idx := uint32(len(b.verts))
	b.verts = append(b.verts, v)
	return idx
}

// AddTriangle appends one triangle by vertex index.
func (b *Builder) AddTriangle(a, c, d uint32) {
	b.indices = append(b.indices, a, c, d)
}

// Len returns the number of vertices accumulated so far.
func (b *Builder) Len() int { return len(b.verts) }

// Build converts the accumulated vertices/indices into an IndexedMesh,
// narrowing f64 back to f32 for storage and carrying the material index
// forward unchanged.
func (b *Builder) Build(material int) *IndexedMesh {
	n := len(b.verts)
	m := &IndexedMesh{
		Positions: make([]float32, n*3),
		Indices:   b.indices,
		Material:  material,
	}
	if b.hasNormal {
		m.Normals = make([]float32, n*3)
	}
	if b.hasUV {
		m.UVs = make([]float32, n*2)
	}
	if b.hasColor {
		m.Colors = make([]float32, n*4)
	}
	for i, v := range b.verts {
		m.Positions[i*3] = float32(v.Position[0])
		m.Positions[i*3+1] = float32(v.Position[1])
		m.Positions[i*3+2] = float32(v.Position[2])
		if b.hasNormal {
			m.Normals[i*3] = float32(v.Normal[0])
			m.Normals[i*3+1] = float32(v.Normal[1])
			m.Normals[i*3+2] = float32(v.Normal[2])
		}
		if b.hasUV {
			m.UVs[i*2] = float32(v.UV[0])
			m.UVs[i*2+1] = float32(v.UV[1])
		}
		if b.hasColor {
			m.Colors[i*4] = float32(v.Color[0])
			m.Colors[i*4+1] = float32(v.Color[1])
			m.Colors[i*4+2] = float32(v.Color[2])
			m.Colors[i*4+3] = float32(v.Color[3])
		}
	}
	return m
}
