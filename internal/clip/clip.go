// Package clip implements C2, the Sutherland-Hodgman clip of one triangle
// (with full vertex attributes) against an axis-aligned half-space.
package clip

import (
	"math"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Axis identifies which component of a position a plane test is against.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Side selects which half-space survives a clip.
type Side int

const (
	KeepLE Side = iota // keep vertices with position[axis] <= value
	KeepGE              // keep vertices with position[axis] >= value
)

// degenerateAreaEps is the zero-area epsilon for dropping collinear triangles
// after clipping.
const degenerateAreaEps = 1e-12

// inside reports whether v is on the kept side of the plane. Vertices
// exactly on the plane are always treated as inside — a bit-exact tie-break
// that avoids classifying the same boundary vertex differently on the two
// sides of a cut.
func inside(v mesh.Vertex, axis Axis, value float64, side Side) bool {
	c := v.Position[axis]
	if side == KeepLE {
		return c <= value
	}
	return c >= value
}

// lerp linearly interpolates a Vertex at parameter t along edge a->b,
// re-normalizing the interpolated normal.
func lerp(a, b mesh.Vertex, t float64) mesh.Vertex {
	out := mesh.Vertex{}
	for i := 0; i < 3; i++ {
		out.Position[i] = a.Position[i] + (b.Position[i]-a.Position[i])*t
	}
	if a.HasNormal && b.HasNormal {
		var n [3]float64
		for i := 0; i < 3; i++ {
			n[i] = a.Normal[i] + (b.Normal[i]-a.Normal[i])*t
		}
		length := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if length > 1e-20 {
			n[0] /= length
			n[1] /= length
			n[2] /= length
		}
		out.Normal = n
		out.HasNormal = true
	}
	if a.HasUV && b.HasUV {
		out.UV = [2]float64{
			a.UV[0] + (b.UV[0]-a.UV[0])*t,
			a.UV[1] + (b.UV[1]-a.UV[1])*t,
		}
		out.HasUV = true
	}
	if a.HasColor && b.HasColor {
		var c [4]float64
		for i := 0; i < 4; i++ {
			c[i] = a.Color[i] + (b.Color[i]-a.Color[i])*t
		}
		out.Color = c
		out.HasColor = true
	}
	return out
}

// intersect computes the Vertex where edge a->b crosses the plane
// axis=value: t = (value - a.pos[axis]) / (b.pos[axis] - a.pos[axis]).
func intersect(a, b mesh.Vertex, axis Axis, value float64) mesh.Vertex {
	denom := b.Position[axis] - a.Position[axis]
	var t float64
	if denom != 0 {
		t = (value - a.Position[axis]) / denom
	}
	return lerp(a, b, t)
}

// ClipPolygon clips an ordered polygon (3 or 4 vertices from a prior clip)
// against one axis-aligned half-space using Sutherland-Hodgman clipping.
// Each edge is walked as (previous vertex, current vertex), so a polygon
// lying wholly on the kept side comes back in its original vertex order.
// No boundary dedup happens here; ClipTriangle does that.
func ClipPolygon(polygon []mesh.Vertex, axis Axis, value float64, side Side) []mesh.Vertex {
	if len(polygon) == 0 {
		return nil
	}
	out := make([]mesh.Vertex, 0, len(polygon)+1)
	n := len(polygon)
	for i := 0; i < n; i++ {
		a := polygon[(i+n-1)%n]
		b := polygon[i]
		aIn := inside(a, axis, value, side)
		bIn := inside(b, axis, value, side)
		switch {
		case aIn && bIn:
			out = append(out, b)
		case aIn && !bIn:
			out = append(out, intersect(a, b, axis, value))
		case !aIn && bIn:
			out = append(out, intersect(a, b, axis, value))
			out = append(out, b)
		default:
			// both outside: emit nothing
		}
	}
	return out
}

// Triangulate fan-triangulates a convex 3-4 vertex polygon from its first
// vertex, dropping any resulting triangle whose area is within
// degenerateAreaEps of zero.
func Triangulate(polygon []mesh.Vertex) [][3]mesh.Vertex {
	if len(polygon) < 3 {
		return nil
	}
	var tris [][3]mesh.Vertex
	for i := 1; i < len(polygon)-1; i++ {
		a, b, c := polygon[0], polygon[i], polygon[i+1]
		if isDegenerate(a, b, c) {
			continue
		}
		tris = append(tris, [3]mesh.Vertex{a, b, c})
	}
	return tris
}

func isDegenerate(a, b, c mesh.Vertex) bool {
	var e1, e2 [3]float64
	for i := 0; i < 3; i++ {
		e1[i] = b.Position[i] - a.Position[i]
		e2[i] = c.Position[i] - a.Position[i]
	}
	cross := [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	areaSq := cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2]
	return areaSq < degenerateAreaEps*degenerateAreaEps
}

// ClipTriangle clips one triangle against a single axis-aligned half-space
// and returns the resulting (0, 1, or 2) triangles, deduplicating newly
// created boundary vertices against dm if dm is non-nil. This is the
// entry point used by the octree splitter's slow path.
func ClipTriangle(tri [3]mesh.Vertex, axis Axis, value float64, side Side, dm *mesh.DedupMap, out *mesh.Builder) {
	clipped := ClipPolygon(tri[:], axis, value, side)
	for _, t := range Triangulate(clipped) {
		var idx [3]uint32
		for i, v := range t {
			idx[i] = emit(v, dm, out)
		}
		out.AddTriangle(idx[0], idx[1], idx[2])
	}
}

// emit adds v to out, reusing an existing index if dm already has a vertex
// with the same DedupKey (boundary dedup).
func emit(v mesh.Vertex, dm *mesh.DedupMap, out *mesh.Builder) uint32 {
	if dm == nil {
		return out.AddVertex(v)
	}
	key := mesh.KeyOf(v)
	if idx, ok := dm.Lookup(key); ok {
		return idx
	}
	idx := out.AddVertex(v)
	dm.Put(key, idx)
	return idx
}
