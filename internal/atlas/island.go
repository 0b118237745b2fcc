// Package atlas implements C4: UV-island detection, guillotine packing,
// bleed compositing, and UV remap for a tile's per-tile texture atlas.
package atlas

import (
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Island is a connected component of triangles under UV-aware edge
// adjacency: two triangles are adjacent only if they share an edge
// whose endpoints carry matching DedupKeys, so triangles that meet in 3D
// but diverge in UV fall into separate islands.
type Island struct {
	Triangles  []int
	UMin, VMin float64
	UMax, VMax float64
	// OffsetU, OffsetV are the single per-axis integer shift applied to
	// every vertex's raw UV before comparing it against UMin/VMin: one
	// offset for the whole island, not a per-vertex wrap, so an island
	// straddling an integer UV seam keeps its vertices in a consistent
	// order instead of having some wrap past the seam and invert the span.
	OffsetU, OffsetV float64
}

func triEdgeKey(a, b mesh.DedupKey) [2]mesh.DedupKey {
	if keyLess(b, a) {
		a, b = b, a
	}
	return [2]mesh.DedupKey{a, b}
}

// keyLess provides an arbitrary but total order over DedupKey so an edge's
// two endpoints can be canonicalized into one map key regardless of
// triangle winding.
func keyLess(a, b mesh.DedupKey) bool {
	for i := 0; i < 3; i++ {
		if a.Pos[i] != b.Pos[i] {
			return a.Pos[i] < b.Pos[i]
		}
	}
	for i := 0; i < 2; i++ {
		if a.UV[i] != b.UV[i] {
			return a.UV[i] < b.UV[i]
		}
	}
	for i := 0; i < 3; i++ {
		if a.Normal[i] != b.Normal[i] {
			return a.Normal[i] < b.Normal[i]
		}
	}
	if a.HasUV != b.HasUV {
		return !a.HasUV
	}
	return !a.HasN && b.HasN
}

// DetectIslands partitions m's triangles into UV islands. m must have UVs;
// callers check HasUVs first.
func DetectIslands(m *mesh.IndexedMesh) []Island {
	triCount := m.TriangleCount()
	if triCount == 0 {
		return nil
	}

	g := core.NewGraph(core.WithDirected(false))
	for t := 0; t < triCount; t++ {
		_ = g.AddVertex(strconv.Itoa(t))
	}

	edgeTris := make(map[[2]mesh.DedupKey][]int)
	for t := 0; t < triCount; t++ {
		ia, ib, ic := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		ka, kb, kc := mesh.KeyOf(m.VertexAt(ia)), mesh.KeyOf(m.VertexAt(ib)), mesh.KeyOf(m.VertexAt(ic))
		for _, pair := range [][2]mesh.DedupKey{triEdgeKey(ka, kb), triEdgeKey(kb, kc), triEdgeKey(kc, ka)} {
			edgeTris[pair] = append(edgeTris[pair], t)
		}
	}
	for _, tris := range edgeTris {
		for i := 0; i < len(tris); i++ {
			for j := i + 1; j < len(tris); j++ {
				_, _ = g.AddEdge(strconv.Itoa(tris[i]), strconv.Itoa(tris[j]), 0)
			}
		}
	}

	visited := make(map[string]bool, triCount)
	var islands []Island
	for t := 0; t < triCount; t++ {
		id := strconv.Itoa(t)
		if visited[id] {
			continue
		}
		res, err := bfs.BFS(g, id)
		if err != nil {
			// single-triangle island: BFS only fails on graph-shape errors
			// that cannot occur for an undirected unweighted graph we built
			// ourselves, so fall back to a singleton rather than propagate.
			islands = append(islands, islandOf(m, []int{t}))
			visited[id] = true
			continue
		}
		members := make([]int, 0, len(res.Order))
		for _, v := range res.Order {
			visited[v] = true
			n, _ := strconv.Atoi(v)
			members = append(members, n)
		}
		islands = append(islands, islandOf(m, members))
	}
	return islands
}

// islandOf scans triangles' raw (unwrapped) UVs for their min/max, then
// folds the whole island by one offset — floor(rawMin) on each axis —
// rather than wrapping each vertex independently. An island's triangles
// are UV-connected by construction (shared edges carry identical raw UV
// values), so the raw span is never actually discontinuous; wrapping
// per vertex would be the one thing that could introduce a fake seam.
func islandOf(m *mesh.IndexedMesh, triangles []int) Island {
	isl := Island{Triangles: triangles}
	first := true
	for _, t := range triangles {
		for _, vi := range [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]} {
			v := m.VertexAt(vi)
			u, vv := v.UV[0], v.UV[1]
			if first {
				isl.UMin, isl.UMax, isl.VMin, isl.VMax = u, u, vv, vv
				first = false
				continue
			}
			if u < isl.UMin {
				isl.UMin = u
			}
			if u > isl.UMax {
				isl.UMax = u
			}
			if vv < isl.VMin {
				isl.VMin = vv
			}
			if vv > isl.VMax {
				isl.VMax = vv
			}
		}
	}
	isl.OffsetU, isl.OffsetV = floor(isl.UMin), floor(isl.VMin)
	isl.UMin -= isl.OffsetU
	isl.UMax -= isl.OffsetU
	isl.VMin -= isl.OffsetV
	isl.VMax -= isl.OffsetV
	return isl
}

func floor(v float64) float64 {
	i := float64(int64(v))
	if v < 0 && i != v {
		i--
	}
	return i
}
