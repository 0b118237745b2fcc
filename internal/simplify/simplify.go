// Package simplify implements C1: quadric-error-metric edge-collapse
// simplification of an IndexedMesh to a target triangle ratio.
package simplify

import (
	"container/heap"
	"math"

	"github.com/joeblew999/tile3d/internal/mesh"
)

// Options configures one Simplify call input list.
type Options struct {
	// TargetRatio is the fraction of input triangles to keep, in (0,1].
	// A ratio >= 1 is a passthrough.
	TargetRatio float64
	// LockBorder forbids collapsing edges with exactly one adjacent
	// triangle, and forbids moving their endpoints via any other edge.
	LockBorder bool
	// UVWeight and NormalWeight scale the attribute-deviation penalty
	// added to an edge's quadric cost, discouraging collapses that would
	// visibly distort UVs or shading.
	UVWeight     float64
	NormalWeight float64
	// MaxError stops collapsing once the cheapest remaining edge would
	// exceed this absolute cost, even if TargetRatio has not been
	// reached. Zero disables the threshold.
	MaxError float64
	// SkipCompactionBelowVertices skips the post-collapse vertex
	// compaction pass when the input has fewer vertices than this: below
	// it the dense remap's allocation costs more than it saves.
	SkipCompactionBelowVertices int
}

// Result reports whether Simplify fully reached its target.
type Result struct {
	OutputTriangles int
	ReachedTarget   bool
}

// Simplify returns a simplified copy of m. It never mutates m.
func Simplify(m *mesh.IndexedMesh, opts Options) (*mesh.IndexedMesh, Result) {
	triCount := m.TriangleCount()
	if triCount == 0 || opts.TargetRatio >= 1 {
		return passthrough(m), Result{OutputTriangles: triCount, ReachedTarget: true}
	}

	targetTris := int(math.Round(float64(triCount) * opts.TargetRatio))
	if targetTris < 1 {
		targetTris = 1
	}
	if targetTris >= triCount {
		return passthrough(m), Result{OutputTriangles: triCount, ReachedTarget: true}
	}

	sm := buildSimplificationMesh(m)
	sm.computeQuadrics()
	sm.computeEdgeCosts(opts)
	heap.Init(&sm.edges)

	aliveTris := triCount
	reached := true
	for aliveTris > targetTris && len(sm.edges) > 0 {
		e := heap.Pop(&sm.edges).(*simEdge)
		if e.stale {
			continue
		}
		if !e.collapsible {
			continue
		}
		if opts.MaxError > 0 && e.cost > opts.MaxError {
			reached = false
			break
		}
		removed := sm.collapseEdge(e, opts)
		aliveTris -= removed
	}
	if aliveTris > targetTris {
		reached = false
	}

	out := sm.toMesh(m.Material, opts.SkipCompactionBelowVertices)
	return out, Result{OutputTriangles: out.TriangleCount(), ReachedTarget: reached}
}

func passthrough(m *mesh.IndexedMesh) *mesh.IndexedMesh {
	cp := *m
	cp.Positions = append([]float32(nil), m.Positions...)
	cp.Indices = append([]uint32(nil), m.Indices...)
	if m.Normals != nil {
		cp.Normals = append([]float32(nil), m.Normals...)
	}
	if m.UVs != nil {
		cp.UVs = append([]float32(nil), m.UVs...)
	}
	if m.Colors != nil {
		cp.Colors = append([]float32(nil), m.Colors...)
	}
	return &cp
}

type simVertex struct {
	pos       [3]float64
	normal    [3]float64
	uv        [2]float64
	color     [4]float64
	hasNormal bool
	hasUV     bool
	hasColor  bool
	quadric   Quadric
	edges     []*simEdge
	borderCnt int // number of incident border (single-adjacency) edges
	alive     bool
}

type simEdge struct {
	v0, v1      uint32
	cost        float64
	target      [3]float64
	triAdj      int // number of alive triangles referencing this edge
	collapsible bool
	stale       bool
	index       int
}

type edgeHeap []*simEdge

func (h edgeHeap) Len() int            { return len(h) }
func (h edgeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h edgeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *edgeHeap) Push(x interface{}) {
	e := x.(*simEdge)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *edgeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type simMesh struct {
	verts     []simVertex
	triangles [][3]uint32
	triAlive  []bool
	edges     edgeHeap
	edgeOf    map[[2]uint32]*simEdge
}

func buildSimplificationMesh(m *mesh.IndexedMesh) *simMesh {
	vcount := m.VertexCount()
	sm := &simMesh{
		verts:     make([]simVertex, vcount),
		triangles: make([][3]uint32, m.TriangleCount()),
		triAlive:  make([]bool, m.TriangleCount()),
		edgeOf:    make(map[[2]uint32]*simEdge),
	}
	for i := 0; i < vcount; i++ {
		v := m.VertexAt(uint32(i))
		sm.verts[i] = simVertex{
			pos: v.Position, normal: v.Normal, uv: v.UV, color: v.Color,
			hasNormal: v.HasNormal, hasUV: v.HasUV, hasColor: v.HasColor,
			alive: true,
		}
	}
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		sm.triangles[t] = [3]uint32{a, b, c}
		sm.triAlive[t] = true
		sm.touchEdge(a, b)
		sm.touchEdge(b, c)
		sm.touchEdge(c, a)
	}
	for _, e := range sm.edgeOf {
		if e.triAdj == 1 {
			sm.verts[e.v0].borderCnt++
			sm.verts[e.v1].borderCnt++
		}
		sm.edges = append(sm.edges, e)
		sm.verts[e.v0].edges = append(sm.verts[e.v0].edges, e)
		sm.verts[e.v1].edges = append(sm.verts[e.v1].edges, e)
	}
	return sm
}

func edgeKey(a, b uint32) [2]uint32 {
	if a > b {
		a, b = b, a
	}
	return [2]uint32{a, b}
}

func (sm *simMesh) touchEdge(a, b uint32) {
	key := edgeKey(a, b)
	e, ok := sm.edgeOf[key]
	if !ok {
		e = &simEdge{v0: key[0], v1: key[1]}
		sm.edgeOf[key] = e
	}
	e.triAdj++
}

func (sm *simMesh) isBorder(v uint32) bool { return sm.verts[v].borderCnt > 0 }

func (sm *simMesh) computeQuadrics() {
	for t, tri := range sm.triangles {
		if !sm.triAlive[t] {
			continue
		}
		a, b, c := sm.verts[tri[0]].pos, sm.verts[tri[1]].pos, sm.verts[tri[2]].pos
		q := triangleQuadric(a, b, c)
		sm.verts[tri[0]].quadric = sm.verts[tri[0]].quadric.Add(q)
		sm.verts[tri[1]].quadric = sm.verts[tri[1]].quadric.Add(q)
		sm.verts[tri[2]].quadric = sm.verts[tri[2]].quadric.Add(q)
	}
}

func (sm *simMesh) computeEdgeCosts(opts Options) {
	for _, e := range sm.edges {
		sm.computeEdgeCost(e, opts)
	}
}

func (sm *simMesh) computeEdgeCost(e *simEdge, opts Options) {
	v0, v1 := sm.verts[e.v0], sm.verts[e.v1]

	if opts.LockBorder {
		isBorderEdge := e.triAdj == 1
		bothLocked := sm.isBorder(e.v0) && sm.isBorder(e.v1)
		if isBorderEdge || bothLocked {
			e.collapsible = false
			e.cost = math.Inf(1)
			return
		}
	}
	e.collapsible = true

	switch {
	case opts.LockBorder && sm.isBorder(e.v0):
		e.target = v0.pos
	case opts.LockBorder && sm.isBorder(e.v1):
		e.target = v1.pos
	default:
		e.target = [3]float64{
			(v0.pos[0] + v1.pos[0]) / 2,
			(v0.pos[1] + v1.pos[1]) / 2,
			(v0.pos[2] + v1.pos[2]) / 2,
		}
	}

	q := v0.quadric.Add(v1.quadric)
	cost := q.Error(e.target[0], e.target[1], e.target[2])

	if opts.UVWeight > 0 && v0.hasUV && v1.hasUV {
		du := v0.uv[0] - v1.uv[0]
		dv := v0.uv[1] - v1.uv[1]
		cost += opts.UVWeight * (du*du + dv*dv)
	}
	if opts.NormalWeight > 0 && v0.hasNormal && v1.hasNormal {
		dot := v0.normal[0]*v1.normal[0] + v0.normal[1]*v1.normal[1] + v0.normal[2]*v1.normal[2]
		cost += opts.NormalWeight * (1 - dot)
	}
	e.cost = cost
}

// collapseEdge merges e.v1 into e.v0 at e.target, drops triangles that
// degenerate as a result, and returns how many triangles were removed.
func (sm *simMesh) collapseEdge(e *simEdge, opts Options) int {
	v0, v1 := e.v0, e.v1
	// Keep the border endpoint as the survivor so it stays marked as border
	// and its other edges keep treating it as locked.
	if opts.LockBorder && sm.isBorder(v1) && !sm.isBorder(v0) {
		v0, v1 = v1, v0
	}
	sm.verts[v0].pos = e.target
	sm.verts[v0].quadric = sm.verts[v0].quadric.Add(sm.verts[v1].quadric)
	if sm.verts[v0].hasNormal && sm.verts[v1].hasNormal {
		n := [3]float64{
			sm.verts[v0].normal[0] + sm.verts[v1].normal[0],
			sm.verts[v0].normal[1] + sm.verts[v1].normal[1],
			sm.verts[v0].normal[2] + sm.verts[v1].normal[2],
		}
		length := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if length > 1e-20 {
			n[0] /= length
			n[1] /= length
			n[2] /= length
		}
		sm.verts[v0].normal = n
	}
	if sm.verts[v0].hasUV && sm.verts[v1].hasUV {
		sm.verts[v0].uv = [2]float64{
			(sm.verts[v0].uv[0] + sm.verts[v1].uv[0]) / 2,
			(sm.verts[v0].uv[1] + sm.verts[v1].uv[1]) / 2,
		}
	}
	sm.verts[v1].alive = false

	removed := 0
	for t, tri := range sm.triangles {
		if !sm.triAlive[t] {
			continue
		}
		hasV0 := tri[0] == v0 || tri[1] == v0 || tri[2] == v0
		hasV1 := tri[0] == v1 || tri[1] == v1 || tri[2] == v1
		if hasV0 && hasV1 {
			sm.triAlive[t] = false
			removed++
			continue
		}
		if hasV1 {
			for i := range tri {
				if tri[i] == v1 {
					sm.triangles[t][i] = v0
				}
			}
		}
	}

	affected := sm.verts[v1].edges
	for _, other := range affected {
		if other == e || other.stale {
			continue
		}
		other.stale = true
		if other.v0 == v1 {
			other.v0 = v0
		}
		if other.v1 == v1 {
			other.v1 = v0
		}
		if other.v0 == other.v1 {
			continue // degenerated into a self-loop, drop it
		}
		fresh := &simEdge{v0: other.v0, v1: other.v1, triAdj: other.triAdj}
		sm.computeEdgeCost(fresh, opts)
		sm.verts[fresh.v0].edges = append(sm.verts[fresh.v0].edges, fresh)
		sm.verts[fresh.v1].edges = append(sm.verts[fresh.v1].edges, fresh)
		heap.Push(&sm.edges, fresh)
	}
	e.stale = true
	return removed
}

// toMesh converts the surviving triangles back into an IndexedMesh. Below
// skipCompactionThreshold vertices, the dense remap is skipped and the
// original vertex buffer width is kept even though some slots go unused.
func (sm *simMesh) toMesh(material int, skipCompactionThreshold int) *mesh.IndexedMesh {
	b := mesh.NewBuilder()
	remap := make(map[uint32]uint32, len(sm.verts))
	skipCompaction := len(sm.verts) < skipCompactionThreshold

	if skipCompaction {
		for i := range sm.verts {
			remap[uint32(i)] = b.AddVertex(sm.vertexAt(uint32(i)))
		}
	}

	for t, tri := range sm.triangles {
		if !sm.triAlive[t] {
			continue
		}
		var idx [3]uint32
		for i, vid := range tri {
			if ni, ok := remap[vid]; ok {
				idx[i] = ni
				continue
			}
			ni := b.AddVertex(sm.vertexAt(vid))
			remap[vid] = ni
			idx[i] = ni
		}
		b.AddTriangle(idx[0], idx[1], idx[2])
	}
	return b.Build(material)
}

func (sm *simMesh) vertexAt(id uint32) mesh.Vertex {
	v := sm.verts[id]
	return mesh.Vertex{
		Position: v.pos, Normal: v.normal, UV: v.uv, Color: v.color,
		HasNormal: v.hasNormal, HasUV: v.hasUV, HasColor: v.hasColor,
	}
}
