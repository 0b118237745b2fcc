package mesh

import "math"

// quantScale controls how finely DedupKey quantizes position/UV/normal
// components before hashing. Each component is rounded to the nearest
// multiple of 1/quantScale; two vertices whose components all round to the
// same multiples collapse to the same key.
const quantScale = 1 << 16

// DedupKey is the boundary-vertex identity used by the clipper and the atlas
// repacker to decide whether two newly created vertices are "the same"
// point and can therefore share one output vertex. It deliberately includes
// UV and normal, not just position: two vertices that meet in 3D but diverge
// in UV must NOT collapse, or islands bleed into each other across a seam.
type DedupKey struct {
	Pos    [3]int64
	UV     [2]int64
	Normal [3]int64
	HasUV  bool
	HasN   bool
}

func quant(v float64) int64 {
	return int64(math.Round(v * quantScale))
}

// KeyOf builds the DedupKey for a Vertex.
func KeyOf(v Vertex) DedupKey {
	k := DedupKey{
		Pos: [3]int64{quant(v.Position[0]), quant(v.Position[1]), quant(v.Position[2])},
	}
	if v.HasUV {
		k.UV = [2]int64{quant(v.UV[0]), quant(v.UV[1])}
		k.HasUV = true
	}
	if v.HasNormal {
		k.Normal = [3]int64{quant(v.Normal[0]), quant(v.Normal[1]), quant(v.Normal[2])}
		k.HasN = true
	}
	return k
}

// DedupMap hands out a stable output index per DedupKey, scoped to one
// clip/split/pack invocation — never shared across nodes, since a shared
// edge's vertices must match on both sides of exactly that one cut.
type DedupMap struct {
	index map[DedupKey]uint32
}

// NewDedupMap creates an empty scoped dedup map.
func NewDedupMap() *DedupMap {
	return &DedupMap{index: make(map[DedupKey]uint32)}
}

// Lookup returns the existing output index for key, if any.
func (d *DedupMap) Lookup(key DedupKey) (uint32, bool) {
	idx, ok := d.index[key]
	return idx, ok
}

// Put records that key maps to output index idx.
func (d *DedupMap) Put(key DedupKey, idx uint32) {
	d.index[key] = idx
}

// Keys returns every key currently recorded, used by tests asserting that
// two octants' boundary-vertex key sets match along a shared midplane.
func (d *DedupMap) Keys() map[DedupKey]struct{} {
	out := make(map[DedupKey]struct{}, len(d.index))
	for k := range d.index {
		out[k] = struct{}{}
	}
	return out
}
