package tileset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/joeblew999/tile3d/internal/atlas"
	"github.com/joeblew999/tile3d/internal/config"
	"github.com/joeblew999/tile3d/internal/glbio"
	"github.com/joeblew999/tile3d/internal/mesh"
	"github.com/joeblew999/tile3d/internal/octree"
	"github.com/joeblew999/tile3d/internal/simplify"
	"github.com/joeblew999/tile3d/internal/texture"
)

// uvAttributeWeight and normalAttributeWeight penalize edge collapses that
// would visibly distort UVs or shading. Not exposed in TilingConfig, so
// fixed, moderate defaults are used throughout.
const (
	uvAttributeWeight     = 0.1
	normalAttributeWeight = 0.01
	// skipCompactionBelowVertices is the simplifier's post-step skip
	// threshold; below this vertex count the dense-remap allocation costs
	// more than it saves.
	skipCompactionBelowVertices = 512
)

// BuildOptions configures one top-level Build call.
type BuildOptions struct {
	Config    config.TilingConfig
	OutDir    string
	Transform *[16]float64 // root-only ECEF transform; nil omits it
	Events    chan<- Event // optional; never blocked on if unbuffered and unread past capacity
	Cancel    <-chan struct{}
}

type buildState struct {
	cfg    config.TilingConfig
	lib    *mesh.MaterialLibrary
	outDir string
	events chan<- Event
	cancel <-chan struct{}
	// sem bounds how many nodes run their own simplify+encode+write work at
	// once across the whole run: every level of the recursion acquires from
	// the same weighted semaphore, so depth-8 fan-out doesn't oversubscribe
	// the machine the way one errgroup.SetLimit per node would. The
	// buildTile goroutines themselves are not bounded. Each node still
	// tracks and waits on only its own children, via a fresh errgroup.Group.
	sem *semaphore.Weighted

	mu       sync.Mutex
	failures []Failure
}

// Build runs C5 top to bottom: it recursively simplifies, splits, and
// writes GLB content for the whole tree rooted at box, then returns the
// root Node plus any Output failures that aborted individual subtrees.
// The top-level call only fails (returns a non-nil error) when the root's
// own GLB cannot be written.
func Build(m *mesh.IndexedMesh, lib *mesh.MaterialLibrary, box mesh.BoundingBox, opts BuildOptions) (*Result, error) {
	threads := opts.Config.Threads
	if threads < 1 {
		threads = 1
	}
	bs := &buildState{
		cfg:    opts.Config,
		lib:    lib,
		outDir: opts.OutDir,
		events: opts.Events,
		cancel: opts.Cancel,
		sem:    semaphore.NewWeighted(int64(threads)),
	}

	root := bs.buildTile(m, box, "root", 0)
	if bs.events != nil {
		bs.emit(Event{Kind: EventBuildComplete})
		close(bs.events)
	}
	if root == nil {
		return nil, fmt.Errorf("tileset: root content could not be written")
	}
	return &Result{Root: root, Failures: bs.failures}, nil
}

// buildTile implements one recursive build step: simplify, write content,
// stop-check, split, recurse.
func (b *buildState) buildTile(m *mesh.IndexedMesh, box mesh.BoundingBox, address string, depth int) *Node {
	select {
	case <-b.cancel:
		return nil
	default:
	}
	b.emit(Event{Kind: EventNodeStarted, Address: address, Level: depth, Triangles: m.TriangleCount()})

	// The semaphore bounds only this node's own simplify+encode+write work,
	// never the wait on its children below: holding a slot across g.Wait()
	// would let in-flight ancestors starve their own children of slots and
	// deadlock the whole build once the tree is deeper than one level.
	if err := b.sem.Acquire(context.Background(), 1); err != nil {
		return nil
	}
	lvl := b.cfg.LevelForDepth(depth)
	simplified, _ := simplify.Simplify(m, simplify.Options{
		TargetRatio:                 lvl.Ratio,
		LockBorder:                  lvl.LockBorder,
		UVWeight:                    uvAttributeWeight,
		NormalWeight:                normalAttributeWeight,
		SkipCompactionBelowVertices: skipCompactionBelowVertices,
	})

	node := &Node{Address: address, Level: depth, Box: box, TriangleCount: simplified.TriangleCount()}

	if simplified.TriangleCount() > 0 {
		uri, err := b.writeContent(simplified, address)
		if err != nil {
			b.sem.Release(1)
			b.addFailure(address, "write_content", err)
			b.emit(Event{Kind: EventNodeFailed, Address: address, Level: depth, Err: err})
			return nil
		}
		node.ContentURI = uri
	}
	b.sem.Release(1)

	stop := depth >= b.cfg.MaxDepth ||
		m.TriangleCount() < b.cfg.MaxTrianglesPerTile ||
		box.Diagonal() < b.cfg.MinTileSizeM ||
		m.TriangleCount() == 0
	if stop {
		node.GeometricError = 0
		b.emit(Event{Kind: EventNodeWritten, Address: address, Level: depth, Triangles: node.TriangleCount})
		return node
	}

	children := octree.Split(m, box)
	childNodes := make([]*Node, 8)
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		cm := children[i]
		if cm == nil || cm.TriangleCount() == 0 {
			continue
		}
		i, cm := i, cm
		g.Go(func() error {
			childNodes[i] = b.buildTile(cm, box.Octant(i), childAddress(address, i), depth+1)
			return nil
		})
	}
	_ = g.Wait()

	for _, cn := range childNodes {
		if cn != nil {
			node.Children = append(node.Children, cn)
		}
	}
	// Diagonal() halves exactly at every octree level (Octant splits each
	// axis at its midpoint), so basing error on box size alone - rather
	// than on lvl.Ratio, which can be 1.0 at the root - guarantees every
	// child's error is strictly less than its parent's and the root
	// carries the largest error in the tree.
	node.GeometricError = box.Diagonal() / 2
	b.emit(Event{Kind: EventNodeWritten, Address: address, Level: depth, Triangles: node.TriangleCount})
	return node
}

// writeContent builds this node's per-tile atlas, encodes its GLB, and
// writes it to tiles/<address>/tile.glb, returning the relative content URI.
func (b *buildState) writeContent(m *mesh.IndexedMesh, address string) (string, error) {
	outMesh, nodeLib, err := b.buildTileMaterial(m)
	if err != nil {
		return "", fmt.Errorf("atlas: %w", err)
	}

	data, err := glbio.Encode(outMesh, nodeLib, glbio.Options{UseBasisU: b.cfg.TextureFormat == "ktx2"})
	if err != nil {
		return "", fmt.Errorf("glb encode: %w", err)
	}

	relPath := contentPath(address)
	fullPath := filepath.Join(b.outDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write glb: %w", err)
	}
	return filepath.ToSlash(relPath), nil
}

// buildTileMaterial resolves the single-material library this node's GLB
// should reference: if the node has UVs and a base-color texture, repacks
// a compact per-tile atlas (C4) and rewrites the mesh's UVs to match;
// otherwise carries the material (if any) without a texture. A texture
// whose source image can't be decoded, or a format of "none", degrades to
// the textureless path rather than failing the whole node.
func (b *buildState) buildTileMaterial(m *mesh.IndexedMesh) (*mesh.IndexedMesh, *mesh.MaterialLibrary, error) {
	if m.Material < 0 || b.lib == nil || m.Material >= len(b.lib.Materials) {
		return m, nil, nil
	}
	mat := b.lib.Materials[m.Material]

	if b.cfg.TextureFormat == "none" || !m.HasUVs() || mat.BaseColorTexture == nil ||
		mat.BaseColorTexture.Index >= len(b.lib.Textures) {
		mat.BaseColorTexture = nil
		outMesh := *m
		outMesh.Material = 0
		return &outMesh, &mesh.MaterialLibrary{Materials: []mesh.Material{mat}}, nil
	}

	srcTex := b.lib.Textures[mat.BaseColorTexture.Index]
	srcImg, err := texture.Decode(srcTex)
	if err != nil {
		mat.BaseColorTexture = nil
		outMesh := *m
		outMesh.Material = 0
		return &outMesh, &mesh.MaterialLibrary{Materials: []mesh.Material{mat}}, nil
	}

	remapped, atlasImg, err := atlas.Repack(m, srcImg, b.cfg.TextureMaxSize)
	if err != nil {
		// Retry once with a larger canvas before giving up.
		remapped, atlasImg, err = atlas.Repack(m, srcImg, b.cfg.TextureMaxSize*2)
		if err != nil {
			return nil, nil, fmt.Errorf("repack: %w", err)
		}
	}
	remapped.Material = 0
	if atlasImg == nil {
		mat.BaseColorTexture = nil
		return remapped, &mesh.MaterialLibrary{Materials: []mesh.Material{mat}}, nil
	}

	encoded, err := texture.Encode(atlasImg, texture.Format(b.cfg.TextureFormat), b.cfg.TextureQuality)
	if err != nil {
		return nil, nil, fmt.Errorf("encode texture: %w", err)
	}
	mat.BaseColorTexture = &mesh.TextureRef{Index: 0}
	return remapped, &mesh.MaterialLibrary{Materials: []mesh.Material{mat}, Textures: []mesh.TextureImage{encoded}}, nil
}

func (b *buildState) emit(ev Event) {
	if b.events == nil {
		return
	}
	select {
	case b.events <- ev:
	default:
	}
}

func (b *buildState) addFailure(address, op string, err error) {
	b.mu.Lock()
	b.failures = append(b.failures, Failure{Address: address, Operation: op, Err: err})
	b.mu.Unlock()
}

// childAddress builds the dotted-but-underscored TileNode address for
// octant idx of parent (e.g. "2", "2_1", "2_1_3").
func childAddress(parent string, idx int) string {
	if parent == "root" {
		return strconv.Itoa(idx)
	}
	return parent + "_" + strconv.Itoa(idx)
}

// contentPath maps a TileNode address to its on-disk GLB path:
// root -> tiles/root.glb, "0" -> tiles/0/tile.glb, "0_1" -> tiles/0/1/tile.glb.
func contentPath(address string) string {
	if address == "root" {
		return filepath.Join("tiles", "root.glb")
	}
	parts := splitAddress(address)
	segs := append([]string{"tiles"}, parts...)
	segs = append(segs, "tile.glb")
	return filepath.Join(segs...)
}

func splitAddress(address string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(address); i++ {
		if address[i] == '_' {
			parts = append(parts, address[start:i])
			start = i + 1
		}
	}
	parts = append(parts, address[start:])
	return parts
}
