// Package tileset implements C5: the recursive tile-tree orchestrator that
// ties the simplifier (C1), clipper (C2), octree splitter (C3), and atlas
// repacker (C4) together into an OGC 3D Tiles 1.1 hierarchy on disk.
package tileset

import "github.com/joeblew999/tile3d/internal/mesh"

// Node is one TileNode of the built tree. Address is e.g. "root",
// "2", "2_1", "2_1_3"; Level 0 is the root.
type Node struct {
	Address        string
	Level          int
	Box            mesh.BoundingBox
	GeometricError float64
	ContentURI     string // relative URI, empty if this node has no content
	TriangleCount  int
	Children       []*Node
}

// Result is the outcome of one top-level Build call: the root node plus
// any Output-kind failures that aborted individual subtrees without
// failing the whole run.
type Result struct {
	Root     *Node
	Failures []Failure
}

// Failure names one subtree abort: the tile address, the operation that
// failed, and the underlying error.
type Failure struct {
	Address   string
	Operation string
	Err       error
}

func (f Failure) Error() string {
	return "tile " + f.Address + ": " + f.Operation + ": " + f.Err.Error()
}

// EventKind distinguishes the events published on a Build's event channel.
type EventKind int

const (
	EventNodeStarted EventKind = iota
	EventNodeWritten
	EventNodeFailed
	EventBuildComplete
)

// Event is one progress notification. The tiling core never calls back
// into caller code on its hot path; instead it publishes Events to a
// buffered channel that callers (the CLI, the SSE progress route) drain at
// their own pace.
type Event struct {
	Kind      EventKind
	Address   string
	Level     int
	Triangles int
	Err       error
}
