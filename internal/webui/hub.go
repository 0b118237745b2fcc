// Package webui relays tileset.Event values from an in-flight build onto a
// Datastar SSE stream, the thin presentation layer behind `tile3d serve`'s
// /progress/{runID} route. The tiling core never calls back into this
// package on its hot path — it only ever writes to the buffered channel
// Hub.Register hands out, and this package is the sole consumer that turns
// those events into patched signals.
package webui

import (
	"net/http"
	"sync"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/tile3d/internal/tileset"
)

// Hub tracks one event channel per registered run, until Forget drops it.
type Hub struct {
	mu   sync.Mutex
	runs map[string]chan tileset.Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{runs: make(map[string]chan tileset.Event)}
}

// Register associates runID with the event channel produced by
// tileset.BuildOptions.Events, so later SSE subscribers can relay it.
func (h *Hub) Register(runID string, events chan tileset.Event) {
	h.mu.Lock()
	h.runs[runID] = events
	h.mu.Unlock()
}

// Forget drops a run's channel; ServeProgress then reports runID as unknown.
func (h *Hub) Forget(runID string) {
	h.mu.Lock()
	delete(h.runs, runID)
	h.mu.Unlock()
}

func (h *Hub) channel(runID string) (chan tileset.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.runs[runID]
	return ch, ok
}

// ServeProgress streams runID's events as Datastar signal patches until the
// channel closes or the client disconnects. Returns false if runID is
// unknown (caller should respond 404).
func (h *Hub) ServeProgress(w http.ResponseWriter, r *http.Request, runID string) bool {
	ch, ok := h.channel(runID)
	if !ok {
		return false
	}
	sse := datastar.NewSSE(w, r)
	for {
		select {
		case ev, open := <-ch:
			if !open {
				return true
			}
			signals := map[string]any{
				"address":   ev.Address,
				"level":     ev.Level,
				"triangles": ev.Triangles,
				"kind":      int(ev.Kind),
			}
			if ev.Err != nil {
				signals["error"] = ev.Err.Error()
			}
			_ = sse.MarshalAndPatchSignals(signals)
		case <-r.Context().Done():
			return true
		}
	}
}
