// Package cancel tracks cooperative cancellation for long-running runs. Each
// (work item, process) pair gets its own context; cancelling it stops the run
// at its next checkpoint, never mid-flight except where a call races the
// context deliberately.
package cancel

import (
	"context"
	"sync"
)

// Process identifies which orchestrated run a signal targets.
type Process string

const (
	ProcessAnalysis   Process = "analysis"
	ProcessGeneration Process = "generation"
)

type key struct {
	workItemID string
	process    Process
}

// Registry hands out cancellation contexts per run. Starting a new run for the
// same (work item, process) pair resets any earlier signal.
type Registry struct {
	mu      sync.Mutex
	cancels map[key]context.CancelFunc
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{cancels: make(map[key]context.CancelFunc)}
}

// Begin derives the run context. Any previous run for the same pair is
// cancelled first, so stale signals cannot leak into the new run.
func (r *Registry) Begin(parent context.Context, workItemID string, process Process) (context.Context, context.CancelFunc) {
	k := key{workItemID: workItemID, process: process}
	ctx, cancelFn := context.WithCancel(parent)

	r.mu.Lock()
	if prev, ok := r.cancels[k]; ok {
		prev()
	}
	r.cancels[k] = cancelFn
	r.mu.Unlock()

	return ctx, cancelFn
}

// Cancel fires the signal for a run. Returns false when no run is registered.
func (r *Registry) Cancel(workItemID string, process Process) bool {
	k := key{workItemID: workItemID, process: process}

	r.mu.Lock()
	cancelFn, ok := r.cancels[k]
	r.mu.Unlock()

	if !ok {
		return false
	}
	cancelFn()
	return true
}

// Finish releases the registration once a run has returned.
func (r *Registry) Finish(workItemID string, process Process) {
	k := key{workItemID: workItemID, process: process}

	r.mu.Lock()
	if cancelFn, ok := r.cancels[k]; ok {
		cancelFn()
		delete(r.cancels, k)
	}
	r.mu.Unlock()
}
