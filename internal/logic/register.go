package logic

import (
	"sync/atomic"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// Register hands read-only state snapshots to the HTTP layer. The worker
// swaps in a fresh copy after every turn; readers never block the worker and
// always see a complete state.
type Register struct {
	state atomic.Pointer[entities.ProjectState]
}

// NewRegister starts with the empty state.
func NewRegister() *Register {
	r := &Register{}
	empty := entities.ProjectState{}
	r.state.Store(&empty)
	return r
}

// Publish replaces the visible snapshot.
func (r *Register) Publish(state entities.ProjectState) {
	snapshot := state.Clone()
	r.state.Store(&snapshot)
}

// Snapshot returns an independent copy of the last published state.
func (r *Register) Snapshot() entities.ProjectState {
	return r.state.Load().Clone()
}
