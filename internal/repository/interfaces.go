package repository

import (
	"context"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// StateStore persists one project's merge queue state. The logic worker is
// the only writer; it saves after every handled event and loads once on
// startup.
type StateStore interface {
	// Load reads the last persisted state. A store that was never written
	// returns the empty state.
	Load(ctx context.Context) (entities.ProjectState, error)
	// Save replaces the persisted state atomically.
	Save(ctx context.Context, state entities.ProjectState) error
}
