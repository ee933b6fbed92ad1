package logic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/queue"
	"github.com/pbrinkmeier/hoff/internal/repository"
)

// Worker drives one project's merge queue. It is the only goroutine touching
// the project state: every turn runs the event transition, the proceed loop,
// an atomic save and a snapshot publish, in that order.
type Worker struct {
	project string
	handler *Handler
	events  *queue.Queue[entities.Event]
	store   repository.StateStore
	reg     *Register
	log     *zap.SugaredLogger
}

// NewWorker wires a Worker to its event queue, state store and snapshot
// register.
func NewWorker(
	project string,
	handler *Handler,
	events *queue.Queue[entities.Event],
	store repository.StateStore,
	reg *Register,
	log *zap.SugaredLogger,
) *Worker {
	return &Worker{
		project: project,
		handler: handler,
		events:  events,
		store:   store,
		reg:     reg,
		log:     log.Named("worker").With("project", project),
	}
}

// Run restores the persisted state, converges it once, then consumes events
// until the queue closes. Any error is fatal for the project; the caller
// brings the process down rather than keep a wedged queue alive.
func (w *Worker) Run(ctx context.Context) error {
	state, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", w.project, err)
	}
	w.reg.Publish(state)
	w.log.Infow("state restored", "pull_requests", len(state.PullRequests), "candidate", state.Candidate)

	// The previous run may have stopped between a persisted transition and
	// its follow-up actions. One proceed pass re-issues them.
	if err := w.turn(ctx, &state, nil); err != nil {
		return fmt.Errorf("%s: converge on start: %w", w.project, err)
	}

	for {
		event, ok := w.events.Dequeue(ctx)
		if !ok {
			w.log.Infow("event queue closed, stopping")
			return nil
		}
		w.log.Infow("handling event", "kind", event.Kind())
		if err := w.turn(ctx, &state, event); err != nil {
			return fmt.Errorf("%s: handle %s: %w", w.project, event.Kind(), err)
		}
	}
}

func (w *Worker) turn(ctx context.Context, state *entities.ProjectState, event entities.Event) error {
	if event != nil {
		if err := w.handler.HandleEvent(ctx, state, event); err != nil {
			return err
		}
	}
	if err := w.handler.ProceedUntilFixedPoint(ctx, state); err != nil {
		return err
	}
	if err := w.store.Save(ctx, *state); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	w.reg.Publish(*state)
	return nil
}
