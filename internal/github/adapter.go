package github

import (
	"context"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/queue"
)

// Adapter drains one project's intake queue and translates raw deliveries
// into domain events. It owns the downstream event queue: once the intake
// closes or ctx is canceled it closes the event queue, letting the logic
// worker drain what is left and exit.
type Adapter struct {
	project string
	intake  *queue.Queue[Envelope]
	events  *queue.Queue[entities.Event]
	log     *zap.SugaredLogger
}

// NewAdapter wires an Adapter between a project's intake and event queues.
func NewAdapter(
	project string,
	intake *queue.Queue[Envelope],
	events *queue.Queue[entities.Event],
	log *zap.SugaredLogger,
) *Adapter {
	return &Adapter{
		project: project,
		intake:  intake,
		events:  events,
		log:     log.Named("adapter").With("project", project),
	}
}

// Run processes deliveries until the intake queue closes.
func (a *Adapter) Run(ctx context.Context) {
	defer a.events.Close()
	for {
		envelope, ok := a.intake.Dequeue(ctx)
		if !ok {
			return
		}
		event, err := Translate(envelope)
		if err != nil {
			a.log.Warnw("dropping undecodable delivery",
				"delivery_id", envelope.DeliveryID,
				"event", envelope.Name,
				"error", err)
			continue
		}
		if event == nil {
			a.log.Debugw("delivery does not affect the queue",
				"delivery_id", envelope.DeliveryID,
				"event", envelope.Name)
			continue
		}
		if !a.events.Enqueue(ctx, event) {
			return
		}
		a.log.Infow("event enqueued",
			"delivery_id", envelope.DeliveryID,
			"kind", event.Kind())
	}
}
