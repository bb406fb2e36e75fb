package notify

import (
	"context"

	"github.com/moogmodular/asksats-sub000/internal/utils"
)

// Worker drains the service's event channel and forwards each event to the
// relay. It runs outside every transaction and holds no locks.
type Worker struct {
	events <-chan Event
	relay  Relay
	logger *utils.Logger
}

// NewWorker creates a worker over the given channel and relay.
func NewWorker(events <-chan Event, relay Relay, logger *utils.Logger) *Worker {
	return &Worker{
		events: events,
		relay:  relay,
		logger: logger,
	}
}

// Run consumes events until the context is done or the channel closes.
// Relay errors are logged and swallowed.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			w.deliver(ctx, ev)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, ev Event) {
	if ev.Recipient != "" {
		if err := w.relay.SendDirect(ctx, ev.Recipient, ev.Message); err != nil {
			w.logger.Error("failed to deliver direct notification %s: %v", ev.Kind, err)
		}
	}
	if err := w.relay.PublishPublic(ctx, ev.Message); err != nil {
		w.logger.Error("failed to publish notification %s: %v", ev.Kind, err)
	}
}
