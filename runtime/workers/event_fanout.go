package workers

import (
	"context"
	"log/slog"

	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/observability"
)

var _ contract.IFanout = (*EventFanout)(nil)

// EventFanout pushes outbound events to every live session of their recipients.
//
// It is best effort: a sink that is closed or too slow is skipped and
// reconciled by its own connection, never retried here. Frames are handed
// to sinks serially so every session sees events in the order Deliver was called.
//
// EventFanout is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log      *slog.Logger
	registry contract.IRegistry
	metrics  *observability.Metrics
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, metrics *observability.Metrics) *EventFanout {
	return &EventFanout{log: log, registry: registry, metrics: metrics}
}

// Deliver encodes each event once and hands the frame to every recipient sink.
func (f *EventFanout) Deliver(ctx context.Context, deliveries ...event.Delivery) {
	for _, delivery := range deliveries {
		frame, err := event.EncodeOutbound(delivery.Event)
		if err != nil {
			f.log.Error("Cannot encode outbound event", "kind", delivery.Event.Kind(), "error", err)
			f.count(observability.DeliveryEncode)
			continue
		}
		for _, sink := range f.registry.SinksFor(delivery.Recipients...) {
			f.consume(ctx, sink, frame)
		}
	}
}

func (f *EventFanout) consume(ctx context.Context, sink contract.EventSink, frame []byte) {
	err := sink.Consume(ctx, frame)
	switch {
	case err == nil:
		f.count(observability.DeliveryDelivered)
	case errors.Is(err, errors.ErrSlowConsumer):
		f.count(observability.DeliverySlow)
	default:
		f.log.Debug("Skipping closed session", "error", err)
		f.count(observability.DeliveryClosed)
	}
}

func (f *EventFanout) count(result string) {
	if f.metrics != nil {
		f.metrics.DeliveriesTotal.WithLabelValues(result).Inc()
	}
}
