package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments recorded by the notification path.
type Metrics struct {
	deliveries    metric.Int64Counter
	notifications metric.Int64Counter
	outcomes      metric.Int64Counter
	walkPages     metric.Int64Histogram
	walkResets    metric.Int64Counter
}

// NewMetrics creates the service's metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	deliveries, err := meter.Int64Counter("webhook.deliveries.total",
		metric.WithDescription("Inbound webhook deliveries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating webhook.deliveries.total: %w", err)
	}

	notifications, err := meter.Int64Counter("webhook.notifications.total",
		metric.WithDescription("Notification entries across all deliveries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating webhook.notifications.total: %w", err)
	}

	outcomes, err := meter.Int64Counter("pipeline.outcomes.total",
		metric.WithDescription("Per-item pipeline outcomes by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.outcomes.total: %w", err)
	}

	walkPages, err := meter.Int64Histogram("feed.walk.pages",
		metric.WithDescription("Pages fetched per completed feed pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating feed.walk.pages: %w", err)
	}

	walkResets, err := meter.Int64Counter("feed.walk.resets.total",
		metric.WithDescription("Cursor resets from ceiling overruns or invalid cursors"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating feed.walk.resets.total: %w", err)
	}

	return &Metrics{
		deliveries:    deliveries,
		notifications: notifications,
		outcomes:      outcomes,
		walkPages:     walkPages,
		walkResets:    walkResets,
	}, nil
}

// RecordDelivery counts one inbound webhook delivery.
func (m *Metrics) RecordDelivery(ctx context.Context) {
	if m == nil {
		return
	}
	m.deliveries.Add(ctx, 1)
}

// RecordNotification counts one notification entry.
func (m *Metrics) RecordNotification(ctx context.Context) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1)
}

// RecordOutcome counts one pipeline outcome by kind.
func (m *Metrics) RecordOutcome(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(KV("kind", kind)))
}

// RecordWalk records the page count of a completed pass and whether it reset.
func (m *Metrics) RecordWalk(ctx context.Context, pages int, reset bool) {
	if m == nil {
		return
	}
	m.walkPages.Record(ctx, int64(pages))
	if reset {
		m.walkResets.Add(ctx, 1)
	}
}
