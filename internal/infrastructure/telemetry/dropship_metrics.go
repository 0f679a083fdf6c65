package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// DropshipMetrics records import and fulfillment metrics
type DropshipMetrics struct {
	importItems  *Counter
	orders       *Counter
	stepDuration *Histogram
	pollSkipped  *Counter
	queueDepth   *Gauge
}

// NewDropshipMetrics creates the dropship instruments on meter
func NewDropshipMetrics(meter metric.Meter) (*DropshipMetrics, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewDropshipMetrics", Message: "meter is required"}
	}

	importItems, err := NewCounter(meter, "dropship_import_items_total",
		"Imported records by outcome", "{item}")
	if err != nil {
		return nil, err
	}
	orders, err := NewCounter(meter, "dropship_fulfillment_orders_total",
		"Fulfillment attempts by outcome", "{order}")
	if err != nil {
		return nil, err
	}
	stepDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "dropship_fulfillment_step_duration_seconds",
		Description: "Duration of order placement steps",
		Unit:        "s",
		Boundaries:  StepDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	pollSkipped, err := NewCounter(meter, "dropship_fulfillment_poll_skipped_total",
		"Worker polls skipped because a placement was still running", "{poll}")
	if err != nil {
		return nil, err
	}
	queueDepth, err := NewGauge(meter, "dropship_fulfillment_queue_depth",
		"Queue items by status", "{item}")
	if err != nil {
		return nil, err
	}

	return &DropshipMetrics{
		importItems:  importItems,
		orders:       orders,
		stepDuration: stepDuration,
		pollSkipped:  pollSkipped,
		queueDepth:   queueDepth,
	}, nil
}

// RecordImportItem counts one resolved import record
func (m *DropshipMetrics) RecordImportItem(ctx context.Context, result string) {
	m.importItems.Inc(ctx, AttrResult.String(result))
}

// RecordFulfillment counts one finished placement attempt
func (m *DropshipMetrics) RecordFulfillment(ctx context.Context, result string) {
	m.orders.Inc(ctx, AttrResult.String(result))
}

// RecordStepDuration records how long a placement step took
func (m *DropshipMetrics) RecordStepDuration(ctx context.Context, step string, d time.Duration) {
	m.stepDuration.RecordDuration(ctx, d, AttrStep.String(stepLabel(step)))
}

// RecordPollSkipped counts a poll dropped by the busy guard
func (m *DropshipMetrics) RecordPollSkipped(ctx context.Context) {
	m.pollSkipped.Inc(ctx)
}

// RecordQueueDepth records how many queue items are in status
func (m *DropshipMetrics) RecordQueueDepth(ctx context.Context, status string, n int64) {
	m.queueDepth.Record(ctx, n, AttrStatus.String(status))
}

// stepLabel folds indexed step names like add_item[3] into add_item so the
// label set stays bounded
func stepLabel(step string) string {
	for i := 0; i < len(step); i++ {
		if step[i] == '[' {
			return step[:i]
		}
	}
	return step
}

// MetricsError reports a failure to set up metrics
type MetricsError struct {
	Op      string
	Message string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Message
}
