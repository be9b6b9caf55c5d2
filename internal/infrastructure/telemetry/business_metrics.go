package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricOrdersPlaced         = "foodontracks.orders.placed"
	MetricOrderValue           = "foodontracks.orders.value"
	MetricStockRejections      = "foodontracks.orders.stock_rejections"
	MetricStatusTransitions    = "foodontracks.status.transitions"
	MetricRejectedTransitions  = "foodontracks.status.transitions_rejected"
	MetricClaims               = "foodontracks.orders.claims"
	MetricAuditWriteFailures   = "foodontracks.audit.write_failures"
	MetricDuplicateSubmissions = "foodontracks.orders.duplicate_submissions"
)

// DeliveryMetrics holds the business counters of the order workflow.
// A nil *DeliveryMetrics is valid and records nothing.
type DeliveryMetrics struct {
	ordersPlaced    metric.Int64Counter
	orderValue      metric.Float64Histogram
	stockRejections metric.Int64Counter
	transitions     metric.Int64Counter
	rejected        metric.Int64Counter
	claims          metric.Int64Counter
	auditFailures   metric.Int64Counter
	duplicates      metric.Int64Counter
}

// NewDeliveryMetrics creates the instruments on meter
func NewDeliveryMetrics(meter metric.Meter) (*DeliveryMetrics, error) {
	m := &DeliveryMetrics{}
	var err error

	if m.ordersPlaced, err = NewCounter(meter, MetricOrdersPlaced, "Orders placed", "{order}"); err != nil {
		return nil, err
	}
	if m.orderValue, err = NewHistogram(meter, MetricOrderValue, "Order total at placement", "{INR}", OrderValueBuckets); err != nil {
		return nil, err
	}
	if m.stockRejections, err = NewCounter(meter, MetricStockRejections, "Placements rejected for insufficient stock", "{order}"); err != nil {
		return nil, err
	}
	if m.transitions, err = NewCounter(meter, MetricStatusTransitions, "Accepted status transitions", "{transition}"); err != nil {
		return nil, err
	}
	if m.rejected, err = NewCounter(meter, MetricRejectedTransitions, "Rejected status transitions", "{transition}"); err != nil {
		return nil, err
	}
	if m.claims, err = NewCounter(meter, MetricClaims, "Delivery claim attempts", "{claim}"); err != nil {
		return nil, err
	}
	if m.auditFailures, err = NewCounter(meter, MetricAuditWriteFailures, "Status audit rows that could not be written", "{record}"); err != nil {
		return nil, err
	}
	if m.duplicates, err = NewCounter(meter, MetricDuplicateSubmissions, "Order submissions rejected by idempotency key", "{request}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOrderPlaced counts a committed order and its value
func (m *DeliveryMetrics) RecordOrderPlaced(ctx context.Context, paymentMethod string, total decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("payment_method", paymentMethod))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderValue.Record(ctx, total.InexactFloat64(), attrs)
}

// RecordStockRejection counts a placement that failed the stock guard
func (m *DeliveryMetrics) RecordStockRejection(ctx context.Context) {
	if m == nil {
		return
	}
	m.stockRejections.Add(ctx, 1)
}

// RecordTransition counts an accepted status change
func (m *DeliveryMetrics) RecordTransition(ctx context.Context, entity, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordRejectedTransition counts a refused status change by error code
func (m *DeliveryMetrics) RecordRejectedTransition(ctx context.Context, entity, code string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("code", code),
	))
}

// RecordClaim counts a claim attempt; won is false when another agent got there first
func (m *DeliveryMetrics) RecordClaim(ctx context.Context, won bool) {
	if m == nil {
		return
	}
	outcome := "lost"
	if won {
		outcome = "won"
	}
	m.claims.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAuditFailure counts an audit row that was dropped
func (m *DeliveryMetrics) RecordAuditFailure(ctx context.Context, entity string) {
	if m == nil {
		return
	}
	m.auditFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", entity)))
}

// RecordDuplicateSubmission counts a replayed Idempotency-Key
func (m *DeliveryMetrics) RecordDuplicateSubmission(ctx context.Context) {
	if m == nil {
		return
	}
	m.duplicates.Add(ctx, 1)
}
