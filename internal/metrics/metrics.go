package metrics

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// histogram buckets in milliseconds
var durationBuckets = []float64{2, 5, 10, 25, 50, 100, 200, 400, 800, 1000, 2000, 5000, 10000}

// AppMetrics holds the instruments recorded by the HTTP layer and the
// order, product and category services.
type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	OrdersCreated   metric.Int64Counter
	OrdersCancelled metric.Int64Counter
	OrderRejected   metric.Int64Counter
	RevenueTotal    metric.Float64Counter
	InventoryLevel  metric.Int64Gauge

	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter
}

// New creates every instrument on meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.server.request.error.count",
		metric.WithDescription("Total number of HTTP requests answered with a 5xx status"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http errors counter: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	if m.OrdersCreated, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders placed"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	if m.OrdersCancelled, err = meter.Int64Counter(
		"orders_cancelled_total",
		metric.WithDescription("Total number of orders cancelled"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cancelled orders counter: %w", err)
	}

	if m.OrderRejected, err = meter.Int64Counter(
		"orders_rejected_total",
		metric.WithDescription("Order placements rejected, by reason"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rejected orders counter: %w", err)
	}

	if m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total order value placed"),
		metric.WithUnit("SEK"),
	); err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	if m.InventoryLevel, err = meter.Int64Gauge(
		"inventory_level",
		metric.WithDescription("Inventory level of tracked products after a change"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inventory gauge: %w", err)
	}

	if m.CacheHits, err = meter.Int64Counter(
		"cache_hits_total",
		metric.WithDescription("Total number of cache hits"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	if m.CacheMisses, err = meter.Int64Counter(
		"cache_misses_total",
		metric.WithDescription("Total number of cache misses"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	return m, nil
}

// Noop returns instruments that record nothing. Used when metrics export is
// disabled and in tests.
func Noop() *AppMetrics {
	m, err := New(noop.NewMeterProvider().Meter("noop"))
	if err != nil {
		panic(err)
	}
	return m
}

func (m *AppMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, durationMs, attrs)
	if status >= 500 {
		m.HTTPRequestsErrors.Add(ctx, 1, attrs)
	}
}

func (m *AppMetrics) RecordOrderCreated(ctx context.Context, paymentMethod string, guest bool, total float64) {
	attrs := metric.WithAttributes(
		attribute.String("payment.method", paymentMethod),
		attribute.Bool("order.guest", guest),
	)
	m.OrdersCreated.Add(ctx, 1, attrs)
	m.RevenueTotal.Add(ctx, total, attrs)
}

func (m *AppMetrics) RecordOrderRejected(ctx context.Context, reason string) {
	m.OrderRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *AppMetrics) RecordOrderCancelled(ctx context.Context) {
	m.OrdersCancelled.Add(ctx, 1)
}

func (m *AppMetrics) RecordInventory(ctx context.Context, productID string, quantity int64) {
	m.InventoryLevel.Record(ctx, quantity, metric.WithAttributes(attribute.String("product.id", productID)))
}

func (m *AppMetrics) RecordCache(ctx context.Context, cache string, hit bool) {
	attrs := metric.WithAttributes(attribute.String("cache", cache))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}
