package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*AppMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := New(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			out[md.Name] = md.Data
		}
	}
	return out
}

func TestRecordOrderCreated(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOrderCreated(ctx, "card", true, 600)
	m.RecordOrderCreated(ctx, "card", true, 150)

	data := collect(t, reader)

	orders, ok := data["orders_created_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, orders.DataPoints, 1)
	assert.Equal(t, int64(2), orders.DataPoints[0].Value)

	revenue, ok := data["revenue_total"].(metricdata.Sum[float64])
	require.True(t, ok)
	assert.Equal(t, 750.0, revenue.DataPoints[0].Value)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/api/orders/{id}", 200, 12)
	m.RecordHTTPRequest(ctx, "GET", "/api/orders/{id}", 500, 3)

	data := collect(t, reader)

	errs, ok := data["http.server.request.error.count"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)

	total, ok := data["http.server.request.count"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, total.DataPoints, 2)
}

func TestRecordCacheAndInventory(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCache(ctx, "category_tree", true)
	m.RecordCache(ctx, "category_tree", false)
	m.RecordCache(ctx, "category_tree", false)
	m.RecordInventory(ctx, "p-1", 7)
	m.RecordOrderCancelled(ctx)
	m.RecordOrderRejected(ctx, "insufficient_stock")

	data := collect(t, reader)

	misses := data["cache_misses_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(2), misses.DataPoints[0].Value)

	level := data["inventory_level"].(metricdata.Gauge[int64])
	assert.Equal(t, int64(7), level.DataPoints[0].Value)

	assert.Contains(t, data, "orders_cancelled_total")
	assert.Contains(t, data, "orders_rejected_total")
}

func TestNoop(t *testing.T) {
	m := Noop()
	assert.NotPanics(t, func() {
		m.RecordOrderCreated(context.Background(), "swish", false, 10)
		m.RecordHTTPRequest(context.Background(), "GET", "/", 200, 1)
	})
}

func TestParseHeaders(t *testing.T) {
	assert.Empty(t, parseHeaders(""))
	assert.Equal(t,
		map[string]string{"signoz-ingestion-key": "abc", "x-team": "shop"},
		parseHeaders(" signoz-ingestion-key=abc , x-team=shop,broken"),
	)
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Milliseconds(), 2.0)
	assert.GreaterOrEqual(t, timer.Duration(), 2*time.Millisecond)
}
