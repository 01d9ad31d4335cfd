package sqlx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConn_RecordPoolMetrics(t *testing.T) {
	t.Run("given a conn, then pool gauges carry db.system", func(t *testing.T) {
		conn, _ := newMock(t, "postgres")

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer mp.Shutdown(context.Background())

		require.NoError(t, conn.RecordPoolMetrics(mp.Meter("test")))

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		require.Len(t, rm.ScopeMetrics, 1)

		var found bool
		for _, m := range rm.ScopeMetrics[0].Metrics {
			if m.Name != "db.client.connections.open" {
				continue
			}
			found = true
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			require.True(t, ok)
			require.Len(t, gauge.DataPoints, 1)
			system, ok := gauge.DataPoints[0].Attributes.Value("db.system")
			require.True(t, ok)
			assert.Equal(t, "postgresql", system.AsString())
		}
		assert.True(t, found)
	})
}
