package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInit_None(t *testing.T) {
	shutdown, err := Init("unison-test", "dev", Config{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init("unison-test", "dev", Config{Exporter: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestInit_OTLPRequiresEndpoint(t *testing.T) {
	_, err := Init("unison-test", "dev", Config{Exporter: "otlp"})
	assert.ErrorContains(t, err, "endpoint")
}

func TestInstruments_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	in := NewInstruments()
	ctx := context.Background()
	in.Turn(ctx, "Calc")
	in.Turn(ctx, "Calc")
	in.ToolCall(ctx, "Calc", "add", true)
	in.ToolCall(ctx, "Calc", "add", false)
	in.ParseFailure(ctx, "Calc")
	in.RunFinished(ctx, "Calc", "")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["unison.agent.turns"])
	assert.Equal(t, int64(2), totals["unison.tool.calls"])
	assert.Equal(t, int64(1), totals["unison.tool.failures"])
	assert.Equal(t, int64(1), totals["unison.tool.parse_failures"])
	assert.Equal(t, int64(1), totals["unison.agent.runs"])
}
