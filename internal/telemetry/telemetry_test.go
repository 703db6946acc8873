package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"valid", Config{ServiceName: "shop", SampleRate: 0.5}, nil},
		{"missing name", Config{SampleRate: 1}, ErrMissingServiceName},
		{"rate too high", Config{ServiceName: "shop", SampleRate: 1.5}, ErrInvalidSampleRate},
		{"rate negative", Config{ServiceName: "shop", SampleRate: -0.1}, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestInitializeDisabled(t *testing.T) {
	tel, err := Initialize(context.Background(), Config{ServiceName: "shop", SampleRate: 1})
	require.NoError(t, err)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitializeWithExporters(t *testing.T) {
	ctx := context.Background()
	spans := tracetest.NewInMemoryExporter()

	tel, err := Initialize(ctx,
		Config{ServiceName: "shop", ServiceVersion: "test", Enabled: true, SampleRate: 1},
		WithTraceExporter(spans),
		WithMetricExporter(NewNoopMetricExporter()),
	)
	require.NoError(t, err)

	_, span := StartSpan(ctx, "cart.add_item")
	EndSpan(span, errors.New("boom"))

	require.NoError(t, tel.tracerProvider.ForceFlush(ctx))

	recorded := spans.GetSpans()
	require.Len(t, recorded, 1)
	assert.Equal(t, "cart.add_item", recorded[0].Name)
	assert.Equal(t, "boom", recorded[0].Status.Description)

	require.NoError(t, tel.Shutdown(ctx))
}
