package hooks

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusWriterExportsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	w, err := NewPrometheusWriter(reg)
	require.NoError(t, err)

	ctx := context.Background()
	w.AddScalar("loss", 0.5)
	w.AddScalar("loss", 0.25)
	require.NoError(t, w.AfterStep(ctx, nil, nil))
	require.NoError(t, w.AfterStep(ctx, nil, nil))
	require.NoError(t, w.AfterEpoch(ctx))

	require.Equal(t, 0.25, testutil.ToFloat64(w.scalars.WithLabelValues("loss")))
	require.Equal(t, 2.0, testutil.ToFloat64(w.steps))
	require.Equal(t, 1.0, testutil.ToFloat64(w.epochs))
}

func TestPrometheusWriterDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusWriter(reg)
	require.NoError(t, err)

	_, err = NewPrometheusWriter(reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "registering collector")
}
