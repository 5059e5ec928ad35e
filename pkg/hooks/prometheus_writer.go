package hooks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/treino/pkg/api"
)

// PrometheusWriter exports scalars and loop progress as Prometheus metrics:
// a gauge per scalar name plus step and epoch counters. Serve them with
// promhttp in the host process.
type PrometheusWriter struct {
	api.NoopHook
	scalars *prometheus.GaugeVec
	steps   prometheus.Counter
	epochs  prometheus.Counter
}

// NewPrometheusWriter registers the collectors with reg, or with the default
// registerer when reg is nil.
func NewPrometheusWriter(reg prometheus.Registerer) (*PrometheusWriter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	w := &PrometheusWriter{
		scalars: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "treino_scalar",
				Help: "Latest recorded value per scalar name.",
			},
			[]string{"name"},
		),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treino_steps_total",
			Help: "Steps completed by the loop.",
		}),
		epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treino_epochs_total",
			Help: "Epochs completed by the loop.",
		}),
	}
	for _, c := range []prometheus.Collector{w.scalars, w.steps, w.epochs} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("hooks: registering collector: %w", err)
		}
	}
	return w, nil
}

// AddScalar sets the gauge for name to the newest value.
func (w *PrometheusWriter) AddScalar(name string, value float64) {
	w.scalars.WithLabelValues(name).Set(value)
}

func (w *PrometheusWriter) AfterStep(ctx context.Context, input, output any) error {
	w.steps.Inc()
	return nil
}

func (w *PrometheusWriter) AfterEpoch(ctx context.Context) error {
	w.epochs.Inc()
	return nil
}

func (w *PrometheusWriter) String() string { return "PrometheusWriter" }

var _ api.Monitor = (*PrometheusWriter)(nil)
