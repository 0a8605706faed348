package curator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics"
)

// Instrumentation holds Prometheus metrics specific to
// the curator App.
type Instrumentation struct {
	// Number of entities the last run's command acted on.
	Selected *prometheus.GaugeVec

	// Exit code of the last run.
	ExitCode prometheus.Gauge

	// Unix time of the last run that exited 0.
	LastSuccess prometheus.Gauge
}

// NewInstrumentation returns a new Instrumentation.
func NewInstrumentation(namespace string) *Instrumentation {
	return &Instrumentation{
		Selected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selected_entities",
			Help:      "Number of indices or snapshots the last command acted on.",
		}, []string{metrics.LabelDomain, metrics.LabelCommand}),
		ExitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exit_code",
			Help:      "Exit code of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Describe implements the prometheus.Collector interface.
func (m *Instrumentation) Describe(c chan<- *prometheus.Desc) {
	m.Selected.Describe(c)
	m.ExitCode.Describe(c)
	m.LastSuccess.Describe(c)
}

// Collect implements the prometheus.Collector interface.
func (m *Instrumentation) Collect(c chan<- prometheus.Metric) {
	m.Selected.Collect(c)
	m.ExitCode.Collect(c)
	m.LastSuccess.Collect(c)
}
