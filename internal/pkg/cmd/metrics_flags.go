package cmd

import (
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.

	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics"
)

// Namespace is the namespace to be used for Prometheus
// metrics throughout the curator.
const Namespace = metrics.Namespace

// BuildPromFQName returns a metric name in Namespace.
func BuildPromFQName(subsystem, name string) string {
	return prometheus.BuildFQName(Namespace, subsystem, name)
}

// MetricsFlags represents a set of flags for exporting Prometheus
// metrics from a process that exits after one run.
type MetricsFlags struct {
	// Path of a node_exporter textfile collector file. Empty disables it.
	Textfile string
}

// NewMetricsFlags returns a new MetricsFlags.
func NewMetricsFlags(app Flagger) *MetricsFlags {
	var f MetricsFlags

	app.Flag("metrics.textfile", "Write Prometheus metrics to this file on exit, for the node_exporter textfile collector.").
		Envar("CURATOR_METRICS_TEXTFILE").
		PlaceHolder("PATH").
		StringVar(&f.Textfile)

	return &f
}

// Write writes the metrics gathered by g to the textfile, if one is set.
func (f *MetricsFlags) Write(g prometheus.Gatherer) error {
	return metrics.WriteTextfile(f.Textfile, g)
}
