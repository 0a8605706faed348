// Package metrics hold constants and utilities for instrumenting the curator
// with Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
)

// Namespace is the Prometheus namespace of every curator metric.
const Namespace = "curator"

// MustRegisterOnce registers a set of Prometheus Collectors with the
// default Registerer, ignoring AlreadyRegisteredErrors. Other errors
// cause a panic.
func MustRegisterOnce(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format, for collection by the node_exporter textfile collector.
// An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
