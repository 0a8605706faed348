// Package elasticsearch implements CQRS-style Command/Query services that
// encapsulate the Elasticsearch interactions that happen in curator.
// Query lists indices and snapshots for working lists and filters,
// and Command carries out one action call. Interacting with Elasticsearch
// through these types means that Prometheus metrics for Elasticsearch
// requests only need to be added in one place.
package elasticsearch
