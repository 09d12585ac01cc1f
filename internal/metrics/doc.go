// Package metrics defines Prometheus metrics for the thumbnail cache:
// cache hit/miss counters, generation outcomes and durations, and failure
// marker writes. Metrics register on the default registry; embedding
// applications expose them however they already expose Prometheus.
package metrics
