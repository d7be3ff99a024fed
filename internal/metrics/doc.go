// Package metrics records per-run counters for index and purge runs and
// writes them in the Prometheus text exposition format, suitable for the node
// exporter's textfile collector.
package metrics
