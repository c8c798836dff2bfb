// Package metric provides Prometheus metrics for VaultLink.
//
//   - prometheus.go: the metrics registry, recording helpers and /metrics handler
//   - collector.go: a collector reading notification hub statistics at scrape time
//
// Metrics cover domain events, sink failures, HTTP requests and the
// notification hub. Storage engines register their own gauges on the same
// registry (see Registry.Prometheus).
package metric
