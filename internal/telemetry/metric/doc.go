// Package metric provides Prometheus metrics for backup operations.
//
// The CLI is short-lived, so metrics are not served over HTTP. They are
// written to a node_exporter textfile after each run instead.
package metric
