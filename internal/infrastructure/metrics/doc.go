// Package metrics exposes hond's Prometheus instruments: command sends,
// catalog loads, attribute changes, parameter validation failures and
// HTTP API traffic. The API serves them at /metrics.
package metrics
