// Package telemetry feeds appliance activity into the command journal,
// InfluxDB and Prometheus.
//
// A Recorder is installed as the command.Recorder of every appliance and
// subscribes to its events; numeric attribute changes become time-series
// points and sends become counters and points.
package telemetry
