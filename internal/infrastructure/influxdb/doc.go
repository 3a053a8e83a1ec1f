// Package influxdb writes appliance telemetry to InfluxDB v2.
//
// Two measurements are written:
//   - appliance_attribute: numeric attribute values tagged by mac,
//     appliance_type and attribute
//   - appliance_command: one point per send attempt tagged by mac and
//     command, with success 0 or 1
//
// Writes are batched and non-blocking. The integration is optional and
// enabled with influxdb.enabled in the configuration.
package influxdb
