package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementAttribute = "appliance_attribute"
	MeasurementCommand   = "appliance_command"
)

// WriteAttribute records one numeric attribute value of an appliance.
//
// Parameters:
//   - mac: Appliance MAC address (tag)
//   - applianceType: Appliance type code, e.g. "WM" (tag)
//   - key: Attribute name (tag)
//   - value: Parsed numeric value
//   - at: Time the device reported the value
func (c *Client) WriteAttribute(mac, applianceType, key string, value float64, at time.Time) {
	c.write(write.NewPoint(MeasurementAttribute,
		map[string]string{"mac": mac, "appliance_type": applianceType, "attribute": key},
		map[string]any{"value": value},
		at,
	))
}

// WriteCommand records one command transmission attempt.
func (c *Client) WriteCommand(mac, command string, success bool, at time.Time) {
	result := 0
	if success {
		result = 1
	}
	c.write(write.NewPoint(MeasurementCommand,
		map[string]string{"mac": mac, "command": command},
		map[string]any{"success": result},
		at,
	))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	if p.Time().IsZero() {
		p.SetTime(time.Now())
	}
	c.writeAPI.WritePoint(p)
}
