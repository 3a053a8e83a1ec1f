// Package bridge exposes the appliance registry on an MQTT broker.
//
// Device gateways push attribute updates to the broker; home automation
// systems request commands through it and receive the resulting state and
// command echoes back. See mqtt.Topics for the topic layout.
package bridge
