// Package mqtt connects hond to an MQTT broker.
//
// The broker is an optional side channel: a device gateway may push live
// attribute changes in, and hond publishes attribute snapshots and
// command echoes out. See Topics for the hierarchy.
//
// The client wraps paho.mqtt.golang with:
//   - Auto-reconnect with subscription restore
//   - Retained online/offline status with a Last Will
//   - Panic recovery around message handlers
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllAttributes(), 1, handler)
package mqtt
