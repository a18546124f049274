// Package mqtt publishes OSCLeash status to an MQTT broker and receives
// settings commands from it.
//
// MQTT is optional. When enabled, home-automation dashboards and overlays
// can follow the leash without polling the HTTP API.
//
// # Topics
//
//	oscleash/{instance}/health              retained, online/offline (LWT)
//	oscleash/{instance}/status/connection   retained, client connected/disconnected
//	oscleash/{instance}/status/movement     movement transitions
//	oscleash/{instance}/status/error        runtime errors
//	oscleash/{instance}/command/settings    JSON settings patch (subscribed)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Instance.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().StatusMovement(), event, false)
package mqtt
