package mqtt

import "fmt"

// TopicRoot is the first level of every OSCLeash topic.
const TopicRoot = "oscleash"

// Topics builds the MQTT topics for one OSCLeash instance.
//
//	topics := mqtt.NewTopics("desk")
//	topics.StatusMovement() // "oscleash/desk/status/movement"
type Topics struct {
	Instance string
}

// NewTopics returns topic builders scoped to instance.
func NewTopics(instance string) Topics {
	return Topics{Instance: instance}
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicRoot, t.Instance)
}

// Health is the retained online/offline topic, also used for the LWT.
//
// Example: oscleash/desk/health
func (t Topics) Health() string {
	return t.base() + "/health"
}

// StatusConnection carries client connect/disconnect events (retained).
//
// Example: oscleash/desk/status/connection
func (t Topics) StatusConnection() string {
	return t.base() + "/status/connection"
}

// StatusMovement carries movement transitions.
//
// Example: oscleash/desk/status/movement
func (t Topics) StatusMovement() string {
	return t.base() + "/status/movement"
}

// StatusError carries runtime errors surfaced to the status stream.
//
// Example: oscleash/desk/status/error
func (t Topics) StatusError() string {
	return t.base() + "/status/error"
}

// AllStatus matches every status topic of the instance.
//
// Example: oscleash/desk/status/+
func (t Topics) AllStatus() string {
	return t.base() + "/status/+"
}

// SettingsCommand receives JSON settings patches.
//
// Example: oscleash/desk/command/settings
func (t Topics) SettingsCommand() string {
	return t.base() + "/command/settings"
}
