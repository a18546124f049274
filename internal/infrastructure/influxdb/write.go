package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementMovement   = "leash_movement"
	MeasurementConnection = "leash_connection"
)

// Movement is one emitted movement sample.
type Movement struct {
	Vertical   float32
	Horizontal float32
	Turn       float32
	Running    bool
}

// WriteMovement records an emitted movement vector.
func (c *Client) WriteMovement(m Movement, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(movementPoint(c.instance, m, at))
}

// WriteConnection records a client connect or disconnect.
func (c *Client) WriteConnection(connected bool, peer string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(connectionPoint(c.instance, connected, peer, at))
}

func movementPoint(instance string, m Movement, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementMovement,
		map[string]string{"instance": instance},
		map[string]interface{}{
			"vertical":   float64(m.Vertical),
			"horizontal": float64(m.Horizontal),
			"turn":       float64(m.Turn),
			"running":    m.Running,
		},
		at,
	)
}

func connectionPoint(instance string, connected bool, peer string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementConnection,
		map[string]string{"instance": instance, "peer": peer},
		map[string]interface{}{"connected": connected},
		at,
	)
}
