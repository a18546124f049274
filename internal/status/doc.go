// Package status fans out OSCLeash status events.
//
// The bridge publishes three kinds of events to a Hub:
//
//   - ConnectionEvent when a VRChat client session opens or closes
//   - MovementEvent after each emitted movement vector
//   - ErrorEvent for fatal receive errors
//
// The Hub drops an event that equals the previous event of the same kind,
// so subscribers only see transitions. Subscribers attach as Sinks
// (MQTT, audit log, InfluxDB, WebSocket) and each runs on its own
// goroutine with a bounded queue; a slow sink loses events rather than
// stalling the movement pipeline.
package status
