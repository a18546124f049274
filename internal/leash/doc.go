// Package leash holds the leash device model for OSCLeash: address parsing,
// per-device telemetry state, the concurrent device registry, and the
// movement calculator that turns a device's pull into avatar locomotion.
//
// # Data Flow
//
//	OSC address ──▶ ParseAddress ──▶ (name, Direction, Param)
//	                                        │
//	OSC value ─────────────────────────────▶ Registry.Apply ──▶ State
//	                                                              │
//	Registry.Snapshot ──▶ SelectActive ──▶ Calculate(State, Settings) ──▶ Vector
//
// # Address Shape
//
// VRChat publishes avatar parameters under /avatar/parameters/. Leash
// parameters use the OSCLeash prefix and encode the device name, an optional
// pull direction and the parameter key separated by underscores:
//
//	/avatar/parameters/OSCLeash/Tail_Stretch
//	/avatar/parameters/OSCLeash/Tail_North_Z+
//
// Parsing never fails. Unrecognised shapes produce an Address whose Valid
// method reports false, and callers drop the message.
//
// # Thread Safety
//
// ParseAddress, State.Apply, SelectActive and Calculate are pure.
// Registry is safe for concurrent use.
package leash
