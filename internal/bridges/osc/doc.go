// Package osc connects OSCLeash to a VRChat client.
//
// The Bridge owns the whole client lifecycle:
//
//	Idle -> Advertising -> AwaitingClient -> Connected
//	Connected -> Disconnected -> AwaitingClient   (client went away)
//	any -> Stopped                                 (Stop)
//
// Discovery runs through internal/oscquery. When a client is found the
// bridge opens a duplex UDP session to it and starts a receive loop.
// Leash parameter messages update the shared leash.Registry and signal the
// Debouncer, which runs at most one movement pass per window. Each pass
// picks the active leash, derives a leash.Vector and hands it to the
// Emitter, which writes /input/* messages back over the session.
//
// Receive errors are classified:
//
//   - cancellation (session replaced or bridge stopped): silent exit
//   - ECONNREFUSED / ECONNRESET: the client closed, session is released
//   - anything else: logged, then the process exits with status -1
//
// Undecodable datagrams are dropped and never end the session.
package osc
