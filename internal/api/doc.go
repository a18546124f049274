// Package api implements the status REST API and WebSocket stream for OSCLeash.
//
// This package provides:
//   - Read endpoints for bridge status, the leash registry and the audit trail
//   - Read/replace of the live leash settings
//   - A WebSocket hub that relays status events as they happen
//   - Optional bearer-token authentication (tokens minted by "oscleash token")
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server is a read-mostly view onto the bridge. Status events reach
// WebSocket clients through the status hub, which the WebSocket hub is
// attached to as a sink. The only write path is PUT /api/v1/settings, which
// validates and swaps the settings snapshot the movement calculator reads on
// its next pass.
//
// # Security
//
// When security.jwt.secret is empty every route is open. Otherwise all routes
// except /health require a token; writes require the operator role. Browsers
// cannot set headers on a WebSocket handshake, so /ws also accepts the token
// as a "token" query parameter.
//
// # Graceful Degradation
//
// The server operates without the audit database or MQTT. Missing components
// are reported as "disabled" by /health rather than failing startup.
package api
