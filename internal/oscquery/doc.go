// Package oscquery implements the subset of OSCQuery that OSCLeash needs
// to find a VRChat client on the local network.
//
// A Service does three things while it runs:
//
//  1. Serves this application's HOST_INFO and node tree over HTTP.
//  2. Advertises that HTTP endpoint as _oscjson._tcp and the OSC receive
//     port as _osc._udp over mDNS.
//  3. Browses _oscjson._tcp for VRChat-Client-* instances, reads their
//     HOST_INFO and reports the client's OSC endpoint.
//
// The node tree exposes /avatar/change as writable so the client sends
// avatar change notifications; Client.FetchParameters reads the client's
// current parameter values after such a change.
package oscquery
