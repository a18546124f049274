package oscquery

import (
	"net/netip"
	"strings"
)

// mDNS service types.
const (
	ServiceTypeQuery = "_oscjson._tcp"
	ServiceTypeOSC   = "_osc._udp"
	ServiceDomain    = "local."
)

// Node access flags.
const (
	AccessNone      = 0
	AccessRead      = 1
	AccessWrite     = 2
	AccessReadWrite = 3
)

// HostInfo is the document served at /?HOST_INFO.
type HostInfo struct {
	Name         string          `json:"NAME"`
	OSCIP        string          `json:"OSC_IP"`
	OSCPort      int             `json:"OSC_PORT"`
	OSCTransport string          `json:"OSC_TRANSPORT"`
	Extensions   map[string]bool `json:"EXTENSIONS,omitempty"`
}

// OSCEndpoint returns the UDP endpoint described by h.
func (h HostInfo) OSCEndpoint() (netip.AddrPort, error) {
	if h.OSCPort <= 0 || h.OSCPort > 65535 {
		return netip.AddrPort{}, ErrNoHostInfo
	}
	if h.OSCTransport != "" && !strings.EqualFold(h.OSCTransport, "UDP") {
		return netip.AddrPort{}, ErrNoHostInfo
	}
	addr, err := netip.ParseAddr(h.OSCIP)
	if err != nil {
		return netip.AddrPort{}, ErrNoHostInfo
	}
	return netip.AddrPortFrom(addr.Unmap(), uint16(h.OSCPort)), nil
}

// Node is one entry of an OSCQuery namespace.
type Node struct {
	FullPath    string           `json:"FULL_PATH"`
	Access      int              `json:"ACCESS"`
	Description string           `json:"DESCRIPTION,omitempty"`
	Type        string           `json:"TYPE,omitempty"`
	Value       []any            `json:"VALUE,omitempty"`
	Contents    map[string]*Node `json:"CONTENTS,omitempty"`
}

// Find walks the tree below n along an absolute path such as
// "/avatar/change". It returns nil when any segment is missing.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		next, ok := cur.Contents[seg]
		if !ok || next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// Values collects the first VALUE of every node at or below n, keyed by
// FULL_PATH. Nodes without a value are skipped.
func (n *Node) Values() map[string]any {
	out := make(map[string]any)
	n.collect(out)
	return out
}

func (n *Node) collect(out map[string]any) {
	if n == nil {
		return
	}
	if len(n.Value) > 0 && n.FullPath != "" {
		out[n.FullPath] = n.Value[0]
	}
	for _, child := range n.Contents {
		child.collect(out)
	}
}

// Client is a discovered OSCQuery peer.
type Client struct {
	Instance string         // mDNS instance name, e.g. "VRChat-Client-ABC123"
	Query    netip.AddrPort // HTTP endpoint serving HOST_INFO
	OSC      netip.AddrPort // UDP endpoint from HOST_INFO
}

// BaseURL returns the HTTP base URL of the peer.
func (c Client) BaseURL() string {
	return "http://" + c.Query.String()
}
