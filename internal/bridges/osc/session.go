package osc

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nerrad567/oscleash/internal/oscquery"
)

// Conn is a connected datagram socket.
type Conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// Dialer opens a duplex session between local and remote.
type Dialer func(local, remote netip.AddrPort) (Conn, error)

// DialUDP is the production Dialer.
func DialUDP(local, remote netip.AddrPort) (Conn, error) {
	return net.DialUDP("udp", net.UDPAddrFromAddrPort(local), net.UDPAddrFromAddrPort(remote))
}

// session is one connected client. Its context is cancelled when the
// session is replaced, the client disconnects or the bridge stops, and the
// socket is closed, which unblocks the reader.
type session struct {
	id     string
	client oscquery.Client
	conn   Conn
	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	sent    atomic.Uint64
}

func newSession(parent context.Context, client oscquery.Client, conn Conn) *session {
	ctx, cancel := context.WithCancel(parent)
	s := &session{
		id:     uuid.NewString(),
		client: client,
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}
	// Root cancellation closes the socket even if close is never called.
	context.AfterFunc(ctx, func() {
		_ = conn.Close() //nolint:errcheck // nothing to do on a failed close
	})
	return s
}

// send writes one message to the client.
func (s *session) send(address string, arg any) error {
	data, err := encodeMessage(address, arg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.conn.Write(data); err != nil {
		return err
	}
	s.sent.Add(1)
	return nil
}

// close cancels the session and releases its socket before returning, so
// the receive port can be bound again straight away.
func (s *session) close() {
	s.cancel()
	_ = s.conn.Close() //nolint:errcheck // nothing to do on a failed close
}

func (s *session) peer() string {
	return s.client.OSC.String()
}

// localEndpoint picks the address the session socket binds to. A client on
// loopback is answered from loopback; otherwise the configured local IP is
// used, falling back to all interfaces when that IP is itself loopback.
func localEndpoint(peer, local netip.Addr, port int) netip.AddrPort {
	switch {
	case peer.IsLoopback():
		return netip.AddrPortFrom(peer, uint16(port))
	case !local.IsValid() || local.IsLoopback() || local.IsUnspecified():
		if peer.Is6() {
			return netip.AddrPortFrom(netip.IPv6Unspecified(), uint16(port))
		}
		return netip.AddrPortFrom(netip.IPv4Unspecified(), uint16(port))
	default:
		return netip.AddrPortFrom(local, uint16(port))
	}
}

// freeUDPPort asks the kernel for an unused UDP port on ip.
func freeUDPPort(ip netip.Addr) (int, error) {
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(netip.AddrPortFrom(ip, 0)))
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port, nil
}
