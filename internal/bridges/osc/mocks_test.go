package osc

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/nerrad567/oscleash/internal/oscquery"
	"github.com/nerrad567/oscleash/internal/settings"
	"github.com/nerrad567/oscleash/internal/status"
)

// waitFor polls cond until it is true or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type readResult struct {
	data []byte
	err  error
}

// fakeConn is an in-memory session socket.
type fakeConn struct {
	local, remote netip.AddrPort

	reads     chan readResult
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn(local, remote netip.AddrPort) *fakeConn {
	return &fakeConn{
		local:  local,
		remote: remote,
		reads:  make(chan readResult, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read(b []byte) (int, error) {
	select {
	case r := <-c.reads:
		if r.err != nil {
			return 0, r.err
		}
		return copy(b, r.data), nil
	case <-c.closed:
		return 0, net.ErrClosed
	}
}

func (c *fakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// deliver queues an inbound OSC message.
func (c *fakeConn) deliver(t *testing.T, address string, arg any) {
	t.Helper()
	data, err := encodeMessage(address, arg)
	if err != nil {
		t.Fatal(err)
	}
	c.reads <- readResult{data: data}
}

// sent decodes every written message.
func (c *fakeConn) sent(t *testing.T) []*goosc.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*goosc.Message
	for _, w := range c.writes {
		msgs, err := decodePacket(w)
		if err != nil {
			t.Fatalf("bridge wrote invalid OSC: %v", err)
		}
		out = append(out, msgs...)
	}
	return out
}

// fakeDiscovery records the bridge's discovery calls.
type fakeDiscovery struct {
	mu      sync.Mutex
	cfg     oscquery.ServiceConfig
	found   func(oscquery.Client)
	forgets int
	fetches int
	params  map[string]any
	started chan struct{}
}

func (d *fakeDiscovery) Run(ctx context.Context, found func(oscquery.Client)) error {
	d.mu.Lock()
	d.found = found
	d.mu.Unlock()
	close(d.started)
	<-ctx.Done()
	return nil
}

func (d *fakeDiscovery) Forget() {
	d.mu.Lock()
	d.forgets++
	d.mu.Unlock()
}

func (d *fakeDiscovery) Parameters(context.Context, oscquery.Client, string) (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	return d.params, nil
}

func (d *fakeDiscovery) counts() (forgets, fetches int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.forgets, d.fetches
}

// mockStatus records published events.
type mockStatus struct {
	mu          sync.Mutex
	connections []status.ConnectionEvent
	movements   []status.MovementEvent
	errs        []status.ErrorEvent
}

func (m *mockStatus) PublishConnection(ev status.ConnectionEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections = append(m.connections, ev)
	return true
}

func (m *mockStatus) PublishMovement(ev status.MovementEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, ev)
	return true
}

func (m *mockStatus) PublishError(ev status.ErrorEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, ev)
	return true
}

func (m *mockStatus) snapshot() ([]status.ConnectionEvent, []status.MovementEvent, []status.ErrorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]status.ConnectionEvent(nil), m.connections...),
		append([]status.MovementEvent(nil), m.movements...),
		append([]status.ErrorEvent(nil), m.errs...)
}

// staticSettings is a fixed SettingsSource.
type staticSettings struct {
	mu sync.Mutex
	s  settings.Settings
}

func (s *staticSettings) Current() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

func (s *staticSettings) set(v settings.Settings) {
	s.mu.Lock()
	s.s = v
	s.mu.Unlock()
}
