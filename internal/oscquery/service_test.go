package oscquery

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

type fakeShutdowner struct {
	mu   sync.Mutex
	done bool
}

func (f *fakeShutdowner) Shutdown() {
	f.mu.Lock()
	f.done = true
	f.mu.Unlock()
}

func (f *fakeShutdowner) isDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

type registration struct {
	service string
	port    int
	handle  *fakeShutdowner
}

type fakeRegistrar struct {
	mu      sync.Mutex
	regs    []registration
	failOn  string
	portSet chan int
}

func (f *fakeRegistrar) Register(_, service string, port int, _ netip.Addr) (Shutdowner, error) {
	if service == f.failOn {
		return nil, errors.New("register failed")
	}
	h := &fakeShutdowner{}
	f.mu.Lock()
	f.regs = append(f.regs, registration{service: service, port: port, handle: h})
	f.mu.Unlock()
	if service == ServiceTypeQuery && f.portSet != nil {
		f.portSet <- port
	}
	return h, nil
}

func TestAdvertiseRollsBackOnFailure(t *testing.T) {
	reg := &fakeRegistrar{failOn: ServiceTypeOSC}
	_, err := advertise(reg, "OSCLeash", netip.MustParseAddr("127.0.0.1"), 8000, 9001)
	if err == nil {
		t.Fatal("advertise() expected error")
	}
	if len(reg.regs) != 1 || !reg.regs[0].handle.isDone() {
		t.Error("query registration was not withdrawn")
	}
}

func TestServiceRun(t *testing.T) {
	peer := fakePeer(t, HostInfo{Name: "VRChat-Client-X", OSCIP: "127.0.0.1", OSCPort: 9000}, nil)

	svc := NewService(ServiceConfig{
		Name:           "OSCLeash",
		IP:             netip.MustParseAddr("127.0.0.1"),
		OSCPort:        9001,
		BrowseInterval: 100 * time.Millisecond,
	})
	reg := &fakeRegistrar{portSet: make(chan int, 1)}
	svc.registrar = reg
	svc.resolver = &fakeResolver{entries: []*zeroconf.ServiceEntry{entryFor(t, "VRChat-Client-X", peer.URL)}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan Client, 4)
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx, func(c Client) { found <- c }) }()

	select {
	case port := <-reg.portSet:
		if port == 0 {
			t.Error("advertised HTTP port is 0")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service never advertised")
	}

	select {
	case c := <-found:
		if c.OSC != netip.MustParseAddrPort("127.0.0.1:9000") {
			t.Errorf("found OSC = %v", c.OSC)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never reported")
	}

	if err := svc.Run(ctx, func(Client) {}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.regs) != 2 {
		t.Fatalf("registrations = %d, want 2", len(reg.regs))
	}
	for _, r := range reg.regs {
		if !r.handle.isDone() {
			t.Errorf("%s registration not withdrawn", r.service)
		}
	}
}
