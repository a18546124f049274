package osc

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/oscleash/internal/leash"
	"github.com/nerrad567/oscleash/internal/oscquery"
	"github.com/nerrad567/oscleash/internal/settings"
	"github.com/nerrad567/oscleash/internal/status"
)

// parameterRefreshTimeout bounds one OSCQuery parameter fetch.
const parameterRefreshTimeout = 5 * time.Second

// parametersPath is the OSCQuery node holding every leash parameter.
var parametersPath = strings.TrimSuffix(leash.AddressPrefix, "/")

// State is the bridge lifecycle state.
type State int

// Lifecycle states.
const (
	StateIdle State = iota
	StateAdvertising
	StateAwaitingClient
	StateConnected
	StateDisconnected
	StateStopped
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateAdvertising:    "advertising",
	StateAwaitingClient: "awaiting_client",
	StateConnected:      "connected",
	StateDisconnected:   "disconnected",
	StateStopped:        "stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SettingsSource supplies the current leash settings snapshot.
// Satisfied by *settings.Store.
type SettingsSource interface {
	Current() settings.Settings
}

// StatusPublisher receives status transitions. Satisfied by *status.Hub.
type StatusPublisher interface {
	PublishConnection(ev status.ConnectionEvent) bool
	PublishMovement(ev status.MovementEvent) bool
	PublishError(ev status.ErrorEvent) bool
}

// Discovery advertises this application and reports clients.
// Satisfied by *oscquery.Service.
type Discovery interface {
	Run(ctx context.Context, found func(oscquery.Client)) error
	Forget()
	Parameters(ctx context.Context, c oscquery.Client, path string) (map[string]any, error)
}

// Config holds the bridge's static configuration.
type Config struct {
	// Name is advertised over mDNS and in HOST_INFO.
	Name string

	// ReceivePort is the local UDP port for sessions; 0 picks a free port.
	ReceivePort int

	// QueryPort is the OSCQuery HTTP port; 0 picks a free port.
	QueryPort int

	// ClientPrefix selects client instances during browsing.
	ClientPrefix string

	// BrowseInterval is the mDNS browse window.
	BrowseInterval time.Duration

	// DebounceWindow is the movement pass window. Default: 66ms.
	DebounceWindow time.Duration
}

// Options holds the dependencies for NewBridge.
type Options struct {
	Config   Config
	Settings SettingsSource
	Registry *leash.Registry
	Status   StatusPublisher

	// Recorder stores emitted vectors. Optional.
	Recorder MovementRecorder

	// NewDiscovery builds discovery once the local endpoint is known.
	// Default: oscquery.NewService.
	NewDiscovery func(cfg oscquery.ServiceConfig) Discovery

	// Dial opens session sockets. Default: DialUDP.
	Dial Dialer

	// Exit terminates the process on an unclassified receive error.
	// Default: os.Exit.
	Exit func(code int)

	Logger Logger
}

// Metrics is a point-in-time view of bridge counters.
type Metrics struct {
	State        State  `json:"state"`
	Peer         string `json:"peer,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	ReceivePort  int    `json:"receive_port"`
	QueryPort    int    `json:"query_port"`
	Devices      int    `json:"devices"`
	DatagramsRx  uint64 `json:"datagrams_rx"`
	MessagesRx   uint64 `json:"messages_rx"`
	DecodeErrors uint64 `json:"decode_errors"`
	MessagesTx   uint64 `json:"messages_tx"`
	Passes       uint64 `json:"passes"`
	Sessions     uint64 `json:"sessions"`
}

// Bridge connects the leash pipeline to a VRChat client.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg       Config
	settings  SettingsSource
	registry  *leash.Registry
	status    StatusPublisher
	emitter   *Emitter
	debouncer *Debouncer
	newDisc   func(cfg oscquery.ServiceConfig) Discovery
	dial      Dialer
	exit      func(code int)
	logger    Logger

	// connectMu serialises session replacement and release.
	connectMu sync.Mutex

	mu          sync.RWMutex
	state       State
	session     *session
	discovery   Discovery
	localIP     netip.Addr
	receivePort int
	rootCtx     context.Context
	rootCancel  context.CancelFunc

	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	runErr   error
	wg       sync.WaitGroup

	datagramsRx  atomic.Uint64
	messagesRx   atomic.Uint64
	decodeErrors atomic.Uint64
	passes       atomic.Uint64
	sessions     atomic.Uint64
	sentPrior    atomic.Uint64
}

// NewBridge creates a bridge. Call Start to begin discovery.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.Settings == nil {
		return nil, fmt.Errorf("settings source is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Status == nil {
		return nil, fmt.Errorf("status publisher is required")
	}

	b := &Bridge{
		cfg:      opts.Config,
		settings: opts.Settings,
		registry: opts.Registry,
		status:   opts.Status,
		newDisc:  opts.NewDiscovery,
		dial:     opts.Dial,
		exit:     opts.Exit,
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	if b.newDisc == nil {
		logger := b.logger
		b.newDisc = func(cfg oscquery.ServiceConfig) Discovery {
			svc := oscquery.NewService(cfg)
			svc.SetLogger(logger)
			return svc
		}
	}
	if b.dial == nil {
		b.dial = DialUDP
	}
	if b.exit == nil {
		b.exit = os.Exit
	}
	if b.cfg.Name == "" {
		b.cfg.Name = "OSCLeash"
	}

	b.emitter = NewEmitter(b, opts.Settings, opts.Status, opts.Recorder, b.logger)
	b.debouncer = NewDebouncer(b.cfg.DebounceWindow, b.IsConnected, b.runPass)
	return b, nil
}

// Start validates the local IP, then starts discovery and the debouncer.
// It returns once both are running; failures after that are reported
// through Done and Err.
//
// Parameters:
//   - ctx: Root context; cancelling it stops the bridge like Stop
//
// Returns:
//   - error: ErrInvalidLocalIP, ErrAlreadyStarted, or a port allocation error
func (b *Bridge) Start(ctx context.Context) error {
	ip, err := b.settings.Current().LocalIP()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLocalIP, err)
	}
	localIP, ok := netip.AddrFromSlice(ip)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLocalIP, ip)
	}
	localIP = localIP.Unmap()

	// b.mu is held from the started check until rootCancel is stored, so
	// Stop sees either no start at all or a cancellable one.
	b.mu.Lock()
	if !b.started.CompareAndSwap(false, true) {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}

	port := b.cfg.ReceivePort
	if port == 0 {
		if port, err = freeUDPPort(localIP); err != nil {
			b.started.Store(false)
			b.mu.Unlock()
			return fmt.Errorf("allocating osc receive port: %w", err)
		}
	}

	rootCtx, rootCancel := context.WithCancel(ctx)
	disc := b.newDisc(oscquery.ServiceConfig{
		Name:           b.cfg.Name,
		IP:             localIP,
		OSCPort:        port,
		HTTPPort:       b.cfg.QueryPort,
		ClientPrefix:   b.cfg.ClientPrefix,
		BrowseInterval: b.cfg.BrowseInterval,
	})

	b.localIP = localIP
	b.receivePort = port
	b.discovery = disc
	b.rootCtx = rootCtx
	b.rootCancel = rootCancel
	b.state = StateAdvertising
	b.mu.Unlock()

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error { return b.debouncer.Run(gctx) })
	g.Go(func() error {
		err := disc.Run(gctx, b.ClientFound)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discovery: %w", err)
		}
		return nil
	})

	go func() {
		b.runErr = g.Wait()
		rootCancel()
		close(b.done)
	}()

	b.mu.Lock()
	if b.state == StateAdvertising {
		b.state = StateAwaitingClient
	}
	b.mu.Unlock()
	b.logger.Info("osc bridge started",
		"local_ip", localIP.String(),
		"receive_port", port,
		"debounce", b.debouncer.window)
	return nil
}

// Done is closed once discovery and the debouncer have exited.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Err returns the error that ended the bridge, if any. Valid after Done.
func (b *Bridge) Err() error {
	<-b.done
	return b.runErr
}

// Stop cancels discovery, releases the session and waits for every bridge
// goroutine. Safe to call multiple times and before Start.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		wasStarted := b.started.Swap(true)
		cancel := b.rootCancel
		b.mu.Unlock()

		switch {
		case cancel != nil:
			cancel()
			<-b.done
		case !wasStarted:
			// Start can no longer run, so nothing else closes done.
			close(b.done)
		}

		b.connectMu.Lock()
		last := b.releaseSession()
		b.connectMu.Unlock()

		b.wg.Wait()
		if last != nil {
			b.status.PublishConnection(status.ConnectionEvent{Connected: false, Peer: last.peer()})
		}
		b.setState(StateStopped)
		b.logger.Info("osc bridge stopped")
	})
}

// ClientFound opens a session to c, replacing any existing one.
func (b *Bridge) ClientFound(c oscquery.Client) {
	b.connectMu.Lock()
	defer b.connectMu.Unlock()

	b.mu.RLock()
	rootCtx, localIP, port := b.rootCtx, b.localIP, b.receivePort
	b.mu.RUnlock()
	if rootCtx == nil || rootCtx.Err() != nil {
		return
	}

	b.logger.Info("found vrchat client", "instance", c.Instance, "endpoint", c.OSC.String())
	prev := b.releaseSession()

	local := localEndpoint(c.OSC.Addr(), localIP, port)
	conn, err := b.dial(local, c.OSC)
	if err != nil {
		b.logger.Error("opening osc session", "local", local.String(), "remote", c.OSC.String(), "error", err)
		if prev != nil {
			b.status.PublishConnection(status.ConnectionEvent{Connected: false, Peer: prev.peer()})
		}
		b.status.PublishError(status.ErrorEvent{Message: "opening osc session: " + err.Error()})
		b.setState(StateAwaitingClient)
		b.discoveryForget()
		return
	}

	s := newSession(rootCtx, c, conn)
	b.mu.Lock()
	b.session = s
	b.state = StateConnected
	b.mu.Unlock()
	b.sessions.Add(1)
	b.emitter.reset()

	b.wg.Add(2)
	go b.listen(s)
	go b.refreshParameters(s)

	b.status.PublishConnection(status.ConnectionEvent{Connected: true, Peer: s.peer()})
	b.logger.Info("osc session started", "session", s.id, "local", local.String(), "remote", s.peer())
}

// releaseSession closes and returns the current session, if any.
// connectMu must be held.
func (b *Bridge) releaseSession() *session {
	b.mu.Lock()
	s := b.session
	b.session = nil
	b.mu.Unlock()
	if s != nil {
		s.close()
		b.sentPrior.Add(s.sent.Load())
	}
	return s
}

// disconnect releases s after the client went away.
func (b *Bridge) disconnect(s *session) {
	b.connectMu.Lock()
	b.mu.RLock()
	current := b.session == s
	b.mu.RUnlock()
	if current {
		b.releaseSession()
	}
	b.connectMu.Unlock()
	if !current {
		return
	}

	b.setState(StateDisconnected)
	b.logger.Info("vrchat client disconnected", "session", s.id, "peer", s.peer())
	b.status.PublishConnection(status.ConnectionEvent{Connected: false, Peer: s.peer()})
	b.discoveryForget()
	b.setState(StateAwaitingClient)
}

func (b *Bridge) discoveryForget() {
	b.mu.RLock()
	d := b.discovery
	b.mu.RUnlock()
	if d != nil {
		d.Forget()
	}
}

// Send implements Sender on the current session.
func (b *Bridge) Send(address string, arg any) error {
	b.mu.RLock()
	s := b.session
	b.mu.RUnlock()
	if s == nil {
		return ErrNotConnected
	}
	return s.send(address, arg)
}

// IsConnected reports whether a session is active.
func (b *Bridge) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session != nil
}

// State returns the lifecycle state.
func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	prev := b.state
	b.state = s
	b.mu.Unlock()
	if prev != s {
		b.logger.Debug("osc bridge state", "from", prev.String(), "to", s.String())
	}
}

// Peer returns the connected client's OSC endpoint, or "" when idle.
func (b *Bridge) Peer() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return ""
	}
	return b.session.peer()
}

// Metrics returns current counters.
func (b *Bridge) Metrics() Metrics {
	b.mu.RLock()
	m := Metrics{
		State:       b.state,
		ReceivePort: b.receivePort,
	}
	sent := b.sentPrior.Load()
	if s := b.session; s != nil {
		m.Peer = s.peer()
		m.SessionID = s.id
		sent += s.sent.Load()
	}
	if svc, ok := b.discovery.(interface{ HTTPPort() int }); ok {
		m.QueryPort = svc.HTTPPort()
	}
	b.mu.RUnlock()

	m.Devices = b.registry.Len()
	m.DatagramsRx = b.datagramsRx.Load()
	m.MessagesRx = b.messagesRx.Load()
	m.DecodeErrors = b.decodeErrors.Load()
	m.MessagesTx = sent
	m.Passes = b.passes.Load()
	m.Sessions = b.sessions.Load()
	return m
}

// runPass is the debouncer's pass function.
func (b *Bridge) runPass(batch []string) {
	devices := b.registry.Snapshot()
	v, ok := leash.Process(devices, batch, b.settings.Current())
	if !ok {
		return
	}
	b.passes.Add(1)
	b.emitter.Emit(v)
}

// isRemoteClosed reports whether err means the client's socket is gone.
func isRemoteClosed(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
