package oscquery

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/grandcat/zeroconf"
	"golang.org/x/sync/errgroup"
)

// Defaults for ServiceConfig.
const (
	DefaultClientPrefix   = "VRChat-Client-"
	DefaultBrowseInterval = 5 * time.Second
)

// Logger is the logging interface used by the service.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Name is advertised as the mDNS instance and HOST_INFO NAME.
	Name string

	// IP is the local address to serve and advertise on.
	IP netip.Addr

	// OSCPort is the UDP port this application receives OSC on.
	OSCPort int

	// HTTPPort is the OSCQuery HTTP port; 0 picks a free one.
	HTTPPort int

	// ClientPrefix filters browsed instances. Default: "VRChat-Client-".
	ClientPrefix string

	// BrowseInterval is the length of each browse window.
	BrowseInterval time.Duration
}

// Service advertises this application and discovers VRChat clients.
type Service struct {
	cfg       ServiceConfig
	server    *Server
	client    *HTTPClient
	registrar Registrar
	resolver  Resolver
	browser   *browser
	logger    Logger
	running   atomic.Bool
}

// NewService creates a service. Call Run to start it.
func NewService(cfg ServiceConfig) *Service {
	if cfg.ClientPrefix == "" {
		cfg.ClientPrefix = DefaultClientPrefix
	}
	if cfg.BrowseInterval <= 0 {
		cfg.BrowseInterval = DefaultBrowseInterval
	}
	s := &Service{
		cfg:       cfg,
		server:    NewServer(cfg.Name, netip.AddrPortFrom(cfg.IP, uint16(cfg.OSCPort))),
		client:    NewHTTPClient(nil),
		registrar: zeroconfRegistrar{},
		logger:    noopLogger{},
	}
	s.browser = &browser{
		fetcher:  s.client,
		prefix:   cfg.ClientPrefix,
		interval: cfg.BrowseInterval,
	}
	return s
}

// SetLogger sets the logger. Call before Run.
func (s *Service) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Run serves, advertises and browses until ctx is cancelled. found is
// called from the browse goroutine for every newly discovered client.
func (s *Service) Run(ctx context.Context, found func(Client)) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	addr := net.JoinHostPort(s.cfg.IP.String(), strconv.Itoa(s.cfg.HTTPPort))
	if err := s.server.Listen(addr); err != nil {
		return err
	}

	adv, err := advertise(s.registrar, s.cfg.Name, s.cfg.IP, s.server.Port(), s.cfg.OSCPort)
	if err != nil {
		s.server.closeListener()
		return fmt.Errorf("advertising oscquery service: %w", err)
	}
	defer adv.shutdown()

	resolver := s.resolver
	if resolver == nil {
		r, err := zeroconf.NewResolver(nil)
		if err != nil {
			s.server.closeListener()
			return fmt.Errorf("creating mdns resolver: %w", err)
		}
		resolver = r
	}

	s.browser.resolver = resolver
	s.browser.logger = s.logger

	s.logger.Info("oscquery service started",
		"name", s.cfg.Name,
		"http_port", s.server.Port(),
		"osc_port", s.cfg.OSCPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.server.Serve(gctx) })
	g.Go(func() error {
		s.browser.run(gctx, found)
		return nil
	})
	return g.Wait()
}

// HTTPPort returns the bound OSCQuery HTTP port once Run has started.
func (s *Service) HTTPPort() int {
	return s.server.Port()
}

// Forget makes the next sighting of the current client be reported again.
func (s *Service) Forget() {
	s.browser.forget()
}

// Parameters reads the client's current values under path.
func (s *Service) Parameters(ctx context.Context, c Client, path string) (map[string]any, error) {
	return s.client.FetchParameters(ctx, c.BaseURL(), path)
}
