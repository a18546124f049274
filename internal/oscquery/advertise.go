package oscquery

import (
	"fmt"
	"net/netip"

	"github.com/grandcat/zeroconf"
)

// Registrar publishes an mDNS service record. zeroconfRegistrar is the
// production implementation; tests substitute their own.
type Registrar interface {
	Register(instance, service string, port int, ip netip.Addr) (Shutdowner, error)
}

// Shutdowner withdraws a registration.
type Shutdowner interface {
	Shutdown()
}

type zeroconfRegistrar struct{}

// Register announces instance on the given IP only, so the advertised
// address matches the one HOST_INFO reports.
func (zeroconfRegistrar) Register(instance, service string, port int, ip netip.Addr) (Shutdowner, error) {
	host := instance + "." + ServiceDomain
	srv, err := zeroconf.RegisterProxy(instance, service, ServiceDomain, port, host,
		[]string{ip.String()}, []string{"txtvers=1"}, nil)
	if err != nil {
		return nil, fmt.Errorf("registering %s %s: %w", service, instance, err)
	}
	return srv, nil
}

// advertisement holds the live mDNS registrations of one Service run.
type advertisement struct {
	servers []Shutdowner
}

// advertise registers the OSCQuery HTTP endpoint and the OSC receive
// endpoint. Either both succeed or neither is left registered.
func advertise(reg Registrar, name string, ip netip.Addr, httpPort, oscPort int) (*advertisement, error) {
	query, err := reg.Register(name, ServiceTypeQuery, httpPort, ip)
	if err != nil {
		return nil, err
	}
	osc, err := reg.Register(name, ServiceTypeOSC, oscPort, ip)
	if err != nil {
		query.Shutdown()
		return nil, err
	}
	return &advertisement{servers: []Shutdowner{query, osc}}, nil
}

func (a *advertisement) shutdown() {
	for _, s := range a.servers {
		s.Shutdown()
	}
}
