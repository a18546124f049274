package oscquery

import (
	"context"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

// Resolver browses mDNS. Satisfied by *zeroconf.Resolver.
type Resolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// hostInfoFetcher is the part of HTTPClient the browser needs.
type hostInfoFetcher interface {
	FetchHostInfo(ctx context.Context, baseURL string) (HostInfo, error)
}

// browser repeatedly browses for matching OSCQuery instances and reports
// each newly seen client once.
type browser struct {
	resolver Resolver
	fetcher  hostInfoFetcher
	prefix   string
	interval time.Duration
	logger   Logger

	mu      sync.Mutex
	current netip.AddrPort
}

// run browses every interval until ctx is cancelled.
func (b *browser) run(ctx context.Context, found func(Client)) {
	for {
		b.browseOnce(ctx, found)

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.interval):
		}
	}
}

// browseOnce runs a single browse window of length interval.
func (b *browser) browseOnce(ctx context.Context, found func(Client)) {
	windowCtx, cancel := context.WithTimeout(ctx, b.interval)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := b.resolver.Browse(windowCtx, ServiceTypeQuery, ServiceDomain, entries); err != nil {
		b.logger.Warn("mdns browse failed", "error", err)
		return
	}

	for {
		select {
		case <-windowCtx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			b.handleEntry(windowCtx, entry, found)
		}
	}
}

func (b *browser) handleEntry(ctx context.Context, entry *zeroconf.ServiceEntry, found func(Client)) {
	if entry == nil || !strings.HasPrefix(entry.Instance, b.prefix) {
		return
	}
	if len(entry.AddrIPv4) == 0 {
		b.logger.Debug("oscquery instance without ipv4 address", "instance", entry.Instance)
		return
	}
	ip, ok := netip.AddrFromSlice(entry.AddrIPv4[0])
	if !ok {
		return
	}
	query := netip.AddrPortFrom(ip.Unmap(), uint16(entry.Port))

	c := Client{Instance: entry.Instance, Query: query}
	info, err := b.fetcher.FetchHostInfo(ctx, c.BaseURL())
	if err != nil {
		b.logger.Warn("reading host info", "instance", entry.Instance, "error", err)
		return
	}
	c.OSC, _ = info.OSCEndpoint() // validated by FetchHostInfo

	b.mu.Lock()
	if b.current == c.OSC {
		b.mu.Unlock()
		return
	}
	b.current = c.OSC
	b.mu.Unlock()

	found(c)
}

// forget clears the last reported client so the next sighting is reported
// again.
func (b *browser) forget() {
	b.mu.Lock()
	b.current = netip.AddrPort{}
	b.mu.Unlock()
}
