package osc

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/nerrad567/oscleash/internal/leash"
	"github.com/nerrad567/oscleash/internal/status"
)

// exitCodeFatal is the process status after an unclassified receive error.
const exitCodeFatal = -1

// listen is the receive loop of one session.
func (b *Bridge) listen(s *session) {
	defer b.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			switch {
			case s.ctx.Err() != nil:
				return
			case isRemoteClosed(err):
				b.disconnect(s)
				return
			default:
				b.fail(s, err)
				return
			}
		}
		b.handleDatagram(s, buf[:n])
	}
}

// fail handles a receive error that is neither cancellation nor a client
// disconnect. The process cannot recover its socket state, so it exits.
func (b *Bridge) fail(s *session, err error) {
	b.logger.Error("error while listening for messages", "session", s.id, "peer", s.peer(), "error", err)
	b.status.PublishError(status.ErrorEvent{Message: err.Error(), Fatal: true})
	b.exit(exitCodeFatal)
}

func (b *Bridge) handleDatagram(s *session, data []byte) {
	b.datagramsRx.Add(1)

	msgs, err := decodePacket(data)
	if err != nil {
		b.decodeErrors.Add(1)
		b.logger.Debug("dropping undecodable datagram", "size", len(data), "error", err)
		return
	}

	for _, msg := range msgs {
		if strings.EqualFold(msg.Address, AddressAvatarChange) {
			b.logger.Debug("avatar changed", "session", s.id, "arguments", msg.Arguments)
			b.wg.Add(1)
			go b.refreshParameters(s)
			continue
		}
		if len(msg.Arguments) == 0 {
			continue
		}
		b.ingest(msg.Address, msg.Arguments[0])
	}
}

// ingest applies one parameter value to the registry and signals the
// debouncer. OSC messages and OSCQuery values share this path. It reports
// whether the registry was touched.
func (b *Bridge) ingest(address string, value any) bool {
	if !leash.HasPrefix(address) {
		return false
	}
	addr := leash.ParseAddress(address)
	if !addr.Valid() || addr.Param.Ignored() {
		return false
	}

	b.messagesRx.Add(1)
	b.registry.Apply(addr.Name, addr.Direction, addr.Param, value)
	b.debouncer.Signal(addr.Name)
	return true
}

// refreshParameters reads the client's current leash parameters over
// OSCQuery and ingests them.
func (b *Bridge) refreshParameters(s *session) {
	defer b.wg.Done()

	b.mu.RLock()
	disc := b.discovery
	b.mu.RUnlock()
	if disc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, parameterRefreshTimeout)
	defer cancel()

	params, err := disc.Parameters(ctx, s.client, parametersPath)
	if err != nil {
		if s.ctx.Err() == nil {
			b.logger.Warn("reading leash parameters", "session", s.id, "error", err)
		}
		return
	}

	// Sorted so first-seen registry order is stable across refreshes.
	applied := 0
	for _, address := range slices.Sorted(maps.Keys(params)) {
		if b.ingest(address, params[address]) {
			applied++
		}
	}
	b.logger.Debug("leash parameters refreshed", "session", s.id, "received", len(params), "applied", applied)
}
