package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coopco/helmsman/internal/bus"
)

// Manager owns the set of live transports. It routes each outbound
// message to the transport whose name matches the message's channel.
type Manager struct {
	mu         sync.Mutex
	transports []Channel
	bus        *bus.MessageBus
}

func NewManager(msgBus *bus.MessageBus) *Manager {
	m := &Manager{bus: msgBus}
	msgBus.Subscribe("", m.routeOutbound)
	return m
}

// AddChannel instantiates a registered transport from its config
// section and places it under management.
func (m *Manager) AddChannel(name string, cfgJSON json.RawMessage) error {
	factory, ok := GetFactory(name)
	if !ok {
		return fmt.Errorf("no factory registered for channel %q", name)
	}
	ch, err := factory(cfgJSON, m.bus)
	if err != nil {
		return fmt.Errorf("failed to create channel %q: %w", name, err)
	}
	m.mu.Lock()
	m.transports = append(m.transports, ch)
	m.mu.Unlock()
	return nil
}

// StartAll starts every managed transport, failing on the first error.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, ch := range m.snapshot() {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("failed to start channel %q: %w", ch.Name(), err)
		}
	}
	return nil
}

// StopAll stops every managed transport. All are attempted; the first
// error is returned.
func (m *Manager) StopAll() error {
	var firstErr error
	for _, ch := range m.snapshot() {
		if err := ch.Stop(); err != nil {
			slog.Error("failed to stop channel", "channel", ch.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) routeOutbound(msg bus.OutboundMessage) {
	for _, ch := range m.snapshot() {
		if ch.Name() == msg.Channel {
			if err := ch.Send(msg); err != nil {
				slog.Error("failed to send message", "channel", ch.Name(), "error", err)
			}
			return
		}
	}
}

func (m *Manager) snapshot() []Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Channel, len(m.transports))
	copy(out, m.transports)
	return out
}
