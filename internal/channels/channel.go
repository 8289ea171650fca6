package channels

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/coopco/helmsman/internal/bus"
)

// Channel is a chat transport the assistant can receive commands from
// and deliver results to. Implementations push inbound text onto the
// bus and render outbound text plus any extracted attachments.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
	IsAllowed(senderID string) bool
}

// Factory builds a Channel from its raw JSON config section.
type Factory func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register makes a transport available under the given name.
// Transports call this from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	registry[name] = factory
	registryMu.Unlock()
}

// GetFactory looks up a registered transport by name.
func GetFactory(name string) (Factory, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	f, ok := registry[name]
	return f, ok
}

// RegisteredNames lists the registered transports in stable order.
func RegisteredNames() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
