package channels

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coopco/helmsman/internal/bus"
)

// mockChannel is a test double for Channel.
type mockChannel struct {
	name    string
	mu      sync.Mutex
	sent    []bus.OutboundMessage
	started bool
}

func (m *mockChannel) Name() string { return m.name }
func (m *mockChannel) Start(_ context.Context) error {
	m.started = true
	return nil
}
func (m *mockChannel) Stop() error { return nil }
func (m *mockChannel) Send(msg bus.OutboundMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}
func (m *mockChannel) IsAllowed(_ string) bool { return true }

func (m *mockChannel) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestRegisterAndGetFactory(t *testing.T) {
	const name = "test-channel-reg"
	Register(name, func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
		return &mockChannel{name: name}, nil
	})

	factory, ok := GetFactory(name)
	if !ok {
		t.Fatalf("expected factory for %q to be registered", name)
	}
	if factory == nil {
		t.Fatal("expected non-nil factory")
	}
}

func TestGetFactoryNotFound(t *testing.T) {
	if _, ok := GetFactory("nonexistent-channel-xyz"); ok {
		t.Fatal("expected GetFactory to return false for unregistered channel")
	}
}

func TestRegisteredNamesIncludesBuiltins(t *testing.T) {
	names := RegisteredNames()
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}
	for _, b := range []string{"telegram", "discord"} {
		if !nameSet[b] {
			t.Errorf("expected built-in channel %q to be registered", b)
		}
	}
}

func TestManagerAddChannel(t *testing.T) {
	const name = "test-channel-add"
	Register(name, func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
		return &mockChannel{name: name}, nil
	})

	msgBus := bus.NewMessageBus(16)
	mgr := NewManager(msgBus)

	if err := mgr.AddChannel(name, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("AddChannel failed: %v", err)
	}
	if err := mgr.AddChannel("no-such-channel", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unregistered channel")
	}

	mgr.mu.Lock()
	count := len(mgr.transports)
	mgr.mu.Unlock()
	if count != 1 {
		t.Fatalf("expected 1 channel, got %d", count)
	}
}

func TestOutboundRoutesToNamedChannel(t *testing.T) {
	mockA := &mockChannel{name: "route-a"}
	mockB := &mockChannel{name: "route-b"}
	Register("route-a", func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
		return mockA, nil
	})
	Register("route-b", func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
		return mockB, nil
	})

	msgBus := bus.NewMessageBus(16)
	mgr := NewManager(msgBus)
	if err := mgr.AddChannel("route-a", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := mgr.AddChannel("route-b", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go msgBus.DispatchOutbound(ctx)

	msgBus.PublishOutbound(bus.OutboundMessage{Channel: "route-a", ChatID: "1", Content: "hello", Type: "text"})

	deadline := time.After(time.Second)
	for mockA.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("message never reached route-a")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if mockB.sentCount() != 0 {
		t.Fatal("message leaked to route-b")
	}
	mockA.mu.Lock()
	got := mockA.sent[0]
	mockA.mu.Unlock()
	if got.Content != "hello" || got.ChatID != "1" {
		t.Fatalf("sent = %+v", got)
	}
}

func TestStartAllAndStopAll(t *testing.T) {
	mock := &mockChannel{name: "lifecycle"}
	Register("lifecycle", func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
		return mock, nil
	})

	msgBus := bus.NewMessageBus(16)
	mgr := NewManager(msgBus)
	if err := mgr.AddChannel("lifecycle", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := mgr.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if !mock.started {
		t.Fatal("channel not started")
	}
	if err := mgr.StopAll(); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
}
