package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MessageBus is the handoff point between transport goroutines and the
// engine goroutine. Inbound messages are queued FIFO; the engine drains
// at most one per tick. Outbound messages fan out to channel subscribers.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	subs     map[string][]func(OutboundMessage) // channel name -> subscribers
	mu       sync.RWMutex
}

// NewMessageBus creates a new MessageBus with the given buffer size.
// If bufSize is 0, defaults to 64.
func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &MessageBus{
		inbound:  make(chan InboundMessage, bufSize),
		outbound: make(chan OutboundMessage, bufSize),
		subs:     make(map[string][]func(OutboundMessage)),
	}
}

// OfferInbound enqueues an inbound message, waiting at most wait for queue
// space. A message that cannot be enqueued in time is dropped and logged;
// it is never retried.
func (b *MessageBus) OfferInbound(msg InboundMessage, wait time.Duration) bool {
	select {
	case b.inbound <- msg:
		return true
	default:
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case b.inbound <- msg:
		return true
	case <-timer.C:
		slog.Warn("bus: inbound queue full, dropping message",
			"channel", msg.Channel, "chat", msg.ChatID)
		return false
	}
}

// PollInbound returns the oldest queued inbound message without blocking.
func (b *MessageBus) PollInbound() (InboundMessage, bool) {
	select {
	case msg := <-b.inbound:
		return msg, true
	default:
		return InboundMessage{}, false
	}
}

// PublishOutbound sends an outbound message onto the bus.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

// Subscribe registers fn to receive outbound messages for the given channel.
// An empty channel string subscribes to ALL channels.
func (b *MessageBus) Subscribe(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = append(b.subs[channel], fn)
}

// DispatchOutbound runs in a goroutine, reading outbound messages and
// delivering them to matching subscribers. Returns when ctx is cancelled.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.outbound:
			b.dispatch(msg)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch delivers msg to all matching subscribers (channel-specific + wildcard).
func (b *MessageBus) dispatch(msg OutboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, fn := range b.subs[msg.Channel] {
		fn(msg)
	}
	for _, fn := range b.subs[""] {
		fn(msg)
	}
}
