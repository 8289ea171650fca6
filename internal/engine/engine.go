// Package engine owns the decision loop: one goroutine that services
// the scheduler and then at most one queued message per tick, running
// each resolution to completion before the next tick. All mutable
// decision state lives in the structs the engine holds; nothing is
// package-global.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/coopco/helmsman/internal/bus"
	"github.com/coopco/helmsman/internal/clock"
	"github.com/coopco/helmsman/internal/pipeline"
	"github.com/coopco/helmsman/internal/scheduler"
)

// resolver is the pipeline entry point.
type resolver interface {
	Resolve(ctx context.Context, msg bus.InboundMessage) string
}

// DefaultTickInterval is how often the loop wakes when idle.
const DefaultTickInterval = 500 * time.Millisecond

// Engine is the owning goroutine's state.
type Engine struct {
	bus       *bus.MessageBus
	scheduler *scheduler.Service
	resolver  resolver
	clock     clock.Clock

	notifyChannel string // where synthetic-message output goes
	notifyChat    string
	tickInterval  time.Duration
}

// Config wires an Engine.
type Config struct {
	Bus           *bus.MessageBus
	Scheduler     *scheduler.Service
	Resolver      resolver
	Clock         clock.Clock
	NotifyChannel string
	NotifyChat    string
	TickInterval  time.Duration
}

// New creates an Engine.
func New(cfg Config) *Engine {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Engine{
		bus:           cfg.Bus,
		scheduler:     cfg.Scheduler,
		resolver:      cfg.Resolver,
		clock:         cfg.Clock,
		notifyChannel: cfg.NotifyChannel,
		notifyChat:    cfg.NotifyChat,
		tickInterval:  tick,
	}
}

// Inject queues a synthetic internal message; the scheduler's Emit is
// wired to this. It shares the bounded handoff queue with the channel
// producers.
func (e *Engine) Inject(command string) {
	msg := bus.InboundMessage{
		Channel: bus.SourceInternal,
		ChatID:  e.notifyChat,
		Content: command,
	}
	if !e.bus.OfferInbound(msg, time.Second) {
		slog.Warn("engine: dropped synthetic message", "command", command)
	}
}

// Run drives the loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.TickOnce(ctx)
		}
	}
}

// TickOnce services the scheduler, then fully processes at most one
// queued message.
func (e *Engine) TickOnce(ctx context.Context) {
	if e.scheduler != nil {
		e.scheduler.Tick(e.clock.Now())
	}
	msg, ok := e.bus.PollInbound()
	if !ok {
		return
	}
	e.process(ctx, msg)
}

func (e *Engine) process(ctx context.Context, msg bus.InboundMessage) {
	started := time.Now()
	out := e.resolver.Resolve(ctx, msg)
	slog.Info("engine: message resolved",
		"channel", msg.Channel, "chat", msg.ChatID,
		"elapsed", time.Since(started).Round(time.Millisecond))
	if out == "" {
		return
	}

	content, atts := pipeline.ExtractAttachments(out)

	channel, chat := msg.Channel, msg.ChatID
	if channel == bus.SourceInternal {
		if e.notifyChannel == "" {
			slog.Info("engine: synthetic result (no notify target)", "output", pipeline.Truncate(content, 200))
			return
		}
		channel, chat = e.notifyChannel, e.notifyChat
	}

	e.bus.PublishOutbound(bus.OutboundMessage{
		Channel:     channel,
		ChatID:      chat,
		Content:     content,
		Attachments: atts,
		Type:        "text",
	})
}
