// Package pipeline is the top-level message resolution chain: direct
// dispatch, unknown-command denial, routing classification, multi-step
// reasoning, and a conversational fallback, in that strict order. Every
// stage is string-in/string-out; a stage that does not claim the message
// defers to the next one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coopco/helmsman/internal/bus"
)

// Dispatcher is the structured command surface tried first.
type Dispatcher interface {
	Execute(raw string) (handled bool, output string)
}

// Classifier turns free-form text into a dispatcher command, or "" when
// none applies.
type Classifier interface {
	Classify(ctx context.Context, message string) (string, error)
}

// Reasoner is the bounded multi-step tool loop; *agent.Loop satisfies it.
type Reasoner interface {
	Run(ctx context.Context, message string) (string, error)
}

// Chatter produces a direct conversational answer.
type Chatter interface {
	Chat(ctx context.Context, sessionKey, message string) (string, error)
}

// DefaultMaxResponseLen is the practical transport message limit; longer
// stage output is truncated with an ellipsis marker.
const DefaultMaxResponseLen = 4000

// Resolver runs the fallback chain.
type Resolver struct {
	dispatcher Dispatcher
	classifier Classifier
	reasoner   Reasoner
	chatter    Chatter
	maxLen     int
}

// Config wires a Resolver. Classifier, Reasoner and Chatter may be nil;
// a nil stage is skipped.
type Config struct {
	Dispatcher     Dispatcher
	Classifier     Classifier
	Reasoner       Reasoner
	Chatter        Chatter
	MaxResponseLen int
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	maxLen := cfg.MaxResponseLen
	if maxLen <= 0 {
		maxLen = DefaultMaxResponseLen
	}
	return &Resolver{
		dispatcher: cfg.Dispatcher,
		classifier: cfg.Classifier,
		reasoner:   cfg.Reasoner,
		chatter:    cfg.Chatter,
		maxLen:     maxLen,
	}
}

// Resolve runs one message through the chain and always returns a
// response string. Collaborator failures become ERR: strings, never
// errors or panics.
func (r *Resolver) Resolve(ctx context.Context, msg bus.InboundMessage) string {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return ""
	}

	if handled, out := r.dispatcher.Execute(content); handled {
		return Truncate(out, r.maxLen)
	}

	// An explicit command marker that matched nothing is denied rather
	// than handed to the language stages.
	if strings.HasPrefix(content, "/") {
		return "ERR: unknown command — try 'help'"
	}

	if r.classifier != nil && looksActionable(content) {
		if cmd, err := r.classifier.Classify(ctx, content); err != nil {
			slog.Warn("pipeline: classifier failed", "error", err)
		} else if cmd != "" {
			slog.Info("pipeline: classified", "command", cmd)
			if handled, out := r.dispatcher.Execute(cmd); handled {
				return Truncate(out, r.maxLen)
			}
		}
	}

	if r.reasoner != nil && needsReasoning(content) {
		out, err := r.reasoner.Run(ctx, content)
		if err != nil {
			slog.Warn("pipeline: reasoning failed", "error", err)
			return fmt.Sprintf("ERR: reasoning failed: %v", err)
		}
		return Truncate(out, r.maxLen)
	}

	if r.chatter != nil {
		out, err := r.chatter.Chat(ctx, msg.SessionKey(), content)
		if err != nil {
			slog.Warn("pipeline: chat failed", "error", err)
			return fmt.Sprintf("ERR: chat failed: %v", err)
		}
		return Truncate(out, r.maxLen)
	}

	return "ERR: no handler available for this message"
}

// actionVerbs are first-word hints that a conversational message wants
// something done rather than discussed.
var actionVerbs = []string{
	"turn", "switch", "set", "schedule", "remind", "update", "check",
	"search", "flash", "enable", "disable", "start", "stop", "run",
	"install", "send", "clear", "cancel", "show", "publish",
}

// actionKeywords anywhere in the message also trigger classification.
var actionKeywords = []string{
	"every day", "daily", "cron", "firmware", "reminder", "schedule",
	"relay", "led", "safe mode", "timezone", "web page",
}

// looksActionable is the cheap screen before the classifier call.
func looksActionable(content string) bool {
	lower := strings.ToLower(content)
	first, _, _ := strings.Cut(lower, " ")
	for _, v := range actionVerbs {
		if first == v {
			return true
		}
	}
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// needsReasoning flags messages that want multi-step tool use: fetching
// a page, chaining steps, or research-style asks.
func needsReasoning(content string) bool {
	lower := strings.ToLower(content)
	if strings.Contains(lower, "http://") || strings.Contains(lower, "https://") {
		return true
	}
	for _, kw := range []string{"and then", "step by step", "research", "compare", "summarize", "fetch"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Truncate bounds s to max bytes on a rune boundary, appending an
// ellipsis marker when anything was cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const marker = "…"
	cut := max - len(marker)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
