package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coopco/helmsman/internal/providers"
	"github.com/coopco/helmsman/internal/session"
)

const defaultPersona = "You are a concise assistant running on a small always-on device. Answer briefly and plainly."

// ChatResponder is the conversational fallback: persona system prompt
// plus per-session history, one provider call per message.
type ChatResponder struct {
	provider providers.Provider
	sessions *session.Manager
	model    string
	persona  func() string // returns the configured persona, or ""
	usage    usageCounter
}

// NewChatResponder creates the fallback stage. persona and usage may be
// nil.
func NewChatResponder(provider providers.Provider, sessions *session.Manager, model string, persona func() string, usage usageCounter) *ChatResponder {
	return &ChatResponder{
		provider: provider,
		sessions: sessions,
		model:    model,
		persona:  persona,
		usage:    usage,
	}
}

// Chat answers message in the context of sessionKey's history and
// records both sides of the exchange.
func (c *ChatResponder) Chat(ctx context.Context, sessionKey, message string) (string, error) {
	sess := c.sessions.GetOrCreate(sessionKey)

	system := defaultPersona
	if c.persona != nil {
		if p := c.persona(); p != "" {
			system = p
		}
	}

	msgs := make([]providers.Message, 0, len(sess.History())+1)
	for _, m := range sess.History() {
		msgs = append(msgs, providers.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, providers.Message{Role: "user", Content: message})

	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model:        c.model,
		SystemPrompt: system,
		Messages:     msgs,
	})
	if err != nil {
		if c.usage != nil {
			c.usage.CountError()
		}
		return "", fmt.Errorf("chat call failed: %w", err)
	}
	if c.usage != nil {
		c.usage.CountLLMCall()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	sess.Append(session.Message{Role: "user", Content: message, Timestamp: now})
	sess.Append(session.Message{Role: "assistant", Content: resp.Content, Timestamp: now})
	if err := c.sessions.Save(sess); err != nil {
		slog.Warn("pipeline: failed to save session", "key", sessionKey, "error", err)
	}
	return resp.Content, nil
}
