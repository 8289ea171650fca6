package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/coopco/helmsman/internal/providers"
)

const classifierPrompt = `You route user messages to device commands. The commands are:
  status, usage, timezone_set <zone>, safe_mode on|off,
  reminder_set_daily <HH:MM> <message>, webjob_set_daily <HH:MM> <query>,
  reminder_show, reminder_clear, cron_add <min> <hour> <day> <month> <weekday> | <cmd>,
  cron_list, cron_clear, relay_set <pin> <0|1>, flash_led <count>,
  fw_check, fw_apply, search <query>, page_make <topic>, page_host,
  email_send

Reply with exactly one line: the full command with its arguments filled in
from the message, or NONE if the message maps to no command. No explanation.`

// usageCounter is the slice of the settings store the classifier needs.
type usageCounter interface {
	CountLLMCall()
	CountError()
}

// LLMClassifier asks a model for a single-line command verdict.
type LLMClassifier struct {
	provider providers.Provider
	model    string
	usage    usageCounter
}

// NewLLMClassifier creates a classifier. usage may be nil.
func NewLLMClassifier(provider providers.Provider, model string, usage usageCounter) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model, usage: usage}
}

// Classify returns the dispatcher command the message maps to, or ""
// for NONE.
func (c *LLMClassifier) Classify(ctx context.Context, message string) (string, error) {
	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model:        c.model,
		SystemPrompt: classifierPrompt,
		Messages:     []providers.Message{{Role: "user", Content: message}},
		MaxTokens:    100,
		Temperature:  0,
	})
	if err != nil {
		if c.usage != nil {
			c.usage.CountError()
		}
		return "", fmt.Errorf("classifier call failed: %w", err)
	}
	if c.usage != nil {
		c.usage.CountLLMCall()
	}
	return parseVerdict(resp.Content), nil
}

// parseVerdict extracts the command from a model reply, tolerating
// fences, quotes, and the occasional JSON-shaped answer.
func parseVerdict(reply string) string {
	line := strings.TrimSpace(reply)
	line = strings.TrimSpace(strings.Trim(line, "`"))
	if j := gjson.Get(line, "command"); j.Exists() {
		line = j.String()
	}
	line, _, _ = strings.Cut(line, "\n")
	line = strings.Trim(line, "`\"' ")
	if line == "" || strings.EqualFold(line, "none") {
		return ""
	}
	return line
}
