package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coopco/helmsman/internal/settings"
)

// SettingsTool exposes a small slice of the settings store to the
// reasoning loop: read-only for most keys, writable for the persona
// and heartbeat prompts.
type SettingsTool struct {
	store *settings.Store
}

func NewSettingsTool(store *settings.Store) *SettingsTool {
	return &SettingsTool{store: store}
}

func (t *SettingsTool) Name() string { return "device_settings" }
func (t *SettingsTool) Description() string {
	return "Read device settings (timezone, safe mode, usage counters) or update the persona/heartbeat prompts"
}
func (t *SettingsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {
				"type": "string",
				"enum": ["get", "set_persona", "set_heartbeat"],
				"description": "Action to perform"
			},
			"text": {
				"type": "string",
				"description": "New prompt text for set_persona/set_heartbeat"
			}
		},
		"required": ["action"]
	}`)
}

func (t *SettingsTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Action string `json:"action"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}

	switch p.Action {
	case "get":
		u := t.store.Usage()
		return fmt.Sprintf(
			"timezone: %s\nsafe_mode: %t\nllm_calls: %d\nsearch_calls: %d\nactions: %d\nerrors: %d",
			t.store.Timezone(), t.store.SafeMode(),
			u.LLMCalls, u.SearchCalls, u.Actions, u.Errors,
		), nil

	case "set_persona":
		if p.Text == "" {
			return "", fmt.Errorf("text is required for set_persona")
		}
		if err := t.store.SetPersona(p.Text); err != nil {
			return "", fmt.Errorf("failed to set persona: %w", err)
		}
		return "Persona updated.", nil

	case "set_heartbeat":
		if p.Text == "" {
			return "", fmt.Errorf("text is required for set_heartbeat")
		}
		if err := t.store.SetHeartbeatPrompt(p.Text); err != nil {
			return "", fmt.Errorf("failed to set heartbeat prompt: %w", err)
		}
		return "Heartbeat prompt updated.", nil

	default:
		return "", fmt.Errorf("invalid action: %s (must be get, set_persona, or set_heartbeat)", p.Action)
	}
}
