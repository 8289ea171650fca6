package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coopco/helmsman/internal/cron"
)

// ManageCronTool lets the reasoning loop inspect and modify the device's
// cron store.
type ManageCronTool struct {
	store *cron.Store
}

func NewManageCronTool(store *cron.Store) *ManageCronTool {
	return &ManageCronTool{store: store}
}

func (t *ManageCronTool) Name() string { return "manage_cron" }
func (t *ManageCronTool) Description() string {
	return "Add, list, or clear scheduled cron jobs on the device"
}
func (t *ManageCronTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {
				"type": "string",
				"enum": ["add", "list", "clear"],
				"description": "Action to perform"
			},
			"line": {
				"type": "string",
				"description": "Cron line for add: '<min> <hour> <day> <month> <weekday> | <command>'"
			}
		},
		"required": ["action"]
	}`)
}

func (t *ManageCronTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Action string `json:"action"`
		Line   string `json:"line"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}

	switch p.Action {
	case "add":
		if p.Line == "" {
			return "", fmt.Errorf("line is required for add action")
		}
		job, err := t.store.Add(p.Line)
		if err != nil {
			return "", fmt.Errorf("failed to add job: %w", err)
		}
		return fmt.Sprintf("Cron job added: %s", job.Render()), nil

	case "list":
		jobs := t.store.Jobs()
		if len(jobs) == 0 {
			return "No cron jobs stored.", nil
		}
		var b strings.Builder
		for i, j := range jobs {
			fmt.Fprintf(&b, "%d. %s\n", i+1, j.Render())
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "clear":
		if err := t.store.Clear(); err != nil {
			return "", fmt.Errorf("failed to clear jobs: %w", err)
		}
		return "All cron jobs cleared.", nil

	default:
		return "", fmt.Errorf("invalid action: %s (must be add, list, or clear)", p.Action)
	}
}
