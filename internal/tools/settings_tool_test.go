package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coopco/helmsman/internal/settings"
)

func newSettingsTool(t *testing.T) (*SettingsTool, *settings.Store) {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewSettingsTool(store), store
}

func TestSettingsGet(t *testing.T) {
	tool, store := newSettingsTool(t)
	if err := store.SetTimezone("Asia/Kolkata"); err != nil {
		t.Fatalf("SetTimezone: %v", err)
	}
	store.CountLLMCall()
	store.CountLLMCall()

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"action":"get"}`))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, "timezone: Asia/Kolkata") {
		t.Errorf("get output = %q", out)
	}
	if !strings.Contains(out, "llm_calls: 2") {
		t.Errorf("get output = %q", out)
	}
}

func TestSettingsSetPrompts(t *testing.T) {
	tool, store := newSettingsTool(t)
	ctx := context.Background()

	if _, err := tool.Execute(ctx, json.RawMessage(`{"action":"set_persona","text":"terse ship AI"}`)); err != nil {
		t.Fatalf("set_persona: %v", err)
	}
	if got := store.Persona(); got != "terse ship AI" {
		t.Errorf("Persona = %q", got)
	}

	if _, err := tool.Execute(ctx, json.RawMessage(`{"action":"set_heartbeat","text":"check the hull"}`)); err != nil {
		t.Fatalf("set_heartbeat: %v", err)
	}
	if got := store.HeartbeatPrompt(); got != "check the hull" {
		t.Errorf("HeartbeatPrompt = %q", got)
	}
}

func TestSettingsBadInput(t *testing.T) {
	tool, _ := newSettingsTool(t)
	ctx := context.Background()

	if _, err := tool.Execute(ctx, json.RawMessage(`{"action":"set_persona"}`)); err == nil {
		t.Error("expected error for set_persona without text")
	}
	if _, err := tool.Execute(ctx, json.RawMessage(`{"action":"wipe"}`)); err == nil {
		t.Error("expected error for unknown action")
	}
}
