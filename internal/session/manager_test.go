package session

import (
	"fmt"
	"testing"
)

func TestGetOrCreateAndSave(t *testing.T) {
	m := NewManager(t.TempDir())

	s := m.GetOrCreate("telegram:42")
	s.Append(Message{Role: "user", Content: "hello"})
	s.Append(Message{Role: "assistant", Content: "hi there"})
	if err := m.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Same manager returns the cached session.
	if again := m.GetOrCreate("telegram:42"); again != s {
		t.Error("expected cached session instance")
	}

	// A fresh manager loads from disk.
	m2 := NewManager(m.dataDir)
	loaded := m2.GetOrCreate("telegram:42")
	history := loaded.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Content != "hello" || history[1].Content != "hi there" {
		t.Errorf("history = %+v", history)
	}
}

func TestHistoryTrimming(t *testing.T) {
	m := NewManager(t.TempDir())
	s := m.GetOrCreate("x")
	for i := 0; i < maxHistory+10; i++ {
		s.Append(Message{Role: "user", Content: fmt.Sprintf("msg %d", i)})
	}
	history := s.History()
	if len(history) != maxHistory {
		t.Fatalf("history length = %d, want %d", len(history), maxHistory)
	}
	if history[0].Content != "msg 10" {
		t.Errorf("oldest kept message = %q, want %q", history[0].Content, "msg 10")
	}
}

func TestSessionFileSanitizesKey(t *testing.T) {
	m := NewManager("/data")
	if got := m.sessionFile("telegram:42/7"); got != "/data/telegram_42_7.jsonl" {
		t.Errorf("sessionFile = %q", got)
	}
}
