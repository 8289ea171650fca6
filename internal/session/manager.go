// Package session keeps short conversation histories for the direct-chat
// fallback, persisted as one JSONL file per session key.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// maxHistory bounds how many messages a session keeps. Oldest messages
// are dropped first; chat context does not need the full transcript.
const maxHistory = 40

// Message represents a single message in a session.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SessionMeta is stored as the first line of the JSONL file.
type SessionMeta struct {
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Session holds conversation state.
type Session struct {
	Meta     SessionMeta
	Messages []Message
	mu       sync.RWMutex
}

// Append adds a message, trimming the history to maxHistory.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)
	if msg.Timestamp == "" {
		msg.Timestamp = now
	}
	s.Messages = append(s.Messages, msg)
	if n := len(s.Messages); n > maxHistory {
		s.Messages = s.Messages[n-maxHistory:]
	}
	s.Meta.UpdatedAt = now
}

// History returns a copy of the stored messages.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Manager loads and persists sessions under a data directory, caching
// each session after first use.
type Manager struct {
	dataDir string
	cache   map[string]*Session
	mu      sync.Mutex
}

func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir: dataDir,
		cache:   make(map[string]*Session),
	}
}

// sessionFile maps a session key to a filename, replacing characters
// that cannot appear in one.
func (m *Manager) sessionFile(key string) string {
	r := strings.NewReplacer(":", "_", "/", "_")
	return filepath.Join(m.dataDir, r.Replace(key)+".jsonl")
}

// GetOrCreate returns the cached or on-disk session for key, creating
// a fresh one if neither exists.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.cache[key]; ok {
		return s
	}
	s, err := m.load(key)
	if err != nil {
		now := time.Now().UTC().Format(time.RFC3339)
		s = &Session{
			Meta:     SessionMeta{Key: key, CreatedAt: now, UpdatedAt: now},
			Messages: []Message{},
		}
	}
	m.cache[key] = s
	return s
}

// Save writes the session to a temp file and renames it into place, so
// a crash mid-write cannot corrupt the stored history.
func (m *Manager) Save(s *Session) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	path := m.sessionFile(s.Meta.Key)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}

	enc := json.NewEncoder(f)
	err = enc.Encode(s.Meta)
	for i := 0; err == nil && i < len(s.Messages); i++ {
		err = enc.Encode(s.Messages[i])
	}
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close session file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (m *Manager) load(key string) (*Session, error) {
	f, err := os.Open(m.sessionFile(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("session file is empty")
	}
	var meta SessionMeta
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("corrupt session meta: %w", err)
	}

	messages := []Message{}
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return &Session{Meta: meta, Messages: messages}, nil
}
