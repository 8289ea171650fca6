// Package settings is the persisted device configuration: a single JSON
// document on disk, read with gjson paths and written with sjson. Values
// are bounded at write time; most keys silently truncate, a few
// fixed-capacity keys reject overflow.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Write bounds per key family. Free-text keys truncate silently; the
// fixed-capacity keys below reject overflow instead.
const (
	maxFreeTextLen  = 4096
	maxMessageLen   = 512
	maxTimezoneLen  = 64
	maxClockTimeLen = 5 // "HH:MM"
	maxModelKeyLen  = 256
)

// fixedCapacity lists paths whose writes reject overflow explicitly.
var fixedCapacity = map[string]int{
	"timezone":      maxTimezoneLen,
	"reminder.time": maxClockTimeLen,
	"model.key":     maxModelKeyLen,
}

// truncateAt lists paths with a silent-truncation bound tighter than the
// free-text default.
var truncateAt = map[string]int{
	"reminder.text": maxMessageLen,
	"email.to":      maxMessageLen,
	"email.subject": maxMessageLen,
}

// Store holds the JSON document and its backing file.
type Store struct {
	path string
	doc  string
	mu   sync.Mutex
}

// NewStore creates a Store backed by path. The document starts empty and
// is populated by Load or by the first write.
func NewStore(path string) *Store {
	return &Store{path: path, doc: "{}"}
}

// Load reads the document from disk. A missing file is not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("settings file %s is not valid JSON", s.path)
	}
	s.doc = string(data)
	return nil
}

// SetString writes a string value at path, applying the configured bound.
func (s *Store) SetString(path, value string) error {
	if limit, ok := fixedCapacity[path]; ok && len(value) > limit {
		return fmt.Errorf("value too long for %s (max %d chars)", path, limit)
	}
	value = truncate(value, boundFor(path))
	return s.set(path, value)
}

// GetString reads a string value at path, or "" if unset.
func (s *Store) GetString(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gjson.Get(s.doc, path).String()
}

// SetBool writes a boolean at path.
func (s *Store) SetBool(path string, value bool) error {
	return s.set(path, value)
}

// GetBool reads a boolean at path, false if unset.
func (s *Store) GetBool(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gjson.Get(s.doc, path).Bool()
}

// Delete removes the value at path.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := sjson.Delete(s.doc, path)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return s.commitLocked(doc)
}

// IncrCounter adds one to the integer counter at path.
func (s *Store) IncrCounter(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := gjson.Get(s.doc, path).Int()
	doc, err := sjson.Set(s.doc, path, n+1)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", path, err)
	}
	return s.commitLocked(doc)
}

// Counter reads the integer counter at path.
func (s *Store) Counter(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gjson.Get(s.doc, path).Int()
}

func (s *Store) set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := sjson.Set(s.doc, path, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return s.commitLocked(doc)
}

// commitLocked swaps in the new document and writes it to disk.
// Caller must hold s.mu.
func (s *Store) commitLocked(doc string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(doc), 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	s.doc = doc
	return nil
}

func boundFor(path string) int {
	if limit, ok := truncateAt[path]; ok {
		return limit
	}
	if limit, ok := fixedCapacity[path]; ok {
		return limit
	}
	return maxFreeTextLen
}

// truncate bounds s to limit bytes, backing off to a rune boundary so
// a multi-byte character is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
