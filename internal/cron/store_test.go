package cron

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "cron.txt"), 0)
}

func TestStoreSeedsHeaderOnFirstUse(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("reading seeded store: %v", err)
	}
	if !strings.HasPrefix(string(data), "# helmsman cron jobs") {
		t.Errorf("seeded store missing header, got %q", string(data))
	}
	if jobs := s.Jobs(); len(jobs) != 0 {
		t.Errorf("expected 0 jobs after seed, got %d", len(jobs))
	}
}

func TestStoreAddAndReload(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Add("0 9 * * * | good morning"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add("30 18 * * 5 | friday wrap-up"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A fresh store over the same file sees both jobs plus the header.
	s2 := NewStore(s.path, 0)
	if err := s2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	jobs := s2.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after reload, got %d", len(jobs))
	}
	if jobs[0].Command != "good morning" || jobs[1].Command != "friday wrap-up" {
		t.Errorf("job order not preserved: %q, %q", jobs[0].Command, jobs[1].Command)
	}
}

func TestStoreAddRejectsBadLine(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("61 9 * * * | x"); err == nil {
		t.Error("expected error adding out-of-range line")
	}
	if _, err := s.Add("# just a comment"); err == nil {
		t.Error("expected error adding a comment as a job")
	}
}

func TestStoreCapacity(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cron.txt"), 2)
	if _, err := s.Add("* * * * * | one"); err != nil {
		t.Fatalf("Add 1: %v", err)
	}
	if _, err := s.Add("* * * * * | two"); err != nil {
		t.Fatalf("Add 2: %v", err)
	}
	if _, err := s.Add("* * * * * | three"); err == nil {
		t.Error("expected store-full error on third add")
	}
}

func TestStoreClear(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("0 9 * * * | morning"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if jobs := s.Jobs(); len(jobs) != 0 {
		t.Errorf("expected 0 jobs after clear, got %d", len(jobs))
	}
	data, _ := os.ReadFile(s.path)
	if !strings.HasPrefix(string(data), "# helmsman cron jobs") {
		t.Error("clear did not restore the header")
	}
}

func TestLastCheckRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.LastCheck(); ok {
		t.Fatal("LastCheck reported a value before any was set")
	}
	now := time.Now().Truncate(time.Second)
	if err := s.SetLastCheck(now); err != nil {
		t.Fatalf("SetLastCheck: %v", err)
	}
	got, ok := s.LastCheck()
	if !ok {
		t.Fatal("LastCheck lost the stored value")
	}
	if !got.Equal(now) {
		t.Errorf("LastCheck = %v, want %v", got, now)
	}
}

func TestMissedCommands(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("0 * * * * | hourly job"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	from := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 11, 45, 0, 0, time.UTC)

	// 9:00, 10:00, 11:00 should have fired in the gap.
	cmds := s.MissedCommands(from, to, 10)
	if len(cmds) != 3 {
		t.Fatalf("expected 3 missed fires, got %d: %v", len(cmds), cmds)
	}
	for _, c := range cmds {
		if c != "hourly job" {
			t.Errorf("unexpected missed command %q", c)
		}
	}
}

func TestMissedCommandsBounded(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("* * * * * | every minute"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour) // 120 matching minutes

	cmds := s.MissedCommands(from, to, 5)
	if len(cmds) != 5 {
		t.Errorf("expected replay capped at 5, got %d", len(cmds))
	}
}

func TestMissedCommandsExcludeCurrentMinute(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add("0 9 * * * | good morning"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// The 09:00 fire belongs to the live minute check, not the replay.
	from := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 9, 0, 30, 0, time.UTC)
	if cmds := s.MissedCommands(from, to, 10); cmds != nil {
		t.Errorf("replay claimed the current minute: %v", cmds)
	}
}

func TestMissedCommandsEmptyGapOrStore(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	if cmds := s.MissedCommands(now.Add(-time.Hour), now, 5); cmds != nil {
		t.Errorf("empty store produced missed commands: %v", cmds)
	}
	if _, err := s.Add("* * * * * | x"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if cmds := s.MissedCommands(now, now, 5); cmds != nil {
		t.Errorf("zero gap produced missed commands: %v", cmds)
	}
	if cmds := s.MissedCommands(now.Add(time.Hour), now, 5); cmds != nil {
		t.Errorf("negative gap produced missed commands: %v", cmds)
	}
}
