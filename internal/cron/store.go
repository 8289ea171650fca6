package cron

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxJobs bounds the number of stored jobs.
	DefaultMaxJobs = 16

	// catchUpWindow caps how far back missed-fire reconstruction will scan.
	catchUpWindow = 7 * 24 * time.Hour
)

var storeHeader = strings.Join([]string{
	"# helmsman cron jobs",
	"# format: <minute> <hour> <day> <month> <weekday> | <command>",
	"# example: 0 9 * * * | good morning",
	"",
}, "\n")

// Store persists cron jobs in an append-only text file and mirrors them in
// memory for matching. It also persists the last successful check timestamp
// used by missed-job catch-up.
type Store struct {
	path      string
	checkPath string
	maxJobs   int
	jobs      []*Job
	mu        sync.Mutex
}

// NewStore creates a Store backed by path. The last-check timestamp lives
// alongside it in path+".lastcheck". maxJobs <= 0 uses DefaultMaxJobs.
func NewStore(path string, maxJobs int) *Store {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	return &Store{
		path:      path,
		checkPath: path + ".lastcheck",
		maxJobs:   maxJobs,
	}
}

// Load reads the job file into the in-memory cache, seeding the file with
// a commented header on first use. Unparseable lines are skipped with a
// warning rather than failing the whole load.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return s.seedLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to open cron store: %w", err)
	}
	defer f.Close()

	s.jobs = nil
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		job, err := Parse(scanner.Text())
		if err != nil {
			slog.Warn("cron: skipping bad line in store", "line", scanner.Text(), "error", err)
			continue
		}
		if job == nil {
			continue
		}
		if len(s.jobs) >= s.maxJobs {
			slog.Warn("cron: store over capacity, ignoring extra job", "command", job.Command)
			continue
		}
		s.jobs = append(s.jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read cron store: %w", err)
	}
	return nil
}

// Add parses line, appends it to the file and the cache. Comment/blank
// lines are rejected here: Add means "store a job".
func (s *Store) Add(line string) (*Job, error) {
	job, err := Parse(line)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("cron: line %q contains no job", line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.jobs) >= s.maxJobs {
		return nil, fmt.Errorf("cron: store full (max %d jobs)", s.maxJobs)
	}

	if err := s.appendLineLocked(job.Render()); err != nil {
		return nil, err
	}
	s.jobs = append(s.jobs, job)
	return job, nil
}

// Clear removes all jobs and rewrites the file back to the seeded header.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = nil
	return s.writeFileLocked(storeHeader)
}

// Jobs returns a snapshot of the cached jobs.
func (s *Store) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// MatchingCommands returns the commands of every job firing at t.
func (s *Store) MatchingCommands(t time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cmds []string
	for _, j := range s.jobs {
		if j.MatchesTime(t) {
			cmds = append(cmds, j.Command)
		}
	}
	return cmds
}

// LastCheck returns the persisted last-check timestamp, or ok=false if
// none has been recorded yet.
func (s *Store) LastCheck() (time.Time, bool) {
	data, err := os.ReadFile(s.checkPath)
	if err != nil {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// SetLastCheck persists t as the last successful check timestamp.
func (s *Store) SetLastCheck(t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.checkPath), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	data := strconv.FormatInt(t.Unix(), 10) + "\n"
	if err := os.WriteFile(s.checkPath, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to persist last check: %w", err)
	}
	return nil
}

// MissedCommands reconstructs the commands that should have fired in the
// (from, to) gap, scanning minute by minute in to's location. The minute
// containing to is excluded: the live per-minute check owns it. The scan
// is capped to catchUpWindow and the result to max commands.
func (s *Store) MissedCommands(from, to time.Time, max int) []string {
	if max <= 0 || !to.After(from) {
		return nil
	}
	if to.Sub(from) > catchUpWindow {
		from = to.Add(-catchUpWindow)
	}

	s.mu.Lock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	if len(jobs) == 0 {
		return nil
	}

	var cmds []string
	start := from.In(to.Location()).Truncate(time.Minute).Add(time.Minute)
	end := to.Truncate(time.Minute)
	for m := start; m.Before(end); m = m.Add(time.Minute) {
		for _, j := range jobs {
			if j.MatchesTime(m) {
				cmds = append(cmds, j.Command)
				if len(cmds) >= max {
					return cmds
				}
			}
		}
	}
	return cmds
}

func (s *Store) seedLocked() error {
	s.jobs = nil
	return s.writeFileLocked(storeHeader)
}

func (s *Store) appendLineLocked(line string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open cron store for append: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append cron line: %w", err)
	}
	return nil
}

func (s *Store) writeFileLocked(content string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write cron store: %w", err)
	}
	return nil
}
