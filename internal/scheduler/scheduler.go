// Package scheduler is the time-driven trigger source: fixed-interval
// status/heartbeat/proactive prompts, per-minute cron matching, the
// once-per-boot missed-job catch-up, and the daily reminder check. It
// produces plain synthetic message strings; the engine feeds them
// through the same resolution path as external messages.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/coopco/helmsman/internal/clock"
	"github.com/coopco/helmsman/internal/cron"
	"github.com/coopco/helmsman/internal/settings"
)

// DefaultMaxCatchUp bounds how many missed cron fires are replayed at
// boot.
const DefaultMaxCatchUp = 10

const minuteKeyFormat = "2006-01-02 15:04"

// Service drives the time-based triggers. It is owned by the engine
// goroutine; Tick is never called concurrently.
type Service struct {
	clock    clock.Clock
	cron     *cron.Store
	settings *settings.Store
	emit     func(command string)

	statusInterval    time.Duration
	heartbeatInterval time.Duration
	proactiveInterval time.Duration
	maxCatchUp        int

	lastStatus         time.Time
	lastHeartbeat      time.Time
	lastProactive      time.Time
	lastCronMinute     string
	lastReminderMinute string
	caughtUp           bool
}

// Config wires a Service. Emit receives each synthetic command; a zero
// interval disables that trigger.
type Config struct {
	Clock             clock.Clock
	Cron              *cron.Store
	Settings          *settings.Store
	Emit              func(command string)
	StatusInterval    time.Duration
	HeartbeatInterval time.Duration
	ProactiveInterval time.Duration
	MaxCatchUp        int
}

// New creates a Service.
func New(cfg Config) *Service {
	maxCatchUp := cfg.MaxCatchUp
	if maxCatchUp <= 0 {
		maxCatchUp = DefaultMaxCatchUp
	}
	return &Service{
		clock:             cfg.Clock,
		cron:              cfg.Cron,
		settings:          cfg.Settings,
		emit:              cfg.Emit,
		statusInterval:    cfg.StatusInterval,
		heartbeatInterval: cfg.HeartbeatInterval,
		proactiveInterval: cfg.ProactiveInterval,
		maxCatchUp:        maxCatchUp,
	}
}

// Tick services every trigger due at now. Until the clock syncs nothing
// runs; time-based decisions against a bogus epoch would be garbage.
func (s *Service) Tick(now time.Time) {
	if !s.clock.Synced() {
		return
	}

	if !s.caughtUp {
		s.caughtUp = true
		s.catchUp(now)
	}

	s.tickIntervals(now)
	s.tickCron(now)
	s.tickReminder(now)
}

// catchUp replays cron fires missed between the persisted last-check
// timestamp and now, once per boot. The daily reminder has no catch-up.
func (s *Service) catchUp(now time.Time) {
	last, ok := s.cron.LastCheck()
	if !ok {
		if err := s.cron.SetLastCheck(now); err != nil {
			slog.Warn("scheduler: failed to persist last check", "error", err)
		}
		return
	}

	missed := s.cron.MissedCommands(last, now, s.maxCatchUp)
	for _, cmd := range missed {
		slog.Info("scheduler: replaying missed cron job", "command", cmd)
		s.emit(cmd)
	}
	if len(missed) > 0 {
		slog.Info("scheduler: catch-up complete", "replayed", len(missed), "since", last.Format(time.RFC3339))
	}
	if err := s.cron.SetLastCheck(now); err != nil {
		slog.Warn("scheduler: failed to persist last check", "error", err)
	}
}

func (s *Service) tickIntervals(now time.Time) {
	if due(&s.lastStatus, s.statusInterval, now) {
		s.emit("status")
	}
	if due(&s.lastHeartbeat, s.heartbeatInterval, now) {
		// No heartbeat content configured: skip silently.
		if s.settings.HeartbeatPrompt() != "" {
			s.emit("heartbeat_run")
		}
	}
	if due(&s.lastProactive, s.proactiveInterval, now) {
		s.emit("proactive_check")
	}
}

// due reports whether interval has elapsed since *last, advancing it
// when so. A first tick only arms the timer.
func due(last *time.Time, interval time.Duration, now time.Time) bool {
	if interval <= 0 {
		return false
	}
	if last.IsZero() {
		*last = now
		return false
	}
	if now.Sub(*last) < interval {
		return false
	}
	*last = now
	return true
}

// tickCron matches stored jobs against the current calendar minute,
// at most once per minute regardless of tick frequency.
func (s *Service) tickCron(now time.Time) {
	key := now.Format(minuteKeyFormat)
	if key == s.lastCronMinute {
		return
	}
	s.lastCronMinute = key

	for _, cmd := range s.cron.MatchingCommands(now) {
		slog.Info("scheduler: cron job fired", "command", cmd, "minute", key)
		s.emit(cmd)
	}
	if err := s.cron.SetLastCheck(now); err != nil {
		slog.Warn("scheduler: failed to persist last check", "error", err)
	}
}

// tickReminder fires the daily slot when its HH:MM matches the current
// minute. No catch-up on purpose.
func (s *Service) tickReminder(now time.Time) {
	key := now.Format(minuteKeyFormat)
	if key == s.lastReminderMinute {
		return
	}
	s.lastReminderMinute = key

	r, ok := s.settings.DailyReminderSlot()
	if !ok || r.Time != now.Format("15:04") {
		return
	}
	slog.Info("scheduler: daily reminder due", "time", r.Time, "kind", r.Task.Kind)
	s.emit("reminder_run")
}
