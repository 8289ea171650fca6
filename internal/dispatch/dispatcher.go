// Package dispatch is the stateful command dispatcher: it normalizes an
// incoming line, matches it against the structured command surface or the
// natural-language heuristics, and gates risky actions behind an explicit
// confirmation protocol. Every path returns a string; parse, state and
// collaborator failures surface as "ERR:" responses, never as panics.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coopco/helmsman/internal/clock"
	"github.com/coopco/helmsman/internal/cron"
	"github.com/coopco/helmsman/internal/device"
	"github.com/coopco/helmsman/internal/settings"
)

// Executors are the external action collaborators the dispatcher drives.
type Executors struct {
	Relay    device.Relay
	LED      device.LED
	Firmware device.Firmware
	Email    device.Email
	Search   device.Search
	Pages    device.PageHost
	Chat     device.Chat
}

// Dispatcher owns the pending-state machine. It is constructed once and
// driven only from the engine goroutine; no internal locking is needed.
type Dispatcher struct {
	settings *settings.Store
	clock    clock.Clock
	cron     *cron.Store
	exec     Executors
	botName  string

	nextActionID  int
	pend          pending
	fwOffer       *firmwareOffer
	actionExpired bool   // an action lapsed since the last confirm attempt
	lapsedNotice  string // surfaced once on the next handled interaction
}

// Config wires a Dispatcher.
type Config struct {
	Settings  *settings.Store
	Clock     clock.Clock
	Cron      *cron.Store
	Executors Executors
	BotName   string
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		settings: cfg.Settings,
		clock:    cfg.Clock,
		cron:     cfg.Cron,
		exec:     cfg.Executors,
		botName:  cfg.BotName,
	}
}

// Execute processes one raw input line. handled=false means the input is
// not a command and the caller should try its other resolution stages.
func (d *Dispatcher) Execute(raw string) (handled bool, output string) {
	now := d.clock.Now()
	d.expireStale(now)

	input := d.normalize(raw)
	if input == "" {
		return false, ""
	}
	lower := strings.ToLower(input)

	// A parked reminder resolves the moment something timezone-shaped
	// arrives, before any command matching.
	if d.pend.state == AwaitingTimezone && clock.LooksLikeZone(input) {
		return true, d.withNotice(d.applyTimezone(input, now))
	}

	if handled, out := d.command(input, lower, now); handled {
		return true, d.withNotice(out)
	}
	if handled, out := d.heuristics(input, lower, now); handled {
		return true, d.withNotice(out)
	}
	return false, ""
}

// normalize strips a leading command marker and a trailing @botname on
// the first token (group-chat addressing).
func (d *Dispatcher) normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "/")

	first, rest, cut := strings.Cut(s, " ")
	if at := strings.Index(first, "@"); at > 0 {
		suffix := first[at+1:]
		if d.botName == "" || strings.EqualFold(suffix, d.botName) {
			first = first[:at]
		}
	}
	if cut {
		return strings.TrimSpace(first + " " + rest)
	}
	return first
}

// expireStale lazily clears pending structures whose deadline passed.
// Lapsed drafts leave a note for the next interaction; a lapsed action
// is remembered so confirm can distinguish "expired" from "none".
func (d *Dispatcher) expireStale(now time.Time) {
	if d.pend.state == Idle || !now.After(d.pend.expiresAt) {
		return
	}
	switch d.pend.state {
	case ActionPending:
		slog.Info("dispatch: pending action expired", "id", d.pend.action.ID, "kind", d.pend.action.Kind)
		d.actionExpired = true
	case AwaitingTimezone, AwaitingDetails:
		slog.Info("dispatch: reminder draft expired", "state", d.pend.state)
		d.lapsedNotice = "(your earlier reminder request expired — send it again if you still want it)\n"
	}
	d.transition(pending{state: Idle})
}

// transition is the single place pending state changes.
func (d *Dispatcher) transition(next pending) {
	if d.pend.state != next.state {
		slog.Debug("dispatch: state change", "from", d.pend.state, "to", next.state)
	}
	d.pend = next
}

// withNotice prepends (once) the note left by an expired draft.
func (d *Dispatcher) withNotice(out string) string {
	if d.lapsedNotice == "" || out == "" {
		return out
	}
	notice := d.lapsedNotice
	d.lapsedNotice = ""
	return notice + out
}

// requestAction parks a risky action behind confirmation. Only one may
// be outstanding; the safe-mode gate for relay/LED is applied before
// anything is created.
func (d *Dispatcher) requestAction(a Action, desc string, now time.Time) string {
	if a.Kind != ActionFirmwareUpdate && d.settings.SafeMode() {
		return "ERR: safe mode ON — risky actions are blocked. Use 'safe_mode off' to lift it."
	}
	if d.pend.state == ActionPending {
		return fmt.Sprintf("ERR: action %d (%s) is already awaiting confirmation — 'confirm %d' or 'cancel' first",
			d.pend.action.ID, d.pend.action.Kind, d.pend.action.ID)
	}
	if d.pend.state != Idle {
		return "ERR: finish or cancel the pending reminder setup first"
	}

	d.nextActionID++
	a.ID = d.nextActionID
	a.ExpiresAt = now.Add(actionTTL)
	d.actionExpired = false
	d.transition(pending{state: ActionPending, action: a, expiresAt: a.ExpiresAt})

	return fmt.Sprintf("CONFIRM %d: %s. Reply 'confirm %d' within %d minutes, or 'cancel'.",
		a.ID, desc, a.ID, int(actionTTL.Minutes()))
}

// confirm runs the outstanding action if the id (when given) matches and
// the gates still allow it.
func (d *Dispatcher) confirm(id int, idGiven bool, now time.Time) string {
	if d.pend.state != ActionPending {
		if d.actionExpired {
			d.actionExpired = false
			return "ERR: pending action expired — issue the command again"
		}
		return "ERR: no pending action"
	}
	a := d.pend.action
	if idGiven && id != a.ID {
		return fmt.Sprintf("ERR: pending action id mismatch (expected %d)", a.ID)
	}
	if a.Kind != ActionFirmwareUpdate && d.settings.SafeMode() {
		return "ERR: safe mode ON — risky actions are blocked. Use 'safe_mode off' to lift it."
	}

	// Action is consumed whether it succeeds or fails.
	d.transition(pending{state: Idle})
	return d.runAction(a, now)
}

func (d *Dispatcher) runAction(a Action, now time.Time) string {
	ctx := context.Background()
	switch a.Kind {
	case ActionRelaySet:
		if err := d.exec.Relay.SetRelay(a.Pin, a.Level); err != nil {
			d.settings.CountError()
			return fmt.Sprintf("ERR: relay set failed: %v", err)
		}
		d.settings.CountAction()
		return fmt.Sprintf("Relay pin %d set to %d (confirmed id=%d)", a.Pin, a.Level, a.ID)

	case ActionLedFlash:
		if err := d.exec.LED.Flash(a.Count); err != nil {
			d.settings.CountError()
			return fmt.Sprintf("ERR: led flash failed: %v", err)
		}
		d.settings.CountAction()
		return fmt.Sprintf("LED flashed %d times (confirmed id=%d)", a.Count, a.ID)

	case ActionFirmwareUpdate:
		if err := d.exec.Firmware.Apply(ctx, a.DownloadURL); err != nil {
			d.settings.CountError()
			return fmt.Sprintf("ERR: firmware update failed: %v", err)
		}
		d.settings.CountAction()
		// Normally unreachable: a successful Apply reboots the device.
		return fmt.Sprintf("Firmware %s applied, rebooting (confirmed id=%d)", a.Version, a.ID)

	default:
		return "ERR: unknown pending action kind"
	}
}

// cancel unconditionally discards any pending action or draft.
func (d *Dispatcher) cancel() string {
	d.actionExpired = false
	d.lapsedNotice = ""
	if d.pend.state == Idle {
		return "Nothing to cancel."
	}
	prev := d.pend.state
	d.transition(pending{state: Idle})
	switch prev {
	case ActionPending:
		return "Pending action cancelled."
	default:
		return "Reminder setup cancelled."
	}
}

// applyTimezone persists a timezone and completes a parked reminder
// draft, if any.
func (d *Dispatcher) applyTimezone(input string, now time.Time) string {
	zone, err := clock.NormalizeZone(input)
	if err != nil {
		return fmt.Sprintf("ERR: %v", err)
	}
	if err := d.settings.SetTimezone(zone); err != nil {
		return fmt.Sprintf("ERR: failed to save timezone: %v", err)
	}
	if sys, ok := d.clock.(*clock.System); ok {
		if err := sys.SetZone(zone); err != nil {
			slog.Warn("dispatch: failed to apply timezone to clock", "zone", zone, "error", err)
		}
	}

	if d.pend.state != AwaitingTimezone {
		return fmt.Sprintf("Timezone set to %s.", zone)
	}

	draft := d.pend.draft
	d.transition(pending{state: Idle})
	if err := d.settings.SetDailyReminder(settings.DailyReminder{Time: draft.Time, Task: draft.Task}); err != nil {
		return fmt.Sprintf("ERR: failed to save reminder: %v", err)
	}
	return fmt.Sprintf("Timezone set to %s. %s saved for %s daily: %s",
		zone, taskLabel(draft.Task.Kind), draft.Time, draft.Task.Text)
}

// setDailyReminder persists the reminder, or parks it when no timezone
// is configured yet.
func (d *Dispatcher) setDailyReminder(timeStr string, task settings.ReminderTask, now time.Time) string {
	hhmm, ok := normalizeClockTime(timeStr)
	if !ok {
		return fmt.Sprintf("ERR: invalid time %q, expected HH:MM", timeStr)
	}
	if strings.TrimSpace(task.Text) == "" {
		return "ERR: reminder message must not be empty"
	}

	if d.settings.Timezone() == "" {
		if d.pend.state == ActionPending {
			return fmt.Sprintf("ERR: action %d is awaiting confirmation — 'confirm %d' or 'cancel' first",
				d.pend.action.ID, d.pend.action.ID)
		}
		d.transition(pending{
			state:     AwaitingTimezone,
			draft:     ReminderDraft{Time: hhmm, Task: task},
			expiresAt: now.Add(draftTTL),
		})
		return "Almost there — I need your timezone first. What timezone are you in? (e.g. Asia/Kolkata or IST)"
	}

	if err := d.settings.SetDailyReminder(settings.DailyReminder{Time: hhmm, Task: task}); err != nil {
		return fmt.Sprintf("ERR: failed to save reminder: %v", err)
	}
	return fmt.Sprintf("%s saved for %s daily: %s", taskLabel(task.Kind), hhmm, task.Text)
}

func taskLabel(kind settings.TaskKind) string {
	if kind == settings.TaskWebJob {
		return "Web job"
	}
	return "Reminder"
}
