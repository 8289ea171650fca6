package settings

import "fmt"

// TaskKind distinguishes what a daily reminder does when it fires.
type TaskKind string

const (
	// TaskNote delivers the stored text as-is.
	TaskNote TaskKind = "note"
	// TaskWebJob runs the stored text as a search/research query.
	TaskWebJob TaskKind = "webjob"
)

// ReminderTask is the tagged payload of a daily reminder.
type ReminderTask struct {
	Kind TaskKind
	Text string
}

// DailyReminder is the device's single daily trigger slot. Setting a new
// one overwrites the previous.
type DailyReminder struct {
	Time string // "HH:MM" in the device's local timezone
	Task ReminderTask
}

// Timezone returns the configured IANA timezone name, "" if unset.
func (s *Store) Timezone() string { return s.GetString("timezone") }

// SetTimezone persists the timezone name.
func (s *Store) SetTimezone(tz string) error { return s.SetString("timezone", tz) }

// SafeMode reports whether physically risky actions are blocked.
func (s *Store) SafeMode() bool { return s.GetBool("safe_mode") }

// SetSafeMode persists the safe-mode flag.
func (s *Store) SetSafeMode(on bool) error { return s.SetBool("safe_mode", on) }

// Persona returns the assistant persona text used for chat replies.
func (s *Store) Persona() string { return s.GetString("persona") }

// SetPersona persists the persona text.
func (s *Store) SetPersona(text string) error { return s.SetString("persona", text) }

// HeartbeatPrompt returns the configured heartbeat content. An empty
// value means heartbeat cycles are silently skipped.
func (s *Store) HeartbeatPrompt() string { return s.GetString("heartbeat") }

// SetHeartbeatPrompt persists the heartbeat content.
func (s *Store) SetHeartbeatPrompt(text string) error { return s.SetString("heartbeat", text) }

// DailyReminderSlot returns the active daily reminder, ok=false if none.
func (s *Store) DailyReminderSlot() (DailyReminder, bool) {
	t := s.GetString("reminder.time")
	if t == "" {
		return DailyReminder{}, false
	}
	kind := TaskKind(s.GetString("reminder.kind"))
	if kind != TaskWebJob {
		kind = TaskNote
	}
	return DailyReminder{
		Time: t,
		Task: ReminderTask{Kind: kind, Text: s.GetString("reminder.text")},
	}, true
}

// SetDailyReminder overwrites the daily reminder slot.
func (s *Store) SetDailyReminder(r DailyReminder) error {
	if err := s.SetString("reminder.time", r.Time); err != nil {
		return err
	}
	if err := s.SetString("reminder.kind", string(r.Task.Kind)); err != nil {
		return err
	}
	return s.SetString("reminder.text", r.Task.Text)
}

// ClearDailyReminder empties the reminder slot.
func (s *Store) ClearDailyReminder() error { return s.Delete("reminder") }

// EmailDraft is the stored outgoing email under construction.
type EmailDraft struct {
	To      string
	Subject string
	Body    string
}

// EmailDraftSlot returns the current draft fields.
func (s *Store) EmailDraftSlot() EmailDraft {
	return EmailDraft{
		To:      s.GetString("email.to"),
		Subject: s.GetString("email.subject"),
		Body:    s.GetString("email.body"),
	}
}

// SetEmailDraftField writes one draft field: "to", "subject" or "body".
func (s *Store) SetEmailDraftField(field, value string) error {
	switch field {
	case "to", "subject", "body":
		return s.SetString("email."+field, value)
	default:
		return fmt.Errorf("unknown email draft field %q", field)
	}
}

// ClearEmailDraft drops the draft.
func (s *Store) ClearEmailDraft() error { return s.Delete("email") }

// LastPage stores the most recently generated web page content.
func (s *Store) LastPage() string { return s.GetString("last_page") }

// SetLastPage persists generated page content for later hosting.
func (s *Store) SetLastPage(html string) error { return s.SetString("last_page", html) }

// UsageStats are the read-mostly counters bumped on every external call
// outcome.
type UsageStats struct {
	LLMCalls    int64
	SearchCalls int64
	Actions     int64
	Errors      int64
}

// Usage returns the current counters.
func (s *Store) Usage() UsageStats {
	return UsageStats{
		LLMCalls:    s.Counter("usage.llm_calls"),
		SearchCalls: s.Counter("usage.search_calls"),
		Actions:     s.Counter("usage.actions"),
		Errors:      s.Counter("usage.errors"),
	}
}

// CountLLMCall, CountSearch, CountAction and CountError bump the
// corresponding usage counter. Failures to persist are ignored: counters
// are best-effort.
func (s *Store) CountLLMCall() { _ = s.IncrCounter("usage.llm_calls") }
func (s *Store) CountSearch()  { _ = s.IncrCounter("usage.search_calls") }
func (s *Store) CountAction()  { _ = s.IncrCounter("usage.actions") }
func (s *Store) CountError()   { _ = s.IncrCounter("usage.errors") }
