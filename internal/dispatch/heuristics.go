package dispatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coopco/helmsman/internal/settings"
)

// Free-form intent recognition. Each heuristic extracts structured
// parameters by keyword/positional scanning and re-enters the structured
// command path; anything unrecognized stays unhandled for the pipeline's
// later stages.
func (d *Dispatcher) heuristics(input, lower string, now time.Time) (bool, string) {
	// A details draft completes as soon as an input carries a time.
	if d.pend.state == AwaitingDetails {
		if hhmm, matched, ok := findClockTime(lower); ok {
			msg := extractReminderMessage(input, matched)
			if msg != "" {
				d.transition(pending{state: Idle})
				return true, d.setDailyReminder(hhmm, settings.ReminderTask{Kind: settings.TaskNote, Text: msg}, now)
			}
		}
		return true, "I still need a time and a message, e.g. 'at 07:30 take vitamins' — or 'cancel'."
	}

	switch {
	case isReminderChange(lower):
		return true, d.changeReminderTime(lower)

	case isReminderRequest(lower):
		return true, d.reminderFromText(input, lower, now)

	case isDailyMarker(lower):
		d.transition(pending{state: AwaitingDetails, expiresAt: now.Add(draftTTL)})
		return true, "Got it, a daily thing. What time, and what should I say? e.g. 'at 07:30 take vitamins'"

	case isSearchRequest(lower):
		return true, d.runSearch(searchTopic(input, lower))

	case isPageRequest(lower):
		return true, d.makePage(pageTopic(input, lower))

	case isHostRequest(lower):
		return true, d.hostPage()

	case isFirmwareRequest(lower):
		return true, d.checkFirmware(now)
	}

	return false, ""
}

func isReminderRequest(lower string) bool {
	return strings.Contains(lower, "remind") // "remind me", "set a reminder", "reminder"
}

func isReminderChange(lower string) bool {
	if !strings.Contains(lower, "remind") {
		return false
	}
	for _, verb := range []string{"change", "move", "switch", "reschedule"} {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

func isDailyMarker(lower string) bool {
	for _, phrase := range []string{"this is daily", "make it daily", "it's a daily thing", "make that daily", "every day thing"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func isSearchRequest(lower string) bool {
	for _, prefix := range []string{"search for ", "search the web for ", "look up ", "google ", "find out "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func isPageRequest(lower string) bool {
	if !strings.Contains(lower, "web page") && !strings.Contains(lower, "webpage") {
		return false
	}
	for _, verb := range []string{"make", "create", "build", "generate"} {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

func isHostRequest(lower string) bool {
	hasVerb := false
	for _, verb := range []string{"host", "serve", "deploy", "publish"} {
		if strings.Contains(lower, verb) {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return false
	}
	for _, obj := range []string{"page", "content", "site", "last"} {
		if strings.Contains(lower, obj) {
			return true
		}
	}
	return false
}

func isFirmwareRequest(lower string) bool {
	if !strings.Contains(lower, "firmware") && !strings.Contains(lower, " fw") {
		return false
	}
	for _, verb := range []string{"update", "upgrade", "check", "install", "flash"} {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

// reminderFromText turns "remind me to take vitamins every day at 7:30"
// into a structured daily reminder (or a details draft when half the
// request is missing).
func (d *Dispatcher) reminderFromText(input, lower string, now time.Time) string {
	hhmm, matched, hasTime := findClockTime(lower)
	if !hasTime {
		d.transition(pending{state: AwaitingDetails, expiresAt: now.Add(draftTTL)})
		return "Sure — what time, and what should I say? e.g. 'at 07:30 take vitamins'"
	}

	msg := extractReminderMessage(input, matched)
	if msg == "" {
		d.transition(pending{state: AwaitingDetails, expiresAt: now.Add(draftTTL)})
		return fmt.Sprintf("A reminder at %s — what should it say?", hhmm)
	}

	kind := settings.TaskNote
	for _, kw := range []string{"search", "news about", "research", "look up"} {
		if strings.Contains(lower, kw) {
			kind = settings.TaskWebJob
			break
		}
	}
	return d.setDailyReminder(hhmm, settings.ReminderTask{Kind: kind, Text: msg}, now)
}

// changeReminderTime updates only the time of the existing slot.
func (d *Dispatcher) changeReminderTime(lower string) string {
	r, ok := d.settings.DailyReminderSlot()
	if !ok {
		return "ERR: no daily reminder to change — set one first"
	}
	hhmm, _, hasTime := findClockTime(lower)
	if !hasTime {
		return "ERR: what time should the reminder move to? e.g. 'change the reminder to 08:15'"
	}
	r.Time = hhmm
	if err := d.settings.SetDailyReminder(r); err != nil {
		return fmt.Sprintf("ERR: failed to save reminder: %v", err)
	}
	return fmt.Sprintf("Reminder moved to %s daily.", hhmm)
}

func searchTopic(input, lower string) string {
	for _, prefix := range []string{"search for ", "search the web for ", "look up ", "google ", "find out "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(input[len(prefix):])
		}
	}
	return strings.TrimSpace(input)
}

func pageTopic(input, lower string) string {
	for _, marker := range []string{" about ", " on ", " for "} {
		if i := strings.Index(lower, marker); i >= 0 {
			return strings.TrimSpace(input[i+len(marker):])
		}
	}
	return strings.TrimSpace(input)
}

// ---------- Clock-time extraction ----------

var (
	reClockTime = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	reHourMerid = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

// findClockTime scans lower-cased text for a time expression ("7:30",
// "07:30", "7:30 pm", "7 pm") and returns it normalized to HH:MM plus
// the matched source text.
func findClockTime(lower string) (hhmm, matched string, ok bool) {
	if m := reClockTime.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h, ok2 := applyMeridiem(hour, m[3]); ok2 && minute <= 59 {
			return fmt.Sprintf("%02d:%02d", h, minute), m[0], true
		}
	}
	if m := reHourMerid.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if h, ok2 := applyMeridiem(hour, m[2]); ok2 {
			return fmt.Sprintf("%02d:00", h), m[0], true
		}
	}
	return "", "", false
}

func applyMeridiem(hour int, merid string) (int, bool) {
	switch merid {
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, false
		}
	}
	return hour, true
}

// normalizeClockTime validates a structured HH:MM argument (am/pm
// suffixes allowed) and renders it zero-padded.
func normalizeClockTime(s string) (string, bool) {
	hhmm, matched, ok := findClockTime(strings.ToLower(strings.TrimSpace(s)))
	if !ok || matched != strings.ToLower(strings.TrimSpace(s)) {
		return "", false
	}
	return hhmm, true
}

// extractReminderMessage removes the time phrase and request boilerplate,
// leaving the text the reminder should carry.
func extractReminderMessage(input, timeMatch string) string {
	msg := input
	if timeMatch != "" {
		if i := strings.Index(strings.ToLower(msg), timeMatch); i >= 0 {
			msg = msg[:i] + msg[i+len(timeMatch):]
		}
	}

	lower := strings.ToLower(msg)
	if i := strings.Index(lower, " to "); i >= 0 {
		msg = msg[i+4:]
	} else {
		for _, prefix := range []string{"remind me", "set a reminder", "set reminder", "reminder"} {
			if strings.HasPrefix(lower, prefix) {
				msg = msg[len(prefix):]
				break
			}
		}
	}

	for _, filler := range []string{"every day", "every morning", "every evening", "every night", "each day", "daily", " at "} {
		msg = removeFold(msg, filler)
	}

	msg = strings.Trim(msg, " \t.,:;-")
	// Removing the time can strand its preposition ("at 09:15 do X").
	for _, dangling := range []string{"at ", "to "} {
		if strings.HasPrefix(strings.ToLower(msg), dangling) {
			msg = strings.TrimSpace(msg[len(dangling):])
			break
		}
	}
	return strings.Trim(msg, " \t.,:;-")
}

// removeFold removes the first case-insensitive occurrence of sub.
func removeFold(s, sub string) string {
	if i := strings.Index(strings.ToLower(s), sub); i >= 0 {
		return s[:i] + s[i+len(sub):]
	}
	return s
}
