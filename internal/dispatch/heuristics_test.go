package dispatch

import (
	"strings"
	"testing"

	"github.com/coopco/helmsman/internal/settings"
)

func TestFindClockTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"remind me at 7:30", "07:30", true},
		{"remind me at 07:30", "07:30", true},
		{"wake me at 7:30 pm", "19:30", true},
		{"wake me at 7:30pm", "19:30", true},
		{"lunch at 12:00 pm", "12:00", true},
		{"midnight run at 12:15 am", "00:15", true},
		{"news at 7 pm please", "19:00", true},
		{"news at 7pm please", "19:00", true},
		{"standup at 9am", "09:00", true},
		{"server check at 23:59", "23:59", true},
		{"no time here", "", false},
		{"version 25:99 of the doc", "", false},
	}
	for _, tt := range tests {
		got, _, ok := findClockTime(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("findClockTime(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeClockTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"07:30", "07:30", true},
		{"7:30", "07:30", true},
		{"7:30pm", "19:30", true},
		{"23:59", "23:59", true},
		{"25:00", "", false},
		{"07:75", "", false},
		{"soonish", "", false},
		{"07:30 take vitamins", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeClockTime(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("normalizeClockTime(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHeuristicDailyReminder(t *testing.T) {
	rig := newTestRig(t)
	mustHandle(t, rig.d, "timezone_set UTC")

	out := mustHandle(t, rig.d, "remind me to take vitamins every day at 7:30 am")
	if !strings.Contains(out, "07:30") {
		t.Fatalf("got %q", out)
	}
	r, ok := rig.store.DailyReminderSlot()
	if !ok || r.Time != "07:30" || r.Task.Kind != settings.TaskNote {
		t.Fatalf("slot = %+v ok=%v", r, ok)
	}
	if !strings.Contains(r.Task.Text, "take vitamins") {
		t.Fatalf("text = %q", r.Task.Text)
	}
}

func TestHeuristicWebJobReminder(t *testing.T) {
	rig := newTestRig(t)
	mustHandle(t, rig.d, "timezone_set UTC")

	mustHandle(t, rig.d, "remind me to search tech news every morning at 9am")
	r, ok := rig.store.DailyReminderSlot()
	if !ok || r.Task.Kind != settings.TaskWebJob || r.Time != "09:00" {
		t.Fatalf("slot = %+v ok=%v", r, ok)
	}
}

func TestHeuristicReminderWithoutTimeAsksForDetails(t *testing.T) {
	rig := newTestRig(t)
	mustHandle(t, rig.d, "timezone_set UTC")

	out := mustHandle(t, rig.d, "remind me about the standup")
	if !strings.Contains(out, "what time") && !strings.Contains(out, "What time") {
		t.Fatalf("got %q", out)
	}

	// The follow-up with time and message completes the draft.
	out = mustHandle(t, rig.d, "at 09:15 join the standup")
	if !strings.Contains(out, "09:15") {
		t.Fatalf("got %q", out)
	}
	r, ok := rig.store.DailyReminderSlot()
	if !ok || r.Time != "09:15" || !strings.Contains(r.Task.Text, "standup") {
		t.Fatalf("slot = %+v ok=%v", r, ok)
	}
}

func TestHeuristicDailyMarkerThenDetails(t *testing.T) {
	rig := newTestRig(t)
	mustHandle(t, rig.d, "timezone_set UTC")

	out := mustHandle(t, rig.d, "this is daily by the way")
	if !strings.Contains(out, "What time") {
		t.Fatalf("got %q", out)
	}
	// An answer still missing the time gets nudged again.
	out = mustHandle(t, rig.d, "just say hello")
	if !strings.Contains(out, "still need a time") {
		t.Fatalf("got %q", out)
	}
	mustHandle(t, rig.d, "at 08:00 say hello")
	r, ok := rig.store.DailyReminderSlot()
	if !ok || r.Time != "08:00" {
		t.Fatalf("slot = %+v ok=%v", r, ok)
	}
}

func TestHeuristicChangeReminderTime(t *testing.T) {
	rig := newTestRig(t)
	mustHandle(t, rig.d, "timezone_set UTC")

	out := mustHandle(t, rig.d, "change my reminder to 8:15")
	if !strings.Contains(out, "no daily reminder to change") {
		t.Fatalf("got %q", out)
	}

	mustHandle(t, rig.d, "reminder_set_daily 07:30 take vitamins")
	out = mustHandle(t, rig.d, "change my reminder to 8:15")
	if out != "Reminder moved to 08:15 daily." {
		t.Fatalf("got %q", out)
	}
	r, _ := rig.store.DailyReminderSlot()
	if r.Time != "08:15" || r.Task.Text != "take vitamins" {
		t.Fatalf("slot = %+v", r)
	}
}

func TestHeuristicSearch(t *testing.T) {
	rig := newTestRig(t)
	out := mustHandle(t, rig.d, "search for the latest kernel release")
	if out != "search says hi" {
		t.Fatalf("got %q", out)
	}
	if rig.srch.query != "the latest kernel release" {
		t.Fatalf("query = %q", rig.srch.query)
	}

	mustHandle(t, rig.d, "look up tide times for dover")
	if rig.srch.query != "tide times for dover" {
		t.Fatalf("query = %q", rig.srch.query)
	}
}

func TestHeuristicPageAndHost(t *testing.T) {
	rig := newTestRig(t)

	out := mustHandle(t, rig.d, "make a web page about my garden sensors")
	if !strings.Contains(out, "Page generated") {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(rig.chat.prompt, "my garden sensors") {
		t.Fatalf("prompt = %q", rig.chat.prompt)
	}

	out = mustHandle(t, rig.d, "host my last page")
	if !strings.Contains(out, "Published:") {
		t.Fatalf("got %q", out)
	}
}

func TestHeuristicFirmware(t *testing.T) {
	rig := newTestRig(t)
	out := mustHandle(t, rig.d, "can you check for a firmware update?")
	if out != "Firmware is up to date." {
		t.Fatalf("got %q", out)
	}
}

func TestExtractReminderMessage(t *testing.T) {
	tests := []struct {
		input, timeMatch, want string
	}{
		{"remind me to take vitamins every day at 7:30 am", "7:30 am", "take vitamins"},
		{"Remind me to water the plants daily at 18:00", "18:00", "water the plants"},
		{"set a reminder 07:30 stretch", "07:30", "stretch"},
		{"at 09:15 join the standup", "09:15", "join the standup"},
	}
	for _, tt := range tests {
		if got := extractReminderMessage(tt.input, tt.timeMatch); got != tt.want {
			t.Errorf("extractReminderMessage(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
