package cron

import (
	"strings"
	"testing"
	"time"
)

func TestParseValidLines(t *testing.T) {
	cases := []struct {
		line string
		want Job
	}{
		{"* * * * * | tick", Job{Any, Any, Any, Any, Any, "tick"}},
		{"0 9 * * * | good morning", Job{0, 9, Any, Any, Any, "good morning"}},
		{"30 7 1 1 ? | new year", Job{30, 7, 1, 1, Any, "new year"}},
		{"? ? ? ? 0 | sunday check", Job{Any, Any, Any, Any, 0, "sunday check"}},
		{"  15   22 * 12 6 |  late saturday  ", Job{15, 22, Any, 12, 6, "late saturday"}},
	}

	for _, tc := range cases {
		job, err := Parse(tc.line)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tc.line, err)
			continue
		}
		if job == nil {
			t.Errorf("Parse(%q): got nil job", tc.line)
			continue
		}
		if *job != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.line, *job, tc.want)
		}
	}
}

func TestParseCommentsAndBlanks(t *testing.T) {
	for _, line := range []string{"", "   ", "# a comment", "  # indented comment"} {
		job, err := Parse(line)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", line, err)
		}
		if job != nil {
			t.Errorf("Parse(%q): expected no job, got %+v", line, *job)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		line    string
		errPart string
	}{
		{"0 9 * * * good morning", "separator"},
		{"0 9 * * | missing field", "5 schedule fields"},
		{"0 9 * * * extra | too many", "5 schedule fields"},
		{"60 9 * * * | x", "minute field 60 out of range"},
		{"0 24 * * * | x", "hour field 24 out of range"},
		{"0 9 0 * * | x", "day field 0 out of range"},
		{"0 9 * 13 * | x", "month field 13 out of range"},
		{"0 9 * * 7 | x", "weekday field 7 out of range"},
		{"a 9 * * * | x", "minute field"},
		{"0 9 * 1x * | x", "month field"},
		{"0 9 * * * |   ", "empty command"},
	}

	for _, tc := range cases {
		_, err := Parse(tc.line)
		if err == nil {
			t.Errorf("Parse(%q): expected error containing %q, got nil", tc.line, tc.errPart)
			continue
		}
		if !strings.Contains(err.Error(), tc.errPart) {
			t.Errorf("Parse(%q) error = %q, want it to contain %q", tc.line, err, tc.errPart)
		}
	}
}

func TestMatchAllWildcards(t *testing.T) {
	job := &Job{Any, Any, Any, Any, Any, "x"}
	times := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 15, 12, 30, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC),
	}
	for _, tm := range times {
		if !job.MatchesTime(tm) {
			t.Errorf("all-wildcard job did not match %v", tm)
		}
	}
}

func TestMatchSingleConcreteField(t *testing.T) {
	job := &Job{Minute: 30, Hour: Any, Day: Any, Month: Any, Weekday: Any, Command: "x"}
	if !job.Matches(10, 30, 5, 6, 2) {
		t.Error("job with minute=30 did not match minute 30")
	}
	if job.Matches(10, 31, 5, 6, 2) {
		t.Error("job with minute=30 matched minute 31")
	}
}

func TestMatchIsConjunction(t *testing.T) {
	job := &Job{Minute: 0, Hour: 9, Day: Any, Month: Any, Weekday: 1, Command: "x"}
	if !job.Matches(9, 0, 3, 8, 1) {
		t.Error("fully agreeing components did not match")
	}
	// One field off means no fire, even if the others agree.
	if job.Matches(9, 0, 3, 8, 2) {
		t.Error("job matched despite weekday mismatch")
	}
	if job.Matches(10, 0, 3, 8, 1) {
		t.Error("job matched despite hour mismatch")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	lines := []string{
		"* * * * * | tick",
		"0 9 * * * | good morning",
		"30 7 1 1 * | new year",
		"? 12 ? 6 3 | lunch check",
	}
	for _, line := range lines {
		job, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		again, err := Parse(job.Render())
		if err != nil {
			t.Fatalf("Parse(Render(%q)): %v", line, err)
		}
		if *again != *job {
			t.Errorf("round trip of %q: got %+v, want %+v", line, *again, *job)
		}
	}
}
