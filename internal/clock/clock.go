// Package clock provides the engine's local-time source. Time is treated
// as unavailable until the host clock passes a plausibility threshold,
// and the active timezone is re-applied only when the configured zone
// string actually changes.
package clock

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// plausibleEpoch is the earliest Unix time we accept as a synced clock.
// Hosts that boot with the epoch at zero report unsynced until NTP (or
// the OS) fixes them up. 2024-01-01T00:00:00Z.
const plausibleEpoch = 1704067200

// Clock is the engine's view of local time.
type Clock interface {
	// Now returns the current time in the active timezone.
	Now() time.Time
	// Synced reports whether wall time can be trusted yet.
	Synced() bool
}

// zoneAliases maps common abbreviations and colloquial names to IANA
// zone names.
var zoneAliases = map[string]string{
	"utc":     "UTC",
	"gmt":     "UTC",
	"ist":     "Asia/Kolkata",
	"jst":     "Asia/Tokyo",
	"sgt":     "Asia/Singapore",
	"bst":     "Europe/London",
	"cet":     "Europe/Berlin",
	"cest":    "Europe/Berlin",
	"eet":     "Europe/Helsinki",
	"est":     "America/New_York",
	"edt":     "America/New_York",
	"cst":     "America/Chicago",
	"cdt":     "America/Chicago",
	"mst":     "America/Denver",
	"pst":     "America/Los_Angeles",
	"pdt":     "America/Los_Angeles",
	"aest":    "Australia/Sydney",
	"aedt":    "Australia/Sydney",
	"nzst":    "Pacific/Auckland",
	"kolkata": "Asia/Kolkata",
	"london":  "Europe/London",
	"berlin":  "Europe/Berlin",
	"tokyo":   "Asia/Tokyo",
}

// NormalizeZone resolves a user-supplied timezone string to an IANA zone
// name, accepting common aliases. Returns an error for strings that name
// no known zone.
func NormalizeZone(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("empty timezone")
	}
	if alias, ok := zoneAliases[strings.ToLower(trimmed)]; ok {
		trimmed = alias
	}
	if _, err := time.LoadLocation(trimmed); err != nil {
		return "", fmt.Errorf("unknown timezone %q", s)
	}
	return trimmed, nil
}

// LooksLikeZone is the cheap screen used while a timezone draft is
// pending: does this input plausibly specify a timezone at all?
func LooksLikeZone(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t") {
		return false
	}
	if _, ok := zoneAliases[strings.ToLower(trimmed)]; ok {
		return true
	}
	return strings.Contains(trimmed, "/")
}

// System is the production Clock: host wall time plus a configurable
// timezone.
type System struct {
	defaultZone string
	mu          sync.Mutex
	zone        string
	loc         *time.Location
}

// NewSystem creates a System clock starting in defaultZone (falling back
// to UTC if it does not resolve).
func NewSystem(defaultZone string) *System {
	s := &System{defaultZone: defaultZone, zone: "UTC", loc: time.UTC}
	if defaultZone != "" {
		if err := s.SetZone(defaultZone); err != nil {
			slog.Warn("clock: bad default timezone, using UTC", "zone", defaultZone, "error", err)
		}
	}
	return s
}

// Now returns the current time in the active zone.
func (s *System) Now() time.Time {
	s.mu.Lock()
	loc := s.loc
	s.mu.Unlock()
	return time.Now().In(loc)
}

// Synced reports whether the host clock has plausibly been set.
func (s *System) Synced() bool {
	return time.Now().Unix() >= plausibleEpoch
}

// SetZone normalizes and applies a timezone. Re-applying the currently
// active zone is a no-op.
func (s *System) SetZone(zone string) error {
	name, err := NormalizeZone(zone)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.zone {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("unknown timezone %q", zone)
	}
	slog.Info("clock: timezone changed", "from", s.zone, "to", name)
	s.zone = name
	s.loc = loc
	return nil
}

// Zone returns the active zone name.
func (s *System) Zone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zone
}
