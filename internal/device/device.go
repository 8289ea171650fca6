// Package device defines the action executors the dispatcher drives:
// relay, LED, firmware, email, search, page hosting and chat generation.
// The dispatcher depends only on these interfaces; hardware-backed
// implementations live with the target platform, and Stub provides
// log-only versions for hosts without hardware.
package device

import "context"

// UpdateInfo describes the result of a firmware update check.
type UpdateInfo struct {
	Available   bool
	Version     string
	DownloadURL string
}

// Relay switches a relay pin on or off.
type Relay interface {
	SetRelay(pin, level int) error
}

// LED flashes the status LED.
type LED interface {
	Flash(count int) error
}

// Firmware checks for and applies firmware updates. Apply is expected to
// reboot the device on success and therefore not return.
type Firmware interface {
	CheckUpdate(ctx context.Context) (UpdateInfo, error)
	Apply(ctx context.Context, downloadURL string) error
}

// Email sends a composed email.
type Email interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Search runs a one-off web search and returns a textual summary.
type Search interface {
	Search(ctx context.Context, query string) (string, error)
}

// PageHost publishes generated page content and returns its URL.
type PageHost interface {
	Publish(ctx context.Context, html string) (string, error)
}

// Chat produces a free-form model answer for a single prompt. The
// dispatcher uses it for heartbeat and proactive cycles and for content
// generation; conversational replies go through the pipeline instead.
type Chat interface {
	Reply(ctx context.Context, prompt string) (string, error)
}
