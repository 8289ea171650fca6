package device

import (
	"context"
	"fmt"
	"log/slog"
)

// Stub implements every executor interface with log-only behavior, for
// development hosts without the device hardware attached.
type Stub struct{}

func (Stub) SetRelay(pin, level int) error {
	slog.Info("device: relay set", "pin", pin, "level", level)
	return nil
}

func (Stub) Flash(count int) error {
	slog.Info("device: led flashed", "count", count)
	return nil
}

func (Stub) CheckUpdate(ctx context.Context) (UpdateInfo, error) {
	slog.Info("device: firmware check (stub, nothing available)")
	return UpdateInfo{}, nil
}

func (Stub) Apply(ctx context.Context, downloadURL string) error {
	return fmt.Errorf("firmware update not supported on this host")
}

func (Stub) Send(ctx context.Context, to, subject, body string) error {
	slog.Info("device: email send (stub)", "to", to, "subject", subject)
	return nil
}

func (Stub) Search(ctx context.Context, query string) (string, error) {
	return "", fmt.Errorf("no search provider configured")
}

func (Stub) Publish(ctx context.Context, html string) (string, error) {
	return "", fmt.Errorf("no page host configured")
}
