package preflight

import (
	"context"
	"strings"

	"ogg2mp3/internal/config"
)

// CheckNotificationsFromConfig describes the notification setup. A missing
// topic is reported as disabled rather than failed.
func CheckNotificationsFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		if cfg.Notifications.Console {
			return Result{Name: name, Passed: true, Detail: "Console only"}
		}
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	check := CheckNtfy(ctx, cfg.Notifications.NtfyTopic)
	return Result{Name: name, Passed: check.Passed, Detail: check.Detail}
}
