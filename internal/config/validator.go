package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the config for:
//   - A positive monitor interval
//   - A parseable cron schedule, when one is set
//   - A well-formed webhook URL scheme, when one is set
func Validate(cfg *ServerConfig) error {
	var errs []string

	if cfg.Monitor.IntervalMs < 0 {
		errs = append(errs, fmt.Sprintf("monitor.interval_ms must be positive, got %d", cfg.Monitor.IntervalMs))
	}
	if cfg.Monitor.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Monitor.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("monitor.schedule %q: %s", cfg.Monitor.Schedule, err))
		}
	}
	if url := cfg.Alerts.WebhookURL; url != "" {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			errs = append(errs, fmt.Sprintf("alerts.webhook_url %q must be an http(s) URL", url))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
